// Package http holds the thin route handlers. They validate request shapes,
// then delegate everything with semantics to the core packages.
package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rashereire/quizforge/internal/auth"
	"github.com/rashereire/quizforge/internal/user"
)

type authResponse struct {
	User         *user.User `json:"user"`
	SessionToken string     `json:"sessionToken"`
}

func RegisterHandler(sessions *auth.Service) http.HandlerFunc {
	type req struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
			http.Error(w, "username, email and password are required", http.StatusBadRequest)
			return
		}
		u, token, err := sessions.Register(r.Context(), auth.RegisterInput{
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Username:  in.Username,
			Email:     in.Email,
			Password:  in.Password,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, authResponse{User: u, SessionToken: token})
	}
}

func LoginHandler(sessions *auth.Service) http.HandlerFunc {
	type req struct {
		UsernameOrEmail string `json:"usernameOrEmail"`
		Password        string `json:"password"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		u, token, err := sessions.Login(r.Context(), in.UsernameOrEmail, in.Password)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, authResponse{User: u, SessionToken: token})
	}
}

func LogoutHandler(sessions *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		if err := sessions.Logout(r.Context(), token); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, UserFromContext(r.Context()))
	}
}
