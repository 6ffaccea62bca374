package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rashereire/quizforge/internal/attempt"
	"github.com/rashereire/quizforge/internal/auth"
	"github.com/rashereire/quizforge/internal/mcq"
	"github.com/rashereire/quizforge/internal/user"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps core errors onto HTTP statuses. Anything unrecognized,
// including consistency violations, is an internal error.
func writeError(w http.ResponseWriter, err error) {
	var perm *mcq.PermissionError
	switch {
	case errors.Is(err, user.ErrDuplicateUsername), errors.Is(err, user.ErrDuplicateEmail):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, auth.ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.As(err, &perm):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, attempt.ErrChoiceNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, attempt.ErrChoiceMismatch):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
