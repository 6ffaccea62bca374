package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rashereire/quizforge/internal/mcq"
)

// validateMcqInput enforces the request-shape invariants the persistence
// engine assumes: 2-4 choices, exactly one correct, no blank text.
func validateMcqInput(in mcq.Input) error {
	if strings.TrimSpace(in.Title) == "" {
		return errors.New("title is required")
	}
	if strings.TrimSpace(in.QuestionText) == "" {
		return errors.New("questionText is required")
	}
	if len(in.Choices) < 2 || len(in.Choices) > 4 {
		return errors.New("an MCQ must have between 2 and 4 choices")
	}
	correct := 0
	for _, c := range in.Choices {
		if strings.TrimSpace(c.ChoiceText) == "" {
			return errors.New("choiceText is required for every choice")
		}
		if c.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return errors.New("exactly one choice must be correct")
	}
	return nil
}

func CreateMcqHandler(store *mcq.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in mcq.Input
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validateMcqInput(in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		m, err := store.Create(r.Context(), UserFromContext(r.Context()).ID, in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, m)
	}
}

func GetMcqHandler(store *mcq.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := store.GetByID(r.Context(), chi.URLParam(r, "mcqID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if m == nil {
			http.Error(w, "mcq not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func ListMcqsHandler(store *mcq.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, err := store.List(r.Context(), mcq.ListOpts{
			Page:   parseIntDefault(q.Get("page"), 1),
			Limit:  parseIntDefault(q.Get("limit"), 10),
			Search: q.Get("search"),
			UserID: q.Get("userId"),
			Sort:   q.Get("sort"),
			Order:  q.Get("order"),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func UpdateMcqHandler(store *mcq.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in mcq.Input
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validateMcqInput(in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		m, err := store.Update(r.Context(), chi.URLParam(r, "mcqID"), UserFromContext(r.Context()).ID, in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func DeleteMcqHandler(store *mcq.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.Delete(r.Context(), chi.URLParam(r, "mcqID"), UserFromContext(r.Context()).ID)
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
