package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rashereire/quizforge/internal/attempt"
)

func RecordAttemptHandler(rec *attempt.Recorder) http.HandlerFunc {
	type req struct {
		ChoiceID string `json:"choiceId"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if in.ChoiceID == "" {
			http.Error(w, "choiceId is required", http.StatusBadRequest)
			return
		}
		a, err := rec.Record(r.Context(), UserFromContext(r.Context()).ID, chi.URLParam(r, "mcqID"), in.ChoiceID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

// ListMcqAttemptsHandler lists attempts for one MCQ; ?mine=1 narrows the
// result to the caller's own attempts.
func ListMcqAttemptsHandler(rec *attempt.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := ""
		if r.URL.Query().Get("mine") == "1" {
			userID = UserFromContext(r.Context()).ID
		}
		list, err := rec.ListByMcq(r.Context(), chi.URLParam(r, "mcqID"), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func ListMyAttemptsHandler(rec *attempt.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := rec.ListByUser(r.Context(), UserFromContext(r.Context()).ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
