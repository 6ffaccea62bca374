package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/rashereire/quizforge/internal/attempt"
	"github.com/rashereire/quizforge/internal/auth"
	"github.com/rashereire/quizforge/internal/db"
	"github.com/rashereire/quizforge/internal/mcq"
	"github.com/rashereire/quizforge/internal/user"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	d, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	sessions := auth.NewService(d, user.NewDirectory(d))
	mcqs := mcq.NewStore(d)
	attempts := attempt.NewRecorder(d)

	r := chi.NewRouter()
	r.Post("/api/auth/register", RegisterHandler(sessions))
	r.Post("/api/auth/login", LoginHandler(sessions))
	r.Post("/api/auth/logout", LogoutHandler(sessions))
	r.Group(func(pr chi.Router) {
		pr.Use(SessionMiddleware(sessions))
		pr.Get("/api/auth/me", MeHandler())
		pr.Post("/api/mcqs", CreateMcqHandler(mcqs))
		pr.Put("/api/mcqs/{mcqID}", UpdateMcqHandler(mcqs))
		pr.Delete("/api/mcqs/{mcqID}", DeleteMcqHandler(mcqs))
		pr.Post("/api/mcqs/{mcqID}/attempts", RecordAttemptHandler(attempts))
	})
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, h http.Handler, username string) (userID, token string) {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"firstName": "Jane", "lastName": "Doe",
		"username": username, "email": username + "@example.com",
		"password": "s3cret-password",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d: %s", username, w.Code, w.Body.String())
	}
	var out struct {
		User         map[string]any `json:"user"`
		SessionToken string         `json:"sessionToken"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return out.User["id"].(string), out.SessionToken
}

func validMcqBody() map[string]any {
	return map[string]any{
		"title":        "Capitals",
		"questionText": "Capital of France?",
		"choices": []map[string]any{
			{"choiceText": "Paris", "isCorrect": true, "displayOrder": 0},
			{"choiceText": "Lyon", "isCorrect": false, "displayOrder": 1},
		},
	}
}

func TestRegisterMeLogoutFlow(t *testing.T) {
	h := newTestRouter(t)
	_, token := register(t, h, "johndoe")

	w := doJSON(t, h, http.MethodGet, "/api/auth/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: status %d", w.Code)
	}
	var profile map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if profile["username"] != "johndoe" {
		t.Fatalf("me = %v", profile)
	}
	for _, k := range []string{"password", "passwordHash", "password_hash"} {
		if _, leaked := profile[k]; leaked {
			t.Fatalf("profile leaks %q", k)
		}
	}

	if w := doJSON(t, h, http.MethodPost, "/api/auth/logout", token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("logout: status %d", w.Code)
	}
	if w := doJSON(t, h, http.MethodGet, "/api/auth/me", token, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: status %d, want 401", w.Code)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newTestRouter(t)
	register(t, h, "johndoe")

	for _, body := range []map[string]string{
		{"usernameOrEmail": "ghost", "password": "whatever"},
		{"usernameOrEmail": "johndoe", "password": "wrong"},
	} {
		w := doJSON(t, h, http.MethodPost, "/api/auth/login", "", body)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("login %v: status %d, want 401", body, w.Code)
		}
	}
}

func TestCreateMcqValidatesShape(t *testing.T) {
	h := newTestRouter(t)
	_, token := register(t, h, "johndoe")

	cases := []struct {
		name   string
		mutate func(m map[string]any)
	}{
		{"one choice", func(m map[string]any) {
			m["choices"] = []map[string]any{{"choiceText": "A", "isCorrect": true, "displayOrder": 0}}
		}},
		{"five choices", func(m map[string]any) {
			cs := []map[string]any{}
			for i := 0; i < 5; i++ {
				cs = append(cs, map[string]any{"choiceText": "c", "isCorrect": i == 0, "displayOrder": i})
			}
			m["choices"] = cs
		}},
		{"no correct choice", func(m map[string]any) {
			m["choices"] = []map[string]any{
				{"choiceText": "A", "isCorrect": false, "displayOrder": 0},
				{"choiceText": "B", "isCorrect": false, "displayOrder": 1},
			}
		}},
		{"two correct choices", func(m map[string]any) {
			m["choices"] = []map[string]any{
				{"choiceText": "A", "isCorrect": true, "displayOrder": 0},
				{"choiceText": "B", "isCorrect": true, "displayOrder": 1},
			}
		}},
		{"missing title", func(m map[string]any) { m["title"] = " " }},
	}
	for _, tc := range cases {
		body := validMcqBody()
		tc.mutate(body)
		w := doJSON(t, h, http.MethodPost, "/api/mcqs", token, body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d, want 400", tc.name, w.Code)
		}
	}

	w := doJSON(t, h, http.MethodPost, "/api/mcqs", token, validMcqBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("valid mcq: status %d: %s", w.Code, w.Body.String())
	}
}

func TestNonOwnerMutationsAreForbidden(t *testing.T) {
	h := newTestRouter(t)
	_, ownerToken := register(t, h, "owner")
	_, intruderToken := register(t, h, "intruder")

	w := doJSON(t, h, http.MethodPost, "/api/mcqs", ownerToken, validMcqBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status %d", w.Code)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	if w := doJSON(t, h, http.MethodPut, "/api/mcqs/"+created.ID, intruderToken, validMcqBody()); w.Code != http.StatusForbidden {
		t.Fatalf("intruder update: status %d, want 403", w.Code)
	}
	if w := doJSON(t, h, http.MethodDelete, "/api/mcqs/"+created.ID, intruderToken, nil); w.Code != http.StatusForbidden {
		t.Fatalf("intruder delete: status %d, want 403", w.Code)
	}
}

func TestRecordAttemptStatusMapping(t *testing.T) {
	h := newTestRouter(t)
	_, token := register(t, h, "johndoe")

	w := doJSON(t, h, http.MethodPost, "/api/mcqs", token, validMcqBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status %d", w.Code)
	}
	var created struct {
		ID      string `json:"id"`
		Choices []struct {
			ID        string `json:"id"`
			IsCorrect bool   `json:"isCorrect"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	// Unknown choice id: 404.
	w = doJSON(t, h, http.MethodPost, "/api/mcqs/"+created.ID+"/attempts", token,
		map[string]string{"choiceId": "no-such-choice"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown choice: status %d, want 404", w.Code)
	}

	// Choice from another MCQ: 400.
	w = doJSON(t, h, http.MethodPost, "/api/mcqs/some-other-mcq/attempts", token,
		map[string]string{"choiceId": created.Choices[0].ID})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("mismatched choice: status %d, want 400", w.Code)
	}

	// Happy path: 201 with snapshotted correctness.
	w = doJSON(t, h, http.MethodPost, "/api/mcqs/"+created.ID+"/attempts", token,
		map[string]string{"choiceId": created.Choices[0].ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("record: status %d: %s", w.Code, w.Body.String())
	}
	var a struct {
		IsCorrect bool `json:"isCorrect"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &a); err != nil {
		t.Fatalf("decode attempt: %v", err)
	}
	if a.IsCorrect != created.Choices[0].IsCorrect {
		t.Fatal("attempt correctness does not match the selected choice")
	}
}
