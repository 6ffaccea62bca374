package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/rashereire/quizforge/internal/api/http"
	"github.com/rashereire/quizforge/internal/attempt"
	"github.com/rashereire/quizforge/internal/auth"
	"github.com/rashereire/quizforge/internal/config"
	"github.com/rashereire/quizforge/internal/db"
	"github.com/rashereire/quizforge/internal/mcq"
	"github.com/rashereire/quizforge/internal/user"
)

func main() {
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()

	users := user.NewDirectory(dbh)
	sessions := auth.NewService(dbh, users)
	mcqs := mcq.NewStore(dbh)
	attempts := attempt.NewRecorder(dbh)

	// Expired-session reaper, external to any single request.
	go func() {
		t := time.NewTicker(cfg.CleanupInterval)
		defer t.Stop()
		for range t.C {
			n, err := sessions.CleanupExpiredSessions(context.Background())
			if err != nil {
				log.Printf("session cleanup: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("session cleanup: removed %d expired sessions", n)
			}
		}
	}()

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/api/auth/register", api.RegisterHandler(sessions))
	r.Post("/api/auth/login", api.LoginHandler(sessions))
	r.Post("/api/auth/logout", api.LogoutHandler(sessions))

	r.Group(func(pr chi.Router) {
		pr.Use(api.SessionMiddleware(sessions))

		pr.Get("/api/auth/me", api.MeHandler())

		pr.Get("/api/mcqs", api.ListMcqsHandler(mcqs))
		pr.Post("/api/mcqs", api.CreateMcqHandler(mcqs))
		pr.Get("/api/mcqs/{mcqID}", api.GetMcqHandler(mcqs))
		pr.Put("/api/mcqs/{mcqID}", api.UpdateMcqHandler(mcqs))
		pr.Delete("/api/mcqs/{mcqID}", api.DeleteMcqHandler(mcqs))

		pr.Post("/api/mcqs/{mcqID}/attempts", api.RecordAttemptHandler(attempts))
		pr.Get("/api/mcqs/{mcqID}/attempts", api.ListMcqAttemptsHandler(attempts))
		pr.Get("/api/attempts", api.ListMyAttemptsHandler(attempts))
	})

	log.Printf("quizd listening on %s (driver=%s)", cfg.HTTPAddr, cfg.DBDriver)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal(err)
	}
}
