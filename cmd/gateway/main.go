package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/assess-hub/assesshub-backend/internal/api/http"
	"github.com/assess-hub/assesshub-backend/internal/attempt"
	"github.com/assess-hub/assesshub-backend/internal/audit"
	authmw "github.com/assess-hub/assesshub-backend/internal/auth/middleware"
	"github.com/assess-hub/assesshub-backend/internal/blob"
	"github.com/assess-hub/assesshub-backend/internal/config"
	"github.com/assess-hub/assesshub-backend/internal/exam"
	"github.com/assess-hub/assesshub-backend/internal/grading"
	"github.com/assess-hub/assesshub-backend/internal/identity"
	"github.com/assess-hub/assesshub-backend/internal/rbac"
	"github.com/assess-hub/assesshub-backend/internal/storage"
)

func main() {
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// --- Stores ---
	// The durable store is optional at startup: with it unreachable (or left on the
	// placeholder URI) every operation routes to the in-process fallback.
	var durable storage.Backend
	client, err := storage.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		log.Printf("durable store unavailable, running on fallback store: %v", err)
		client = nil
	} else {
		mb := storage.NewMongoBackend(client.Database(cfg.MongoDBName))
		if err := mb.EnsureIndexes(ctx); err != nil {
			log.Fatalf("ensure indexes: %v", err)
		}
		durable = mb
	}
	sel := storage.NewSelector(durable, storage.NewMemoryBackend(), storage.MongoProbe(client, cfg.MongoURI))

	// --- Audit log ---
	auditDB, err := audit.Open(ctx, audit.Driver(cfg.AuditDriver), cfg.AuditDSN)
	if err != nil {
		log.Printf("audit log disabled: %v", err)
	}
	events := audit.NewRecorder(auditDB, audit.Driver(cfg.AuditDriver))

	// --- Blob store ---
	bs, err := blob.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Services ---
	authSvc := authmw.NewAuthService(cfg.AuthSecret)
	resolver := identity.NewResolver(authSvc, sel)
	resolver.AllowLegacy = cfg.AllowLegacyTokens
	resolver.AllowRoleFallback = cfg.AllowRoleFallback

	catalog := exam.NewCatalog(sel)
	tracker := attempt.NewTracker(sel, events)
	engine := grading.NewEngine(sel, events, cfg.SubmissionCap)

	// --- Router ---
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

	r.Post("/auth/login", api.LoginHandler(authSvc, sel))
	r.Post("/auth/register", api.RegisterHandler(authSvc, sel))

	// Protected API (resolved identity -> role in context -> RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.ResolveMiddleware(resolver))

		pr.With(rbac.Require("exam:view")).
			Get("/exams", api.ListExamsHandler(catalog, sel))
		pr.With(rbac.Require("exam:view")).
			Get("/exams/{examID}", api.GetExamHandler(catalog))
		pr.With(rbac.Require("exam:create")).
			Post("/exams", api.CreateExamHandler(catalog))
		pr.With(rbac.Require("exam:update")).
			Put("/exams/{examID}", api.UpdateExamHandler(catalog))
		pr.With(rbac.Require("exam:publish")).
			Post("/exams/{examID}/publish", api.PublishExamHandler(catalog))

		pr.With(rbac.Require("attempt:start")).
			Post("/attempts/start/{examID}", api.StartAttemptHandler(tracker))
		pr.With(rbac.Require("attempt:status")).
			Get("/attempts/status/{examID}", api.AttemptStatusHandler(tracker))
		pr.With(rbac.Require("attempt:complete")).
			Post("/attempts/complete/{attemptID}", api.CompleteAttemptHandler(tracker))

		pr.With(rbac.Require("submission:create")).
			Post("/submissions", api.CreateSubmissionHandler(engine))
		pr.With(rbac.Require("submission:view-all")).
			Get("/submissions/pending", api.PendingSubmissionsHandler(engine))
		pr.With(rbac.RequireAny("submission:view-own", "submission:view-all")).
			Get("/submissions", api.ListSubmissionsHandler(engine))
		pr.With(rbac.RequireAny("submission:view-own", "submission:view-all")).
			Get("/submissions/{submissionID}", api.GetSubmissionHandler(engine))
		pr.With(rbac.Require("submission:evaluate")).
			Patch("/submissions/{submissionID}/evaluate", api.EvaluateSubmissionHandler(engine))
		pr.With(rbac.Require("submission:status")).
			Patch("/submissions/{submissionID}/status", api.SubmissionStatusHandler(engine))

		pr.With(rbac.RequireAny("speech:score", "submission:create")).
			Post("/speech/score", api.SpeechScoreHandler())

		pr.With(rbac.Require("asset:upload")).
			Post("/assets/voice", api.UploadVoiceHandler(bs))
		pr.With(rbac.RequireAny("asset:upload", "submission:view-all")).
			Get("/assets/*", api.DownloadAssetHandler(bs))

		pr.With(rbac.Require("users:manage")).
			Post("/users", api.CreateUserHandler(sel))
		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(sel))
		pr.With(rbac.Require("users:manage")).
			Delete("/users/{userID}", api.DeactivateUserHandler(sel))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, durable=%v)", cfg.HTTPAddr, cfg.Mode, durable != nil)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
