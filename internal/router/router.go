package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"concurseiro-backend/internal/handlers"
	"concurseiro-backend/internal/middleware"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	materialHandler *handlers.MaterialHandler,
	readingHandler *handlers.ReadingHandler,
	questionHandler *handlers.QuestionHandler,
	aiConfigHandler *handlers.AIConfigHandler,
	planHandler *handlers.PlanHandler,
	concursoHandler *handlers.ConcursoHandler,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── Material Routes ────
		r.Route("/materials", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/upload", materialHandler.Upload)
			r.Post("/video", materialHandler.RegisterVideo)
			r.Get("/", materialHandler.List)
			r.Get("/{id}", materialHandler.Get)
			r.Delete("/{id}", materialHandler.Delete)

			// Reading progress, scoped to a material
			r.Post("/{id}/reading-events", readingHandler.RecordEvent)
			r.Get("/{id}/progress/today", readingHandler.Today)
			r.Get("/{id}/progress/history", readingHandler.History)
			r.Post("/{id}/progress/resolve", readingHandler.ResolveProgress)
			r.Get("/{id}/sessions", readingHandler.ListSessions)
			r.Post("/{id}/sessions/merge", readingHandler.MergeSessions)

			// Question generation runs synchronously
			r.Post("/{id}/questions/generate", questionHandler.Generate)
		})

		// ──── File Proxy ────
		r.Route("/files", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{userID}/{filename}", materialHandler.ServeFile)
		})

		// ──── Question Session Routes ────
		r.Route("/question-sessions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", questionHandler.ListSessions)
			r.Get("/{id}", questionHandler.GetSession)
			r.Delete("/{id}", questionHandler.DeleteSession)
		})

		// ──── AI Config Routes ────
		r.Route("/ai-config", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", aiConfigHandler.Get)
			r.Put("/", aiConfigHandler.Update)
		})

		// ──── Study Plan Routes ────
		r.Route("/plans", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", planHandler.Create)
			r.Get("/", planHandler.List)
			r.Get("/{id}", planHandler.Get)
			r.Get("/{id}/summary", planHandler.Summary)
			r.Post("/progress/time", planHandler.AddStudyTime)
			r.Post("/progress/questions", planHandler.AddQuestions)
			r.Post("/allocations/{id}/reset", planHandler.ResetAlloc)
			r.Put("/allocations/{id}/complete", planHandler.SetAllocCompleted)
		})

		// ──── Concurso Routes ────
		r.Route("/concursos", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", concursoHandler.Create)
			r.Get("/", concursoHandler.List)
			r.Get("/{id}", concursoHandler.Get)
			r.Delete("/{id}", concursoHandler.Delete)
		})
	})

	return r
}
