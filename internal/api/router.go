package api

import (
	"net/http"
	"time"

	"codele_backend/internal/api/handler"
	"codele_backend/internal/api/middleware"
	"codele_backend/internal/app/service"
	"codele_backend/internal/app/worker"
	"codele_backend/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	problemService *service.ProblemService,
	themeService *service.ThemeService,
	scheduleService *service.ScheduleService,
	generationService *service.GenerationService,
	generationWorker *worker.GenerationWorker,
	rateLimiter *middleware.RateLimiter,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger) // Chi's logger
	r.Use(chiMiddleware.Recoverer)

	// Verifies the token when present, puts claims in context.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		// Auth routes (public)
		authHandler := handler.NewAuthHandler(authService)
		v1.Group(func(publicAuth chi.Router) {
			authHandler.RegisterRoutes(publicAuth)
		})

		// Public content routes, rate limited
		problemHandler := handler.NewProblemHandler(problemService)
		calendarHandler := handler.NewCalendarHandler(problemService)
		themeHandler := handler.NewThemeHandler(themeService)
		v1.Group(func(public chi.Router) {
			public.Use(chiMiddleware.Timeout(60 * time.Second))
			public.Use(rateLimiter.Handler)
			public.Route("/problem", problemHandler.RegisterRoutes)
			public.Route("/calendar", calendarHandler.RegisterRoutes)
			public.Route("/themes", themeHandler.RegisterRoutes)
		})

		// Admin routes (authenticated, admin role)
		adminHandler := handler.NewAdminHandler(generationService, generationWorker, problemService, themeService, scheduleService)
		v1.Route("/admin", func(admin chi.Router) {
			// Synchronous generation waits on the LLM agent, so the
			// admin surface gets a much longer budget than public reads.
			admin.Use(chiMiddleware.Timeout(10 * time.Minute))
			admin.Use(middleware.Authenticator)
			admin.Use(middleware.AdminOnly)
			adminHandler.RegisterRoutes(admin)
		})
	})

	return r
}
