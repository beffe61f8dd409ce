package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"edu-platform/internal/auth"
	"edu-platform/internal/config"
	"edu-platform/internal/handler"
	"edu-platform/internal/middleware"
	"edu-platform/pkg/envelope"
)

type Handlers struct {
	Health *handler.HealthHandler
	Email  *handler.EmailHandler
	Auth   *handler.AuthHandler
	TestDB *handler.TestDBHandler
}

func New(cfg *config.Config, responder *envelope.Responder, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM, cfg.TrustedProxies)

	r.Use(middleware.Logging)
	r.Use(middleware.Recovery(responder))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Deadline(cfg.RequestTimeout))

		api.Get("/health", h.Health.Check)
		api.Post("/email", h.Email.Send)

		api.Route("/auth", func(a chi.Router) {
			a.Post("/login", h.Auth.Login)
			a.Post("/logout", h.Auth.Logout)
			a.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Me)
		})

		api.With(
			authMiddleware.RequireAuth,
			authMiddleware.RequirePermission(auth.PermissionDiagnostics),
		).Get("/testdb", h.TestDB.Counts)
	})

	return r
}
