// Package httpapi wires the HTTP routes and middleware chain.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"server/internal/http/handlers"
	"server/internal/infra/geoip"
	"server/internal/middleware"
)

// NewRouter builds the application router. Authentication, locale resolution
// and rate limiting apply to the /v1 API; health and metrics stay open.
func NewRouter(app *handlers.App, logger zerolog.Logger, resolver geoip.CountryResolver, limiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", app.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.AuthJWT(app.Config.JWTSecret))
		r.Use(middleware.Locale(resolver, app.Config.DefaultLocale))
		r.Use(limiter.Middleware)

		r.Route("/chats", func(r chi.Router) {
			r.Post("/", app.CreateChat)
			r.Get("/", app.ListChats)
			r.Route("/{chatID}", func(r chi.Router) {
				r.Get("/", app.GetChat)
				r.Delete("/", app.DeleteChat)
				r.Post("/messages", app.SendMessage)
			})
		})

		r.Get("/usage/stats", app.UsageStats)
	})

	return r
}
