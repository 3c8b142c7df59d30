package httpserver

import (
	"net/http"

	"lv-tradecore/internal/health"
	"lv-tradecore/internal/marketdata"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterDeps struct {
	MarketHandler *marketdata.Handler
	HealthHandler *health.Handler
	Metrics       http.Handler
	Limiter       *RateLimiter
	InternalToken string
	AllowedOrigin string
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(CORS(d.AllowedOrigin))
	r.Use(SecurityHeaders)

	r.Get("/health", d.HealthHandler.Ready)
	r.Get("/health/live", d.HealthHandler.Live)
	r.Get("/health/ready", d.HealthHandler.Ready)
	r.Get("/health/full", d.HealthHandler.Full)
	if d.Metrics != nil {
		r.With(InternalAuth(d.InternalToken)).Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/v1/prices", func(r chi.Router) {
		r.Get("/ws", d.MarketHandler.Stream.ServeHTTP)
		r.Group(func(r chi.Router) {
			if d.Limiter != nil {
				r.Use(d.Limiter.Middleware)
			}
			r.Get("/instruments", d.MarketHandler.Instruments)
			r.Post("/batch", d.MarketHandler.Batch)
			r.Get("/{symbol}", d.MarketHandler.Price)
		})
	})
	return r
}
