package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/matchday-leads/internal/infra/http/middleware"
)

type Routes struct {
	Events         *EventHandler
	Leads          *LeadHandler
	Quotes         *QuoteHandler
	Verification   *VerificationHandler
	Health         *HealthHandler
	IntakeLimiter  *IPRateLimiter
	AllowedOrigins []string
}

func NewRouter(rt Routes) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", rt.Health.Handle)

		r.Route("/events", func(r chi.Router) {
			r.Get("/", rt.Events.List)
			r.Get("/{id}", rt.Events.Get)
		})

		r.Route("/leads", func(r chi.Router) {
			r.With(limited(rt.IntakeLimiter)).Post("/", rt.Leads.Create)
			r.Get("/", rt.Leads.List)
			r.Get("/{id}", rt.Leads.Get)
			r.Patch("/{id}/status", rt.Leads.UpdateStatus)
			r.Get("/{id}/history", rt.Leads.History)
			r.Get("/{id}/next-statuses", rt.Leads.NextStatuses)
		})

		r.Route("/quotes", func(r chi.Router) {
			r.Post("/preview", rt.Quotes.Preview)
			r.Post("/generate", rt.Quotes.Generate)
			r.Post("/{id}/respond", rt.Quotes.Respond)
			r.Get("/{id}/accept", rt.Quotes.Accept)
			r.Get("/{id}/decline", rt.Quotes.Decline)
		})

		r.Route("/verify-email", func(r chi.Router) {
			r.With(limited(rt.IntakeLimiter)).Post("/send", rt.Verification.Send)
			r.Get("/{token}", rt.Verification.Confirm)
		})
	})

	return r
}

func limited(rl *IPRateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Middleware
}
