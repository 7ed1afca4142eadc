package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires all routes and middleware.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", h.Health)
	r.Get("/readyz", h.Ready)

	r.Route("/api", func(r chi.Router) {
		r.Route("/approvals", func(r chi.Router) {
			r.Get("/", h.ListApprovals)
			r.Post("/", h.SubmitApproval)
		})

		r.Route("/months", func(r chi.Router) {
			r.Get("/unapproved", h.ListUnapprovedMonths)
			r.Get("/{month}/summary", h.GetMonthSummary)
			r.Get("/{month}/details", h.GetMonthDetails)
		})

		r.Post("/import", h.TriggerImport)
		r.Post("/aggregate", h.TriggerAggregate)
		r.Post("/reports", h.GenerateReport)
	})

	return r
}
