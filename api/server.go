/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers;
  all commission semantics live in the sales package.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the admin frontend

ROUTE GROUPS:
  /api/agents/*      Sales directory and per-agent statistics
  /api/orders/*      Order lifecycle and reminders
  /api/leaderboard   Cross-agent aggregate with exclusion overlay
  /api/exclusions/*  Exclusion-list administration

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/commission-engine/sales"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Sales directory
		r.Route("/agents", func(r chi.Router) {
			r.Get("/", h.ListAgents)
			r.Post("/", h.RegisterAgent)
			r.Get("/{code}", h.GetAgent)
			r.Put("/{code}", h.UpdateAgent)
			r.Get("/{code}/orders", h.ListAgentOrders)
			r.Get("/{code}/stats", h.GetAgentStats)
		})

		// Orders and lifecycle
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Post("/", h.CreateOrder)
			r.Get("/reminders", h.ListReminders)
			r.Get("/{id}", h.GetOrder)
			r.Post("/{id}/confirm-payment", h.transitionHandler(sales.StatusConfirmedPayment))
			r.Post("/{id}/begin-config", h.transitionHandler(sales.StatusPendingConfig))
			r.Post("/{id}/confirm-config", h.transitionHandler(sales.StatusConfirmedConfig))
			r.Post("/{id}/activate", h.transitionHandler(sales.StatusActive))
			r.Post("/{id}/cancel", h.transitionHandler(sales.StatusCancelled))
			r.Post("/{id}/reject", h.transitionHandler(sales.StatusRejected))
			r.Post("/{id}/remind-ack", h.AcknowledgeReminder)
		})

		// Cross-agent aggregate
		r.Get("/leaderboard", h.GetLeaderboard)

		// Exclusion administration
		r.Route("/exclusions", func(r chi.Router) {
			r.Get("/", h.ListExclusions)
			r.Post("/", h.SetExclusion)
			r.Delete("/{code}", h.RemoveExclusion)
		})

		// Demo data
		r.Post("/seed", h.SeedDemo)
	})

	return r
}
