/**
 * @description
 * This file sets up the HTTP router using the go-chi/chi router. It defines
 * the webhook and user-management routes, applies middleware for logging,
 * panic containment and CORS, and exposes the liveness routes the platform
 * probes.
 */
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new Chi router and registers all service routes.
func NewRouter(webhooks *WebhookHandler, users *UserHandler, allowedOrigins string) *chi.Mux {
	r := chi.NewRouter()

	// Setup middleware
	r.Use(middleware.Logger)
	r.Use(recovererJSON)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: splitOrigins(allowedOrigins),
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Cakto-Signature"},
		MaxAge:         300,
	}))

	// Liveness routes
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"message": "NutraFlex Backend API is running",
		})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"service": "nutraflex-backend",
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/webhook", func(r chi.Router) {
			r.Post("/cakto", webhooks.HandleCakto)
			r.Get("/test", webhooks.HandleTest)
			r.Get("/info", webhooks.HandleInfo)
			r.Post("/simulate-payment", webhooks.HandleSimulatePayment)
			r.Post("/test-extraction", webhooks.HandleTestExtraction)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", users.HandleListUsers)
			r.Post("/", users.HandleCreateUser)
			r.Get("/{id}", users.HandleGetUser)
			r.Put("/{id}", users.HandleUpdateUser)
			r.Delete("/{id}", users.HandleDeleteUser)
		})
		r.Post("/create-admin", users.HandleCreateAdmin)
	})

	return r
}

func splitOrigins(allowedOrigins string) []string {
	if allowedOrigins == "" || allowedOrigins == "*" {
		return []string{"*"}
	}
	parts := strings.Split(allowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if origin := strings.TrimSpace(p); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
