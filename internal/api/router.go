package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/session", apiHandler.CreateSessionHandler)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Upstream proxies
		r.Post("/search", apiHandler.SearchHandler)
		r.Post("/generate", apiHandler.GenerateHandler)

		// Session-scoped routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)

			r.Get("/conversations", apiHandler.ListConversationsHandler)
			r.Post("/conversations", apiHandler.NewConversationHandler)
			r.Get("/conversations/active", apiHandler.GetActiveConversationHandler)
			r.Post("/conversations/{conversationID}/activate", apiHandler.ActivateConversationHandler)

			r.Post("/messages", apiHandler.PostMessageHandler)
		})
	})

	return r
}
