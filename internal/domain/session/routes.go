package session

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns session routes. Join/leave/cancel live with the reservation
// coordinator and are mounted alongside these in main.
func (h *Handler) Routes(authMiddleware, organizerMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/availability", h.Availability)

	r.With(organizerMiddleware).Post("/", h.Create)
	r.With(adminMiddleware).Delete("/{id}", h.Delete)

	return r
}
