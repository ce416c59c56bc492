package booking

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterSessionRoutes adds the reservation endpoints to the session router.
// The session router already applies auth.
func (h *Handler) RegisterSessionRoutes(r chi.Router) {
	r.Post("/{id}/join", h.Join)
	r.Post("/{id}/leave", h.Leave)
	r.Get("/{id}/participants", h.SessionParticipants)
}

// Routes mounts the acting user's participation listing.
func (h *Handler) Routes(auth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth)

	r.Get("/", h.MyParticipations)

	return r
}

// AdminRoutes mounts the administrative session-cancel endpoint.
func (h *Handler) AdminRoutes(auth, admin func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth)
	r.Use(admin)

	r.Post("/{id}/cancel", h.CancelSession)

	return r
}
