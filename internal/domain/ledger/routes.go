package ledger

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns user-facing ledger routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/balance", h.Balance)
	r.Get("/entries", h.Entries)
	r.Get("/audit", h.Audit)

	return r
}

// AdminRoutes returns admin-only ledger routes
func (h *Handler) AdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(adminMiddleware)

	r.Post("/adjust", h.AdminAdjust)
	r.Post("/reconcile", h.Reconcile)
	r.Get("/users/{id}/audit.csv", h.AuditCSV)
	r.Post("/users/{id}/export", h.Export)

	return r
}
