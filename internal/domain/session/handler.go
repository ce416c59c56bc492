package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/squadbook/squadbook-api/internal/middleware"
	"github.com/squadbook/squadbook-api/internal/pkg/errorhandler"
	"github.com/squadbook/squadbook-api/internal/pkg/response"
	"github.com/squadbook/squadbook-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create schedules a new session
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		errorhandler.LogValidationError(r.Context(), fieldErrors)
		response.ValidationError(w, fieldErrors)
		return
	}

	sess, err := h.svc.Create(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSchedule):
			response.BadRequest(w, "ends_at must be after starts_at and refund_window must be a valid duration")
		case errors.Is(err, ErrInvalidSlots):
			response.BadRequest(w, "total_slots must be positive")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, sess)
}

// List returns sessions, optionally filtered by status
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	status := Status(r.URL.Query().Get("status"))
	if err := validator.ValidateVar(string(status), "session_status"); err != nil {
		response.BadRequest(w, "invalid status filter")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	sessions, err := h.svc.List(r.Context(), status, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, sessions)
}

// Get returns one session
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid session id")
		return
	}

	sess, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "session not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, sess)
}

// Availability returns the cached free slot count
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid session id")
		return
	}

	available, err := h.svc.AvailableSlots(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "session not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, AvailabilityResponse{SessionID: id.String(), AvailableSlots: available})
}

// Delete soft-deletes a session
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid session id")
		return
	}

	if err := h.svc.SoftDelete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "session not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.NoContent(w)
}
