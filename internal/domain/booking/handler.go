package booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/squadbook/squadbook-api/internal/domain/ledger"
	"github.com/squadbook/squadbook-api/internal/domain/session"
	"github.com/squadbook/squadbook-api/internal/middleware"
	"github.com/squadbook/squadbook-api/internal/pkg/errorhandler"
	"github.com/squadbook/squadbook-api/internal/pkg/response"
	"github.com/squadbook/squadbook-api/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Join handles POST /sessions/{id}/join.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid session ID")
		return
	}

	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	p, err := h.service.Join(r.Context(), sessionID, userID)
	if err != nil {
		h.handleJoinError(w, r, err)
		return
	}

	response.Created(w, p)
}

func (h *Handler) handleJoinError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		response.NotFound(w, "Session not found")
	case errors.Is(err, ErrSessionNotJoinable):
		response.Conflict(w, "SESSION_NOT_JOINABLE", "Session is not accepting participants")
	case errors.Is(err, ErrSessionFull):
		response.Conflict(w, "SESSION_FULL", "Session has no free slots")
	case errors.Is(err, ErrAlreadyJoined):
		response.Conflict(w, "ALREADY_JOINED", "You already hold a slot in this session")
	case errors.Is(err, ledger.ErrInsufficientCredit):
		response.Conflict(w, "INSUFFICIENT_CREDIT", "Not enough credit to join this session")
	case errors.Is(err, ErrConcurrentModification):
		response.Conflict(w, "CONCURRENT_MODIFICATION", "Session is busy, please retry")
	default:
		errorhandler.LogDatabaseError(r.Context(), "join session", err)
		response.InternalError(w)
	}
}

// Leave handles POST /sessions/{id}/leave.
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid session ID")
		return
	}

	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req LeaveRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request body")
			return
		}
		if fieldErrors := validator.Validate(req); fieldErrors != nil {
			response.ValidationError(w, fieldErrors)
			return
		}
	}

	p, err := h.service.Leave(r.Context(), sessionID, userID, req.Reason)
	if err != nil {
		h.handleLeaveError(w, r, err)
		return
	}

	response.OK(w, p)
}

func (h *Handler) handleLeaveError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		response.NotFound(w, "Session not found")
	case errors.Is(err, ErrNotParticipating):
		response.Conflict(w, "NOT_PARTICIPATING", "You do not hold an active slot in this session")
	case errors.Is(err, ErrSessionClosed):
		response.Conflict(w, "SESSION_CLOSED", "Session already took place")
	case errors.Is(err, ErrConcurrentModification):
		response.Conflict(w, "CONCURRENT_MODIFICATION", "Session is busy, please retry")
	default:
		errorhandler.LogDatabaseError(r.Context(), "leave session", err)
		response.InternalError(w)
	}
}

// CancelSession handles POST /admin/sessions/{id}/cancel.
func (h *Handler) CancelSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid session ID")
		return
	}

	if err := h.service.CancelSession(r.Context(), sessionID); err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			response.NotFound(w, "Session not found")
		case errors.Is(err, session.ErrNotCancellable):
			response.Conflict(w, "SESSION_NOT_CANCELLABLE", "Only scheduled sessions can be cancelled")
		case errors.Is(err, ErrConcurrentModification):
			response.Conflict(w, "CONCURRENT_MODIFICATION", "Session is busy, please retry")
		default:
			errorhandler.LogDatabaseError(r.Context(), "cancel session", err)
			response.InternalError(w)
		}
		return
	}

	response.OK(w, map[string]string{"status": "cancelled"})
}

// MyParticipations handles GET /participations.
func (h *Handler) MyParticipations(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, offset := parsePagination(r)
	participations, err := h.service.MyParticipations(r.Context(), userID, limit, offset)
	if err != nil {
		errorhandler.LogDatabaseError(r.Context(), "list participations", err)
		response.InternalError(w)
		return
	}

	response.OK(w, participations)
}

// SessionParticipants handles GET /sessions/{id}/participants.
func (h *Handler) SessionParticipants(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid session ID")
		return
	}

	participations, err := h.service.SessionParticipants(r.Context(), sessionID)
	if err != nil {
		errorhandler.LogDatabaseError(r.Context(), "list session participants", err)
		response.InternalError(w)
		return
	}

	response.OK(w, participations)
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit, offset = 20, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
