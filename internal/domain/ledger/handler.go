package ledger

import (
	"bytes"
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

// Balance returns the acting user's credit balance
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	balance, err := h.svc.Balance(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, BalanceResponse{UserID: userID, Balance: balance})
}

// Entries returns the acting user's paginated ledger history
func (h *Handler) Entries(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	kind := r.URL.Query().Get("kind")
	if err := validator.ValidateVar(kind, "omitempty,entry_kind"); err != nil {
		response.BadRequest(w, "invalid kind filter")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.svc.Entries(r.Context(), userID, EntryKind(kind), limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, entries)
}

// Audit returns the acting user's full ordered ledger
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	entries, err := h.svc.Audit(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrLedgerDrift) {
			errorhandler.HandleError(r.Context(), w, http.StatusConflict, "LEDGER_DRIFT", "ledger requires reconciliation", err)
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, entries)
}

// AdminAdjust applies a signed administrative adjustment to a user's balance
func (h *Handler) AdminAdjust(w http.ResponseWriter, r *http.Request) {
	var req AdminAdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		errorhandler.LogValidationError(r.Context(), fieldErrors)
		response.ValidationError(w, fieldErrors)
		return
	}

	if err := h.svc.AdminAdjust(r.Context(), req.UserID, req.Delta, req.Reason); err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "delta must be non-zero")
		case errors.Is(err, ErrInsufficientCredit):
			response.Conflict(w, "INSUFFICIENT_CREDIT", "adjustment would drive balance negative")
		default:
			response.InternalError(w)
		}
		return
	}

	balance, err := h.svc.Balance(r.Context(), req.UserID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, BalanceResponse{UserID: req.UserID, Balance: balance})
}

// Reconcile checks every cached balance against the ledger
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	drifts, err := h.svc.Reconcile(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{
		"consistent": len(drifts) == 0,
		"drifts":     drifts,
	})
}

// AuditCSV streams a user's ordered ledger as a CSV download
func (h *Handler) AuditCSV(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid user id")
		return
	}

	// Buffer before touching headers so a failed audit still gets a real
	// error status instead of a 200 with a truncated body.
	var buf bytes.Buffer
	if err := h.svc.WriteCSV(r.Context(), userID, &buf); err != nil {
		if errors.Is(err, ErrLedgerDrift) {
			errorhandler.HandleError(r.Context(), w, http.StatusConflict, "LEDGER_DRIFT", "ledger requires reconciliation", err)
			return
		}
		errorhandler.LogDatabaseError(r.Context(), "ledger csv export", err)
		response.InternalError(w)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="ledger.csv"`)
	w.Write(buf.Bytes())
}

// Export uploads a user's ledger CSV to object storage
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid user id")
		return
	}

	key, err := h.svc.Export(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrLedgerDrift) {
			errorhandler.HandleError(r.Context(), w, http.StatusConflict, "LEDGER_DRIFT", "ledger requires reconciliation", err)
			return
		}
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "EXPORT_FAILED", "failed to upload ledger export", err)
		return
	}

	response.OK(w, ExportResponse{Key: key})
}
