package purchase

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/squadbook/squadbook-api/internal/domain/ledger"
	"github.com/squadbook/squadbook-api/internal/pkg/errorhandler"
	"github.com/squadbook/squadbook-api/internal/pkg/response"
	"github.com/squadbook/squadbook-api/internal/pkg/signature"
	"github.com/squadbook/squadbook-api/internal/pkg/validator"
)

const maxWebhookBody = 64 << 10

// Handler receives purchase notifications from the payment collaborator.
type Handler struct {
	ledger *ledger.Service
	secret string
}

func NewHandler(ledgerService *ledger.Service, secret string) *Handler {
	return &Handler{ledger: ledgerService, secret: secret}
}

// Webhook handles POST /webhooks/purchases. The collaborator signs the raw
// body with HMAC-SHA256 and sends the hex digest in X-Signature. Redelivered
// notifications are acknowledged without a second credit.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	// An empty secret would let anyone sign their own payload. Fail closed
	// until PURCHASE_WEBHOOK_SECRET is configured.
	if h.secret == "" {
		log.Warn().Str("remote_addr", r.RemoteAddr).Msg("purchase webhook secret not configured, rejecting")
		response.Unauthorized(w, "Webhook not configured")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(w, "Cannot read request body")
		return
	}

	if !signature.Verify(h.secret, body, r.Header.Get("X-Signature")) {
		log.Warn().Str("remote_addr", r.RemoteAddr).Msg("purchase webhook signature mismatch")
		response.Unauthorized(w, "Invalid signature")
		return
	}

	var req WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	if err := h.ledger.Purchase(r.Context(), userID, req.Amount, req.Reference); err != nil {
		errorhandler.LogDatabaseError(r.Context(), "purchase credit", err)
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]string{"status": "accepted"})
}

// Routes returns webhook routes. No auth middleware, the signature is the
// authentication.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Webhook)
	return r
}
