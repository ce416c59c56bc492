package purchase

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/squadbook/squadbook-api/internal/pkg/signature"
)

const testSecret = "test-webhook-secret"

func postWebhook(h *Handler, body []byte, sig string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/purchases", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sig != "" {
		req.Header.Set("X-Signature", sig)
	}
	rr := httptest.NewRecorder()
	h.Webhook(rr, req)
	return rr
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	h := NewHandler(nil, testSecret)

	body, _ := json.Marshal(WebhookRequest{UserID: "7c9e6679-7425-40de-944b-e07fc1f90ae7", Amount: 10, Reference: "tx-1"})
	rr := postWebhook(h, body, "")

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestWebhookRejectsWhenSecretUnset(t *testing.T) {
	h := NewHandler(nil, "")

	// With no configured secret anyone could sign their own payload, so the
	// endpoint must fail closed even for a "matching" empty-secret digest.
	body, _ := json.Marshal(WebhookRequest{UserID: "7c9e6679-7425-40de-944b-e07fc1f90ae7", Amount: 10, Reference: "tx-1"})
	rr := postWebhook(h, body, signature.Sign("", body))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestWebhookRejectsTamperedBody(t *testing.T) {
	h := NewHandler(nil, testSecret)

	body, _ := json.Marshal(WebhookRequest{UserID: "7c9e6679-7425-40de-944b-e07fc1f90ae7", Amount: 10, Reference: "tx-1"})
	sig := signature.Sign(testSecret, body)

	tampered, _ := json.Marshal(WebhookRequest{UserID: "7c9e6679-7425-40de-944b-e07fc1f90ae7", Amount: 9999, Reference: "tx-1"})
	rr := postWebhook(h, tampered, sig)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	h := NewHandler(nil, testSecret)

	body := []byte("not-json")
	rr := postWebhook(h, body, signature.Sign(testSecret, body))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestWebhookRejectsInvalidPayload(t *testing.T) {
	h := NewHandler(nil, testSecret)

	tests := []struct {
		name string
		body []byte
	}{
		{"zero amount", mustMarshal(WebhookRequest{UserID: "7c9e6679-7425-40de-944b-e07fc1f90ae7", Amount: 0, Reference: "tx-1"})},
		{"negative amount", mustMarshal(WebhookRequest{UserID: "7c9e6679-7425-40de-944b-e07fc1f90ae7", Amount: -5, Reference: "tx-1"})},
		{"missing reference", mustMarshal(WebhookRequest{UserID: "7c9e6679-7425-40de-944b-e07fc1f90ae7", Amount: 10})},
		{"bad user id", mustMarshal(WebhookRequest{UserID: "not-a-uuid", Amount: 10, Reference: "tx-1"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postWebhook(h, tt.body, signature.Sign(testSecret, tt.body))
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
			}
		})
	}
}

func mustMarshal(v interface{}) []byte {
	b, _ := json.Marshal(v)
	return b
}
