package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/squadbook/squadbook-api/internal/domain/session"
)

func TestListRejectsUnknownStatusFilter(t *testing.T) {
	h := session.NewHandler(nil)

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/sessions?status=bogus", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}
