package ledger_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/squadbook/squadbook-api/internal/domain/ledger"
)

/* =========================
   CSV Export Handler
   ========================= */

func TestAuditCSVReportsDriftAsConflict(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	userID := uuid.New()
	repo := ledger.NewRepository(db)
	service := ledger.NewService(repo, nil)
	handler := ledger.NewHandler(service)

	requireNoError(t, service.Purchase(context.Background(), userID, 10, uuid.New().String()))

	r := chi.NewRouter()
	r.Get("/users/{id}/audit.csv", handler.AuditCSV)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users/"+userID.String()+"/audit.csv", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv, got %q", ct)
	}
	if !strings.HasPrefix(rr.Body.String(), "id,user_id,amount") {
		t.Fatalf("unexpected csv body: %s", rr.Body.String())
	}

	// Corrupt the cached projection; the export must fail loudly instead of
	// returning an empty 200.
	_, err := db.Exec(`UPDATE accounts SET balance = 999 WHERE user_id = $1`, userID)
	requireNoError(t, err)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users/"+userID.String()+"/audit.csv", nil))

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 on drifted ledger, got %d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct == "text/csv" {
		t.Fatal("csv headers set on a failed audit")
	}
}
