package validator_test

import (
	"testing"

	"github.com/squadbook/squadbook-api/internal/pkg/validator"
)

func TestEntryKindValidation(t *testing.T) {
	for _, kind := range []string{"purchase", "charge", "refund", "admin_adjustment"} {
		if err := validator.ValidateVar(kind, "entry_kind"); err != nil {
			t.Errorf("kind %q rejected: %v", kind, err)
		}
	}

	for _, kind := range []string{"withdrawal", "PURCHASE", "charge "} {
		if err := validator.ValidateVar(kind, "entry_kind"); err == nil {
			t.Errorf("kind %q accepted", kind)
		}
	}

	// List filters treat empty as "all kinds".
	if err := validator.ValidateVar("", "omitempty,entry_kind"); err != nil {
		t.Errorf("empty kind rejected with omitempty: %v", err)
	}
}

func TestSessionStatusValidation(t *testing.T) {
	for _, status := range []string{"", "scheduled", "in_progress", "completed", "cancelled"} {
		if err := validator.ValidateVar(status, "session_status"); err != nil {
			t.Errorf("status %q rejected: %v", status, err)
		}
	}

	for _, status := range []string{"open", "done", "Scheduled"} {
		if err := validator.ValidateVar(status, "session_status"); err == nil {
			t.Errorf("status %q accepted", status)
		}
	}
}
