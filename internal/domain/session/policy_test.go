package session_test

import (
	"testing"
	"time"

	"github.com/squadbook/squadbook-api/internal/domain/session"
)

func TestRefundPercent(t *testing.T) {
	policy := session.RefundPolicy{Window: 24 * time.Hour, InsidePct: 50}
	startsAt := time.Date(2026, 6, 15, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"two days before", startsAt.Add(-48 * time.Hour), 100},
		{"exactly at window boundary", startsAt.Add(-24 * time.Hour), 100},
		{"just inside window", startsAt.Add(-24*time.Hour + time.Second), 50},
		{"eighteen hours before", startsAt.Add(-18 * time.Hour), 50},
		{"one minute before", startsAt.Add(-time.Minute), 50},
		{"at start", startsAt, 0},
		{"after start", startsAt.Add(time.Hour), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.RefundPercent(tt.now, startsAt); got != tt.want {
				t.Fatalf("RefundPercent(%v) = %d, want %d", tt.now, got, tt.want)
			}
		})
	}
}

func TestRefundPercent_ZeroInsidePct(t *testing.T) {
	policy := session.RefundPolicy{Window: 24 * time.Hour, InsidePct: 0}
	startsAt := time.Now().Add(time.Hour)

	if got := policy.RefundPercent(time.Now(), startsAt); got != 0 {
		t.Fatalf("expected 0 inside window with zero pct, got %d", got)
	}
}

func TestRefundAmount(t *testing.T) {
	tests := []struct {
		name    string
		charged int64
		pct     int
		want    int64
	}{
		{"full refund", 5, 100, 5},
		{"half of five floors", 5, 50, 2},
		{"half of four", 4, 50, 2},
		{"zero pct", 5, 0, 0},
		{"zero charged", 0, 100, 0},
		{"one third floors", 10, 33, 3},
		{"pct over hundred caps", 5, 150, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := session.RefundAmount(tt.charged, tt.pct); got != tt.want {
				t.Fatalf("RefundAmount(%d, %d) = %d, want %d", tt.charged, tt.pct, got, tt.want)
			}
		})
	}
}

func TestSessionJoinable(t *testing.T) {
	s := &session.Session{Status: session.StatusScheduled, TotalSlots: 3, OccupiedSlots: 1}
	if !s.Joinable() {
		t.Fatal("scheduled session should be joinable")
	}
	if s.AvailableSlots() != 2 {
		t.Fatalf("expected 2 available slots, got %d", s.AvailableSlots())
	}

	for _, status := range []session.Status{session.StatusInProgress, session.StatusCompleted, session.StatusCancelled} {
		s.Status = status
		if s.Joinable() {
			t.Fatalf("%s session should not be joinable", status)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if session.StatusScheduled.Terminal() || session.StatusInProgress.Terminal() {
		t.Fatal("scheduled and in_progress are not terminal")
	}
	if !session.StatusCompleted.Terminal() || !session.StatusCancelled.Terminal() {
		t.Fatal("completed and cancelled are terminal")
	}
}
