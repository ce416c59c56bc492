package session

import (
	"time"

	"github.com/google/uuid"
)

// Status defines the session lifecycle.
// scheduled -> in_progress -> completed, with scheduled -> cancelled as the
// administrative branch. completed and cancelled are terminal.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further transitions apply.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Session is a single bookable scheduled event with finite slot capacity.
// Slot occupancy is mutated only by the reservation coordinator; status
// transitions are applied by the lifecycle sweep or an administrative cancel.
type Session struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	Title           string     `db:"title" json:"title"`
	StartsAt        time.Time  `db:"starts_at" json:"starts_at"`
	EndsAt          time.Time  `db:"ends_at" json:"ends_at"`
	TotalSlots      int        `db:"total_slots" json:"total_slots"`
	OccupiedSlots   int        `db:"occupied_slots" json:"occupied_slots"`
	CreditCost      int64      `db:"credit_cost" json:"credit_cost"`
	Status          Status     `db:"status" json:"status"`
	RefundWindowSec int64      `db:"refund_window_sec" json:"refund_window_sec"`
	RefundInsidePct int        `db:"refund_inside_pct" json:"refund_inside_pct"`
	CreatedBy       uuid.UUID  `db:"created_by" json:"created_by"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt       *time.Time `db:"deleted_at" json:"-"`
}

// AvailableSlots returns the number of free slots.
func (s *Session) AvailableSlots() int {
	return s.TotalSlots - s.OccupiedSlots
}

// Joinable reports whether new participants may claim a slot.
func (s *Session) Joinable() bool {
	return s.Status == StatusScheduled
}

// Policy returns the session's cancellation-refund policy.
func (s *Session) Policy() RefundPolicy {
	return RefundPolicy{
		Window:    time.Duration(s.RefundWindowSec) * time.Second,
		InsidePct: s.RefundInsidePct,
	}
}
