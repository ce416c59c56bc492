package booking

import (
	"time"

	"github.com/google/uuid"
)

// ParticipationStatus defines the participation lifecycle. Participations are
// never physically removed; cancellation is a status transition so the audit
// trail stays intact.
type ParticipationStatus string

const (
	StatusActive    ParticipationStatus = "active"
	StatusCancelled ParticipationStatus = "cancelled"
)

// Participation is a user's claim on one slot of a session. A user occupies
// at most one slot per session, enforced by a partial unique index on
// (session_id, user_id) with status 'active'.
type Participation struct {
	ID           uuid.UUID           `db:"id" json:"id"`
	SessionID    uuid.UUID           `db:"session_id" json:"session_id"`
	UserID       uuid.UUID           `db:"user_id" json:"user_id"`
	Status       ParticipationStatus `db:"status" json:"status"`
	Charged      int64               `db:"charged" json:"charged"`
	Refunded     *int64              `db:"refunded" json:"refunded,omitempty"`
	CancelledAt  *time.Time          `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancelReason *string             `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CreatedAt    time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time           `db:"updated_at" json:"updated_at"`
}
