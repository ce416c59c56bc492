package ledger

import (
	"time"

	"github.com/google/uuid"
)

// EntryKind defines supported ledger entry kinds.
type EntryKind string

const (
	KindPurchase        EntryKind = "purchase"
	KindCharge          EntryKind = "charge"
	KindRefund          EntryKind = "refund"
	KindAdminAdjustment EntryKind = "admin_adjustment"
)

// Valid reports whether k is a known entry kind.
func (k EntryKind) Valid() bool {
	switch k {
	case KindPurchase, KindCharge, KindRefund, KindAdminAdjustment:
		return true
	}
	return false
}

// Entry is one immutable, signed movement of credit for a user. The ledger is
// append-only: a user's balance is the sum of their entries.
type Entry struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	UserID          uuid.UUID  `db:"user_id" json:"user_id"`
	Amount          int64      `db:"amount" json:"amount"`
	Kind            EntryKind  `db:"kind" json:"kind"`
	ParticipationID *uuid.UUID `db:"participation_id" json:"participation_id,omitempty"`
	Reference       *string    `db:"reference" json:"reference,omitempty"`
	Description     string     `db:"description" json:"description"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// Account is the cached balance projection. It is derived from the entry log
// inside the same transaction as every mutation and reconciled against it;
// the log, not this row, is the source of truth.
type Account struct {
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Balance   int64     `db:"balance" json:"balance"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EntryRef carries the optional linkage recorded with an entry.
type EntryRef struct {
	ParticipationID *uuid.UUID
	Reference       string // external reference, e.g. a payment confirmation id
	Description     string
}

// Pagination controls simple list pagination. Kind narrows the listing to one
// entry kind when set.
type Pagination struct {
	Limit  int
	Offset int
	Kind   EntryKind
}

// Drift is a detected mismatch between the cached balance projection and the
// ledger sum for one user. Drift is a fatal integrity condition: it is
// reported for reconciliation, never repaired by overwriting the log.
type Drift struct {
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Cached    int64     `db:"cached" json:"cached"`
	LedgerSum int64     `db:"ledger_sum" json:"ledger_sum"`
}
