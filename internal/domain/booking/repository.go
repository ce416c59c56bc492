package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/squadbook/squadbook-api/internal/domain/session"
)

const queryTimeout = 3 * time.Second

// Repository is the capacity tracker: participations plus the slot counters
// on the session row. The *Tx primitives join the coordinator's unit of work
// and never commit or roll back themselves.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// BeginTx opens the coordinator's unit of work.
func (r *Repository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// LockSession reads the session row under FOR UPDATE. This serializes every
// join/leave/cancel against the same session: the slot-count check and the
// occupancy write become indivisible. Sessions are locked before accounts so
// lock ordering is consistent across operations.
func (r *Repository) LockSession(ctx context.Context, tx *sqlx.Tx, sessionID uuid.UUID) (*session.Session, error) {
	var s session.Session
	err := tx.GetContext(ctx, &s, `
		SELECT * FROM sessions
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: lock session row", ErrInternal)
	}
	return &s, nil
}

// AddOccupied adjusts the session's occupied slot counter. The CHECK
// constraint on the column is the last line of defense against oversell.
func (r *Repository) AddOccupied(ctx context.Context, tx *sqlx.Tx, sessionID uuid.UUID, delta int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE sessions SET occupied_slots = occupied_slots + $2, updated_at = now()
		WHERE id = $1
	`, sessionID, delta)
	if err != nil {
		return fmt.Errorf("%w: update occupied slots", ErrInternal)
	}
	return nil
}

// InsertParticipation creates an active participation. The partial unique
// index on (session_id, user_id) WHERE status = 'active' rejects double joins.
func (r *Repository) InsertParticipation(ctx context.Context, tx *sqlx.Tx, p *Participation) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO participations (id, session_id, user_id, status, charged)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.SessionID, p.UserID, string(p.Status), p.Charged)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrAlreadyJoined
		}
		return fmt.Errorf("%w: insert participation", ErrInternal)
	}
	return nil
}

// LockActiveParticipation locks the user's active participation for the
// session, serializing leave against a racing join or leave for the same pair.
func (r *Repository) LockActiveParticipation(ctx context.Context, tx *sqlx.Tx, sessionID, userID uuid.UUID) (*Participation, error) {
	var p Participation
	err := tx.GetContext(ctx, &p, `
		SELECT * FROM participations
		WHERE session_id = $1 AND user_id = $2 AND status = $3
		FOR UPDATE
	`, sessionID, userID, string(StatusActive))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotParticipating
		}
		return nil, fmt.Errorf("%w: lock participation row", ErrInternal)
	}
	return &p, nil
}

// LockActiveParticipations locks every active participation of a session, for
// administrative cancellation.
func (r *Repository) LockActiveParticipations(ctx context.Context, tx *sqlx.Tx, sessionID uuid.UUID) ([]Participation, error) {
	participations := make([]Participation, 0)
	err := tx.SelectContext(ctx, &participations, `
		SELECT * FROM participations
		WHERE session_id = $1 AND status = $2
		ORDER BY created_at ASC
		FOR UPDATE
	`, sessionID, string(StatusActive))
	if err != nil {
		return nil, fmt.Errorf("%w: lock participation rows", ErrInternal)
	}
	return participations, nil
}

// CancelParticipation marks a participation cancelled, recording the refund
// amount and reason. Rows are never deleted.
func (r *Repository) CancelParticipation(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, refunded int64, reason string) error {
	var reasonArg interface{}
	if reason != "" {
		reasonArg = reason
	}

	_, err := tx.ExecContext(ctx, `
		UPDATE participations
		SET status = $2, refunded = $3, cancel_reason = $4, cancelled_at = now(), updated_at = now()
		WHERE id = $1
	`, id, string(StatusCancelled), refunded, reasonArg)
	if err != nil {
		return fmt.Errorf("%w: cancel participation", ErrInternal)
	}
	return nil
}

// SetSessionStatus transitions the locked session row.
func (r *Repository) SetSessionStatus(ctx context.Context, tx *sqlx.Tx, sessionID uuid.UUID, status session.Status) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE sessions SET status = $2, updated_at = now() WHERE id = $1
	`, sessionID, string(status))
	if err != nil {
		return fmt.Errorf("%w: update session status", ErrInternal)
	}
	return nil
}

// ResetOccupied zeroes the occupancy counter after an administrative cancel.
func (r *Repository) ResetOccupied(ctx context.Context, tx *sqlx.Tx, sessionID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE sessions SET occupied_slots = 0, updated_at = now() WHERE id = $1
	`, sessionID)
	if err != nil {
		return fmt.Errorf("%w: reset occupied slots", ErrInternal)
	}
	return nil
}

// GetParticipation reads a participation outside any transaction.
func (r *Repository) GetParticipation(ctx context.Context, id uuid.UUID) (*Participation, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p Participation
	err := r.db.GetContext(ctx2, &p, `SELECT * FROM participations WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotParticipating
		}
		return nil, fmt.Errorf("%w: get participation", ErrInternal)
	}
	return &p, nil
}

// ListBySession returns a session's participations, active first.
func (r *Repository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]Participation, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	participations := make([]Participation, 0)
	err := r.db.SelectContext(ctx2, &participations, `
		SELECT * FROM participations
		WHERE session_id = $1
		ORDER BY status ASC, created_at ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: list participations", ErrInternal)
	}
	return participations, nil
}

// ListByUser returns a user's participations, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Participation, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	participations := make([]Participation, 0)
	err := r.db.SelectContext(ctx2, &participations, `
		SELECT * FROM participations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list participations", ErrInternal)
	}
	return participations, nil
}

// CountActive returns the number of active participations for a session.
// Used by tests to check the capacity invariant.
func (r *Repository) CountActive(ctx context.Context, sessionID uuid.UUID) (int, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var count int
	err := r.db.GetContext(ctx2, &count, `
		SELECT COUNT(*) FROM participations WHERE session_id = $1 AND status = $2
	`, sessionID, string(StatusActive))
	if err != nil {
		return 0, fmt.Errorf("%w: count active participations", ErrInternal)
	}
	return count, nil
}
