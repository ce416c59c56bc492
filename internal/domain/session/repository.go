package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

// Repository provides session persistence. Slot occupancy is written only by
// the reservation coordinator inside its own transaction; this repository
// covers creation, reads and lifecycle transitions.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, s *Session) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO sessions (
			id, title, starts_at, ends_at, total_slots, occupied_slots,
			credit_cost, status, refund_window_sec, refund_inside_pct, created_by
		)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7, $8, $9, $10)
	`, s.ID, s.Title, s.StartsAt, s.EndsAt, s.TotalSlots,
		s.CreditCost, string(s.Status), s.RefundWindowSec, s.RefundInsidePct, s.CreatedBy)
	if err != nil {
		return fmt.Errorf("%w: insert session", ErrInternal)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var s Session
	err := r.db.GetContext(ctx2, &s, `
		SELECT * FROM sessions WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get session", ErrInternal)
	}
	return &s, nil
}

// List returns sessions filtered by status, newest start first.
func (r *Repository) List(ctx context.Context, status Status, limit, offset int) ([]Session, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	sessions := make([]Session, 0)
	var err error
	if status == "" {
		err = r.db.SelectContext(ctx2, &sessions, `
			SELECT * FROM sessions
			WHERE deleted_at IS NULL
			ORDER BY starts_at DESC
			LIMIT $1 OFFSET $2
		`, limit, offset)
	} else {
		err = r.db.SelectContext(ctx2, &sessions, `
			SELECT * FROM sessions
			WHERE deleted_at IS NULL AND status = $1
			ORDER BY starts_at DESC
			LIMIT $2 OFFSET $3
		`, string(status), limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions", ErrInternal)
	}
	return sessions, nil
}

// AvailableSlots reads the current free slot count. Display-only: the
// coordinator re-reads inside its own transaction.
func (r *Repository) AvailableSlots(ctx context.Context, id uuid.UUID) (int, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var available int
	err := r.db.GetContext(ctx2, &available, `
		SELECT total_slots - occupied_slots FROM sessions
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: read available slots", ErrInternal)
	}
	return available, nil
}

// SoftDelete hides a session without destroying it. Financial records keep
// referencing the row.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `
		UPDATE sessions SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("%w: soft delete session", ErrInternal)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkInProgress transitions scheduled sessions whose start time has passed.
// Idempotent: already-transitioned rows do not match the predicate.
func (r *Repository) MarkInProgress(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET status = $1, updated_at = now()
		WHERE status = $2 AND starts_at <= $3 AND deleted_at IS NULL
	`, string(StatusInProgress), string(StatusScheduled), now)
	if err != nil {
		return 0, fmt.Errorf("%w: mark sessions in progress", ErrInternal)
	}
	return result.RowsAffected()
}

// MarkCompleted transitions in-progress sessions whose end time has passed.
func (r *Repository) MarkCompleted(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET status = $1, updated_at = now()
		WHERE status = $2 AND ends_at <= $3 AND deleted_at IS NULL
	`, string(StatusCompleted), string(StatusInProgress), now)
	if err != nil {
		return 0, fmt.Errorf("%w: mark sessions completed", ErrInternal)
	}
	return result.RowsAffected()
}
