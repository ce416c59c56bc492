package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const queryTimeout = 3 * time.Second

// Repository provides the append-only credit ledger and its cached balance
// projection. Mutations never run outside a transaction: the *Tx methods join
// a caller-owned unit of work (the reservation coordinator's), and the
// standalone methods open their own.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// BeginTx opens a transaction for a caller-orchestrated unit of work.
func (r *Repository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// ensureAccount creates the cached balance row on first touch.
func (r *Repository) ensureAccount(ctx context.Context, ext sqlx.ExtContext, userID uuid.UUID) error {
	_, err := ext.ExecContext(ctx, `
		INSERT INTO accounts (user_id, balance)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return fmt.Errorf("%w: ensure account", ErrInternal)
	}
	return nil
}

// lockBalance takes a row lock on the user's cached balance. Accounts are
// always locked after the session row (see booking repository), so lock
// ordering stays consistent across all units of work.
func (r *Repository) lockBalance(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (int64, error) {
	if err := r.ensureAccount(ctx, tx, userID); err != nil {
		return 0, err
	}

	var balance int64
	if err := tx.GetContext(ctx, &balance, `SELECT balance FROM accounts WHERE user_id = $1 FOR UPDATE`, userID); err != nil {
		return 0, fmt.Errorf("%w: lock account row", ErrInternal)
	}
	return balance, nil
}

// CreditTx appends a positive entry within the caller's transaction. The
// caller commits or rolls back.
func (r *Repository) CreditTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, kind EntryKind, ref EntryRef) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if !kind.Valid() {
		return ErrInvalidKind
	}

	balance, err := r.lockBalance(ctx, tx, userID)
	if err != nil {
		return err
	}

	if err := r.updateBalance(ctx, tx, userID, balance+amount); err != nil {
		return err
	}

	return r.insertEntry(ctx, tx, userID, amount, kind, ref)
}

// DebitTx appends a negative entry within the caller's transaction, only if
// the resulting balance stays >= 0.
func (r *Repository) DebitTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, kind EntryKind, ref EntryRef) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if !kind.Valid() {
		return ErrInvalidKind
	}

	balance, err := r.lockBalance(ctx, tx, userID)
	if err != nil {
		return err
	}

	if balance < amount {
		return ErrInsufficientCredit
	}

	if err := r.updateBalance(ctx, tx, userID, balance-amount); err != nil {
		return err
	}

	return r.insertEntry(ctx, tx, userID, -amount, kind, ref)
}

// Credit appends a positive entry in its own transaction.
func (r *Repository) Credit(ctx context.Context, userID uuid.UUID, amount int64, kind EntryKind, ref EntryRef) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		return r.CreditTx(ctx, tx, userID, amount, kind, ref)
	})
}

// Debit appends a negative entry in its own transaction.
func (r *Repository) Debit(ctx context.Context, userID uuid.UUID, amount int64, kind EntryKind, ref EntryRef) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		return r.DebitTx(ctx, tx, userID, amount, kind, ref)
	})
}

func (r *Repository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.BeginTx(ctx2)
	if err != nil {
		return fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx", ErrInternal)
	}
	return nil
}

func (r *Repository) updateBalance(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, balance int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance = $2, updated_at = now() WHERE user_id = $1
	`, userID, balance)
	if err != nil {
		return fmt.Errorf("%w: update balance projection", ErrInternal)
	}
	return nil
}

func (r *Repository) insertEntry(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, kind EntryKind, ref EntryRef) error {
	var reference interface{}
	if ref.Reference != "" {
		reference = ref.Reference
	}

	description := ref.Description
	if description == "" {
		description = "credit movement"
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, user_id, amount, kind, participation_id, reference, description)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
	`, userID, amount, string(kind), ref.ParticipationID, reference, description)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateReference
		}
		return fmt.Errorf("%w: insert ledger entry", ErrInternal)
	}
	return nil
}

// GetBalance returns the cached balance projection.
func (r *Repository) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var balance int64
	err := r.db.GetContext(ctx2, &balance, `SELECT balance FROM accounts WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: get balance", ErrInternal)
	}
	return balance, nil
}

// SumEntries computes the authoritative balance from the entry log.
func (r *Repository) SumEntries(ctx context.Context, userID uuid.UUID) (int64, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var sum int64
	err := r.db.GetContext(ctx2, &sum, `
		SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE user_id = $1
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: sum entries", ErrInternal)
	}
	return sum, nil
}

// ListEntries returns paginated entry history for a user, newest first.
func (r *Repository) ListEntries(ctx context.Context, userID uuid.UUID, pagination Pagination) ([]Entry, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	limit := pagination.Limit
	if limit <= 0 {
		limit = 20
	}

	entries := make([]Entry, 0)
	var err error
	if pagination.Kind == "" {
		err = r.db.SelectContext(ctx2, &entries, `
			SELECT id, user_id, amount, kind, participation_id, reference, description, created_at
			FROM ledger_entries
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2 OFFSET $3
		`, userID, limit, pagination.Offset)
	} else {
		err = r.db.SelectContext(ctx2, &entries, `
			SELECT id, user_id, amount, kind, participation_id, reference, description, created_at
			FROM ledger_entries
			WHERE user_id = $1 AND kind = $2
			ORDER BY created_at DESC, id DESC
			LIMIT $3 OFFSET $4
		`, userID, string(pagination.Kind), limit, pagination.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list entries", ErrInternal)
	}
	return entries, nil
}

// AuditSnapshot reads a user's full ordered ledger and the cached balance in
// one repeatable-read transaction. Both come from the same snapshot, so a
// write committing between the two reads cannot be mistaken for drift.
func (r *Repository) AuditSnapshot(ctx context.Context, userID uuid.UUID) ([]Entry, int64, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: begin audit tx", ErrInternal)
	}
	defer tx.Rollback()

	entries := make([]Entry, 0)
	err = tx.SelectContext(ctx2, &entries, `
		SELECT id, user_id, amount, kind, participation_id, reference, description, created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: load entries", ErrInternal)
	}

	var balance int64
	err = tx.GetContext(ctx2, &balance, `SELECT balance FROM accounts WHERE user_id = $1`, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("%w: get balance", ErrInternal)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("%w: commit audit tx", ErrInternal)
	}
	return entries, balance, nil
}

// FindDrift compares every cached balance against its ledger sum.
func (r *Repository) FindDrift(ctx context.Context) ([]Drift, error) {
	ctx2, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	drifts := make([]Drift, 0)
	err := r.db.SelectContext(ctx2, &drifts, `
		SELECT a.user_id,
		       a.balance AS cached,
		       COALESCE(SUM(e.amount), 0) AS ledger_sum
		FROM accounts a
		LEFT JOIN ledger_entries e ON e.user_id = a.user_id
		GROUP BY a.user_id, a.balance
		HAVING a.balance <> COALESCE(SUM(e.amount), 0)
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: reconcile balances", ErrInternal)
	}
	return drifts, nil
}
