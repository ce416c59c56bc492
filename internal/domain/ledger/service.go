package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/squadbook/squadbook-api/internal/pkg/storage"
)

// Service exposes ledger operations to handlers and to the payment intake.
// The reservation coordinator bypasses it and uses the repository's *Tx
// methods directly inside its own unit of work.
type Service struct {
	repo  *Repository
	audit *storage.AuditStore // nil when export upload is not configured
}

func NewService(repo *Repository, audit *storage.AuditStore) *Service {
	return &Service{repo: repo, audit: audit}
}

// Balance returns the user's current credit balance.
func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

// Purchase records a confirmed credit purchase from the payment collaborator.
// Idempotent by reference: replaying a confirmation credits once.
func (s *Service) Purchase(ctx context.Context, userID uuid.UUID, amount int64, reference string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if reference == "" {
		return ErrInvalidAmount
	}

	err := s.repo.Credit(ctx, userID, amount, KindPurchase, EntryRef{
		Reference:   reference,
		Description: "credit purchase",
	})
	if errors.Is(err, ErrDuplicateReference) {
		log.Info().Str("user_id", userID.String()).Str("reference", reference).Msg("purchase confirmation replayed, already credited")
		return nil
	}
	if err != nil {
		return err
	}

	log.Info().Str("user_id", userID.String()).Int64("amount", amount).Str("reference", reference).Msg("purchase credited")
	return nil
}

// AdminAdjust appends a signed admin adjustment. Negative adjustments fail
// with ErrInsufficientCredit rather than driving the balance below zero.
func (s *Service) AdminAdjust(ctx context.Context, userID uuid.UUID, delta int64, reason string) error {
	if delta == 0 {
		return ErrInvalidAmount
	}

	ref := EntryRef{Description: reason}
	var err error
	if delta > 0 {
		err = s.repo.Credit(ctx, userID, delta, KindAdminAdjustment, ref)
	} else {
		err = s.repo.Debit(ctx, userID, -delta, KindAdminAdjustment, ref)
	}
	if err != nil {
		return err
	}

	log.Info().Str("user_id", userID.String()).Int64("delta", delta).Str("reason", reason).Msg("admin adjustment applied")
	return nil
}

// Entries returns paginated entry history, newest first, optionally narrowed
// to one entry kind.
func (s *Service) Entries(ctx context.Context, userID uuid.UUID, kind EntryKind, limit, offset int) ([]Entry, error) {
	return s.repo.ListEntries(ctx, userID, Pagination{Limit: limit, Offset: offset, Kind: kind})
}

// Audit returns the full ordered ledger for a user after verifying the cached
// projection against it. Entries and balance come from one snapshot, so only
// real drift aborts the read, never an unluckily timed concurrent write.
func (s *Service) Audit(ctx context.Context, userID uuid.UUID) ([]Entry, error) {
	entries, cached, err := s.repo.AuditSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	var sum int64
	for _, e := range entries {
		sum += e.Amount
	}

	if cached != sum {
		log.Error().Str("user_id", userID.String()).Int64("cached", cached).Int64("ledger_sum", sum).Msg("balance projection drift detected")
		return nil, ErrLedgerDrift
	}

	return entries, nil
}

// WriteCSV streams a user's ordered ledger as CSV.
func (s *Service) WriteCSV(ctx context.Context, userID uuid.UUID, w io.Writer) error {
	entries, err := s.Audit(ctx, userID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "user_id", "amount", "kind", "participation_id", "reference", "description", "created_at"}); err != nil {
		return fmt.Errorf("%w: write csv header", ErrInternal)
	}

	for _, e := range entries {
		participationID := ""
		if e.ParticipationID != nil {
			participationID = e.ParticipationID.String()
		}
		reference := ""
		if e.Reference != nil {
			reference = *e.Reference
		}
		record := []string{
			e.ID.String(),
			e.UserID.String(),
			strconv.FormatInt(e.Amount, 10),
			string(e.Kind),
			participationID,
			reference,
			e.Description,
			e.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("%w: write csv record", ErrInternal)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: flush csv", ErrInternal)
	}
	return nil
}

// Export uploads a user's ledger CSV to object storage and returns the key.
func (s *Service) Export(ctx context.Context, userID uuid.UUID) (string, error) {
	if s.audit == nil {
		return "", errors.New("audit export storage is not configured")
	}

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(s.WriteCSV(ctx, userID, pw))
	}()

	key := fmt.Sprintf("ledger-exports/%s/%s.csv", userID, time.Now().UTC().Format("20060102T150405Z"))
	if err := s.audit.Put(ctx, key, pr, "text/csv"); err != nil {
		return "", err
	}

	log.Info().Str("user_id", userID.String()).Str("key", key).Msg("ledger export uploaded")
	return key, nil
}

// Reconcile checks every cached balance against its ledger sum. Drift is
// reported, logged at error level, and never auto-corrected.
func (s *Service) Reconcile(ctx context.Context) ([]Drift, error) {
	drifts, err := s.repo.FindDrift(ctx)
	if err != nil {
		return nil, err
	}

	for _, d := range drifts {
		log.Error().
			Str("user_id", d.UserID.String()).
			Int64("cached", d.Cached).
			Int64("ledger_sum", d.LedgerSum).
			Msg("balance projection drift detected")
	}

	return drifts, nil
}
