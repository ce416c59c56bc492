package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/squadbook/squadbook-api/internal/domain/ledger"
	"github.com/squadbook/squadbook-api/internal/domain/session"
)

// Service is the reservation coordinator. Every mutating operation runs as a
// single database transaction spanning the capacity tracker and the ledger:
// the capacity check, the participation write and the ledger write commit or
// roll back together. Serialization conflicts are retried a bounded number of
// times before surfacing as ErrConcurrentModification.
type Service struct {
	repo       *Repository
	ledger     *ledger.Repository
	cache      *session.AvailabilityCache
	retryLimit int
	now        func() time.Time
}

func NewService(repo *Repository, ledgerRepo *ledger.Repository, cache *session.AvailabilityCache, retryLimit int) *Service {
	if retryLimit <= 0 {
		retryLimit = 3
	}
	return &Service{
		repo:       repo,
		ledger:     ledgerRepo,
		cache:      cache,
		retryLimit: retryLimit,
		now:        time.Now,
	}
}

// Join claims one slot for the user and charges the session's credit cost.
func (s *Service) Join(ctx context.Context, sessionID, userID uuid.UUID) (*Participation, error) {
	var p *Participation
	err := s.withRetries(ctx, func(tx *sqlx.Tx) error {
		var err error
		p, err = s.join(ctx, tx, sessionID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, sessionID)
	log.Info().
		Str("session_id", sessionID.String()).
		Str("user_id", userID.String()).
		Int64("charged", p.Charged).
		Msg("slot reserved")
	return p, nil
}

func (s *Service) join(ctx context.Context, tx *sqlx.Tx, sessionID, userID uuid.UUID) (*Participation, error) {
	sess, err := s.repo.LockSession(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}

	if !sess.Joinable() {
		return nil, ErrSessionNotJoinable
	}
	if sess.AvailableSlots() <= 0 {
		return nil, ErrSessionFull
	}

	p := &Participation{
		ID:        uuid.New(),
		SessionID: sessionID,
		UserID:    userID,
		Status:    StatusActive,
		Charged:   sess.CreditCost,
	}

	if err := s.repo.InsertParticipation(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := s.repo.AddOccupied(ctx, tx, sessionID, 1); err != nil {
		return nil, err
	}

	if sess.CreditCost > 0 {
		err := s.ledger.DebitTx(ctx, tx, userID, sess.CreditCost, ledger.KindCharge, ledger.EntryRef{
			ParticipationID: &p.ID,
			Description:     fmt.Sprintf("slot charge for session %q", sess.Title),
		})
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Leave releases the user's slot and refunds according to the session's
// policy evaluated at the current time against the original start time.
func (s *Service) Leave(ctx context.Context, sessionID, userID uuid.UUID, reason string) (*Participation, error) {
	var p *Participation
	err := s.withRetries(ctx, func(tx *sqlx.Tx) error {
		var err error
		p, err = s.leave(ctx, tx, sessionID, userID, reason)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, sessionID)
	refunded := int64(0)
	if p.Refunded != nil {
		refunded = *p.Refunded
	}
	log.Info().
		Str("session_id", sessionID.String()).
		Str("user_id", userID.String()).
		Int64("refunded", refunded).
		Msg("slot released")
	return p, nil
}

func (s *Service) leave(ctx context.Context, tx *sqlx.Tx, sessionID, userID uuid.UUID, reason string) (*Participation, error) {
	sess, err := s.repo.LockSession(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}

	if sess.Status == session.StatusCompleted {
		return nil, ErrSessionClosed
	}

	p, err := s.repo.LockActiveParticipation(ctx, tx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	// Refund fraction depends on the wall clock and the original start time,
	// not the join time. A session past scheduled refunds nothing even if the
	// sweep has not caught up with the clock yet.
	pct := 0
	if sess.Status == session.StatusScheduled {
		pct = sess.Policy().RefundPercent(s.now(), sess.StartsAt)
	}
	refund := session.RefundAmount(p.Charged, pct)

	if err := s.repo.CancelParticipation(ctx, tx, p.ID, refund, reason); err != nil {
		return nil, err
	}
	if err := s.repo.AddOccupied(ctx, tx, sessionID, -1); err != nil {
		return nil, err
	}

	if refund > 0 {
		err := s.ledger.CreditTx(ctx, tx, userID, refund, ledger.KindRefund, ledger.EntryRef{
			ParticipationID: &p.ID,
			Description:     fmt.Sprintf("cancellation refund for session %q", sess.Title),
		})
		if err != nil {
			return nil, err
		}
	}

	p.Status = StatusCancelled
	p.Refunded = &refund
	now := s.now()
	p.CancelledAt = &now
	if reason != "" {
		p.CancelReason = &reason
	}
	return p, nil
}

// CancelSession is the administrative branch: every active participant is
// refunded in full regardless of timing, since the organizer broke the deal.
func (s *Service) CancelSession(ctx context.Context, sessionID uuid.UUID) error {
	err := s.withRetries(ctx, func(tx *sqlx.Tx) error {
		return s.cancelSession(ctx, tx, sessionID)
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, sessionID)
	log.Info().Str("session_id", sessionID.String()).Msg("session cancelled, participants refunded")
	return nil
}

func (s *Service) cancelSession(ctx context.Context, tx *sqlx.Tx, sessionID uuid.UUID) error {
	sess, err := s.repo.LockSession(ctx, tx, sessionID)
	if err != nil {
		return err
	}

	if sess.Status != session.StatusScheduled {
		return session.ErrNotCancellable
	}

	participations, err := s.repo.LockActiveParticipations(ctx, tx, sessionID)
	if err != nil {
		return err
	}

	for i := range participations {
		p := &participations[i]
		if err := s.repo.CancelParticipation(ctx, tx, p.ID, p.Charged, "session cancelled"); err != nil {
			return err
		}
		if p.Charged > 0 {
			err := s.ledger.CreditTx(ctx, tx, p.UserID, p.Charged, ledger.KindRefund, ledger.EntryRef{
				ParticipationID: &p.ID,
				Description:     fmt.Sprintf("full refund, session %q cancelled", sess.Title),
			})
			if err != nil {
				return err
			}
		}
	}

	if err := s.repo.ResetOccupied(ctx, tx, sessionID); err != nil {
		return err
	}
	return s.repo.SetSessionStatus(ctx, tx, sessionID, session.StatusCancelled)
}

// MyParticipations returns the acting user's participations.
func (s *Service) MyParticipations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Participation, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// SessionParticipants returns a session's participations.
func (s *Service) SessionParticipants(ctx context.Context, sessionID uuid.UUID) ([]Participation, error) {
	return s.repo.ListBySession(ctx, sessionID)
}

// withRetries runs fn in a transaction, retrying serialization conflicts a
// bounded number of times. Domain failures are returned immediately.
func (s *Service) withRetries(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	var err error
	for attempt := 0; attempt <= s.retryLimit; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 10 * time.Millisecond):
			}
			log.Warn().Int("attempt", attempt).Msg("retrying reservation transaction")
		}

		err = s.inTx(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
	}
	return ErrConcurrentModification
}

func (s *Service) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		if isRetryable(err) {
			return err
		}
		return fmt.Errorf("%w: commit tx", ErrInternal)
	}
	return nil
}

// isRetryable reports serialization failures and deadlocks.
func isRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
