package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Defaults applied to sessions created without explicit policy parameters.
type Defaults struct {
	RefundWindow    time.Duration
	RefundInsidePct int
}

type Service struct {
	repo     *Repository
	cache    *AvailabilityCache
	defaults Defaults
}

func NewService(repo *Repository, cache *AvailabilityCache, defaults Defaults) *Service {
	return &Service{repo: repo, cache: cache, defaults: defaults}
}

// Create schedules a new session for an organizer.
func (s *Service) Create(ctx context.Context, createdBy uuid.UUID, req *CreateSessionRequest) (*Session, error) {
	if !req.EndsAt.After(req.StartsAt) {
		return nil, ErrInvalidSchedule
	}
	if req.TotalSlots <= 0 {
		return nil, ErrInvalidSlots
	}

	window := s.defaults.RefundWindow
	if req.RefundWindow != "" {
		parsed, err := time.ParseDuration(req.RefundWindow)
		if err != nil || parsed < 0 {
			return nil, ErrInvalidSchedule
		}
		window = parsed
	}

	insidePct := s.defaults.RefundInsidePct
	if req.RefundInsidePct != nil {
		insidePct = *req.RefundInsidePct
	}

	sess := &Session{
		ID:              uuid.New(),
		Title:           req.Title,
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
		TotalSlots:      req.TotalSlots,
		CreditCost:      req.CreditCost,
		Status:          StatusScheduled,
		RefundWindowSec: int64(window / time.Second),
		RefundInsidePct: insidePct,
		CreatedBy:       createdBy,
	}

	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}

	log.Info().
		Str("session_id", sess.ID.String()).
		Str("created_by", createdBy.String()).
		Int("total_slots", sess.TotalSlots).
		Int64("credit_cost", sess.CreditCost).
		Msg("session created")

	return sess, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, status Status, limit, offset int) ([]Session, error) {
	return s.repo.List(ctx, status, limit, offset)
}

// AvailableSlots serves the display read: cache first, database on miss.
func (s *Service) AvailableSlots(ctx context.Context, id uuid.UUID) (int, error) {
	if available, ok := s.cache.Get(ctx, id); ok {
		return available, nil
	}

	available, err := s.repo.AvailableSlots(ctx, id)
	if err != nil {
		return 0, err
	}

	s.cache.Set(ctx, id, available)
	return available, nil
}

func (s *Service) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, id)
	log.Info().Str("session_id", id.String()).Msg("session soft-deleted")
	return nil
}

// Sweep applies wall-clock lifecycle transitions. Idempotent and safe to run
// concurrently with joins and leaves.
func (s *Service) Sweep(ctx context.Context, now time.Time) (started, completed int64, err error) {
	started, err = s.repo.MarkInProgress(ctx, now)
	if err != nil {
		return 0, 0, err
	}

	completed, err = s.repo.MarkCompleted(ctx, now)
	if err != nil {
		return started, 0, err
	}

	return started, completed, nil
}
