package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper periodically applies session lifecycle transitions.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	stopCh   chan struct{}
}

func NewSweeper(svc *Service, interval time.Duration) *Sweeper {
	if interval == 0 {
		interval = time.Minute
	}
	return &Sweeper{
		svc:      svc,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop
func (w *Sweeper) Start() {
	log.Info().Dur("interval", w.interval).Msg("Starting session lifecycle sweeper...")
	go w.loop()
}

// Stop gracefully stops the sweeper
func (w *Sweeper) Stop() {
	log.Info().Msg("Stopping session lifecycle sweeper...")
	close(w.stopCh)
}

func (w *Sweeper) loop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once immediately on startup
	w.sweep()

	for {
		select {
		case <-ticker.C:
			w.sweep()
		case <-w.stopCh:
			return
		}
	}
}

func (w *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	started, completed, err := w.svc.Sweep(ctx, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("Session lifecycle sweep failed")
		return
	}

	if started > 0 {
		log.Info().Int64("count", started).Msg("Sessions moved to in_progress")
	}
	if completed > 0 {
		log.Info().Int64("count", completed).Msg("Sessions completed")
	}
}
