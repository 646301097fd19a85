package session

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically deletes expired refresh-token records.
//
// It runs for the lifetime of the process, independent of request traffic,
// and never surfaces errors to request handling: failures are logged and
// the loop continues. It only removes records whose expiry has already
// passed, so it cannot race a legitimate lookup into a false negative.
type Sweeper struct {
	log      *slog.Logger
	store    Store
	interval time.Duration
}

// NewSweeper builds a sweeper over store with the given interval.
func NewSweeper(log *slog.Logger, store Store, interval time.Duration) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{log: log, store: store, interval: interval}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	n, err := s.store.DeleteExpired(sweepCtx, time.Now().UTC())
	if err != nil {
		if ctx.Err() == nil {
			s.log.Error("session.sweep.fail", "err", err)
		}
		return
	}
	if n > 0 {
		s.log.Info("session.sweep", "deleted", n)
	}
}
