package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/emarket/internal/market"
	"github.com/five82/emarket/internal/state"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 5 * time.Minute
)

// Syncer re-reads the collections the poller keeps fresh.
type Syncer interface {
	FetchProducts(ctx context.Context) ([]market.Product, error)
	FetchFavorites(ctx context.Context, userID market.ID) ([]market.Favorite, error)
}

// StartPoller launches a background goroutine that reconciles the store
// with the backend while a user is signed in. Consecutive failures stretch
// the wait exponentially up to maxBackoff. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, s Syncer, interval time.Duration, log zerolog.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		failures := 0
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			ran, err := refresh(ctx, store, s)
			switch {
			case err != nil:
				failures++
				log.Warn().Err(err).Int("failures", failures).Msg("reconcile failed")
			case ran:
				failures = 0
			}
			timer.Reset(calculateBackoff(failures, interval))
		}
	}()
}

// refresh runs one reconciliation round. It reports false without doing
// any I/O when nobody is signed in.
func refresh(ctx context.Context, store *state.Store, s Syncer) (bool, error) {
	user, ok := state.CurrentUser(store.Snapshot())
	if !ok {
		return false, nil
	}
	_, err := s.FetchProducts(ctx)
	if err == nil {
		_, err = s.FetchFavorites(ctx, user.ID)
	}
	store.RecordSync(err)
	return true, err
}

// calculateBackoff doubles base once per consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
