// internal/app/system/workers/retention.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"kpihub/internal/app/store/notifications"
	"kpihub/internal/app/store/oauthstate"
	"kpihub/internal/app/system/timeouts"
)

// Retention is a background worker that prunes short-lived records: read
// notifications past their keep window and expired OAuth states the TTL
// index has not collected yet.
type Retention struct {
	notifications *notifications.Store
	oauthStates   *oauthstate.Store
	log           *zap.Logger
	interval      time.Duration
	keep          time.Duration
	stopCh        chan struct{}
	wg            sync.WaitGroup
}

// NewRetention creates a new retention worker. keep is how long read
// notifications stay before deletion.
func NewRetention(n *notifications.Store, o *oauthstate.Store, logger *zap.Logger, interval, keep time.Duration) *Retention {
	return &Retention{
		notifications: n,
		oauthStates:   o,
		log:           logger,
		interval:      interval,
		keep:          keep,
		stopCh:        make(chan struct{}),
	}
}

// Start begins the background prune loop.
func (w *Retention) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("retention worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("keep", w.keep))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *Retention) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("retention worker stopped")
}

func (w *Retention) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.prune()
		}
	}
}

func (w *Retention) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Batch())
	defer cancel()

	cutoff := time.Now().UTC().Add(-w.keep)
	deleted, err := w.notifications.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		w.log.Error("failed to prune notifications", zap.Error(err))
	} else if deleted > 0 {
		w.log.Info("pruned read notifications", zap.Int64("count", deleted))
	}

	removed, err := w.oauthStates.CleanupExpired(ctx)
	if err != nil {
		w.log.Error("failed to prune oauth states", zap.Error(err))
	} else if removed > 0 {
		w.log.Info("pruned expired oauth states", zap.Int64("count", removed))
	}
}
