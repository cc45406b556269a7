// internal/app/system/workers/overduesweep.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"kpihub/internal/app/lifecycle"
	"kpihub/internal/app/system/timeouts"
)

// OverdueSweep is a background worker that marks past-due indicators
// overdue on an interval.
type OverdueSweep struct {
	svc      *lifecycle.Service
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewOverdueSweep creates a new overdue sweep worker.
//
// Parameters:
//   - svc: the indicator lifecycle service
//   - logger: zap logger for logging
//   - interval: how often to run the sweep (e.g., 15 minutes)
func NewOverdueSweep(svc *lifecycle.Service, logger *zap.Logger, interval time.Duration) *OverdueSweep {
	return &OverdueSweep{
		svc:      svc,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop. The first sweep runs after one
// interval, not immediately, so startup is never blocked on it.
func (w *OverdueSweep) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("overdue sweep worker started",
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *OverdueSweep) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("overdue sweep worker stopped")
}

func (w *OverdueSweep) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *OverdueSweep) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Batch())
	defer cancel()

	count, err := w.svc.MarkOverdue(ctx)
	if err != nil {
		w.log.Error("overdue sweep failed", zap.Error(err))
		return
	}

	if count > 0 {
		w.log.Info("marked indicators overdue", zap.Int("count", count))
	}
}
