package sync

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"dashboard-sync-service/internal/logger"
)

// Worker drains watcher events and syncs each touched source once the file
// has been quiet for the debounce interval.
type Worker struct {
	manager  *Manager
	events   <-chan FileEvent
	debounce time.Duration
	pending  map[string]time.Time
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewWorker(manager *Manager, events <-chan FileEvent, debounce time.Duration) *Worker {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		manager:  manager,
		events:   events,
		debounce: debounce,
		pending:  make(map[string]time.Time),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (w *Worker) Start() {
	logger.Log.Info("Starting sync worker", zap.Duration("debounce", w.debounce))
	w.wg.Add(1)
	go w.run()
}

func (w *Worker) Stop() {
	w.cancel()
	w.wg.Wait()
	logger.Log.Info("Stopped sync worker")
}

func (w *Worker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-w.events:
			if !ok {
				w.flush(time.Time{})
				return
			}
			logger.Log.Debug("Source file changed", zap.String("event", ev.String()))
			w.pending[ev.Source] = ev.At

		case now := <-ticker.C:
			w.flush(now)

		case <-w.ctx.Done():
			return
		}
	}
}

// flush syncs every pending source quiet since before now-debounce. A zero
// now flushes everything.
func (w *Worker) flush(now time.Time) {
	for source, last := range w.pending {
		if !now.IsZero() && now.Sub(last) < w.debounce {
			continue
		}
		delete(w.pending, source)
		if _, err := w.manager.SyncIfChanged(w.ctx, source); err != nil {
			logger.Log.Error("Failed to sync changed source", zap.String("source", source), zap.Error(err))
		}
	}
}
