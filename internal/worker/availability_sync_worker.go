package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/watcharin-dev/eventbook/internal/repository"
	"github.com/watcharin-dev/eventbook/pkg/logger"
)

const defaultSyncInterval = 30 * time.Second

// AvailabilitySyncWorker periodically refreshes the event cache from the
// store so cached availability trails the ledger by at most one interval.
type AvailabilitySyncWorker struct {
	events   repository.EventRepository
	cache    repository.EventCache
	interval time.Duration
	batch    int
	log      *logger.Logger
	stop     chan struct{}
	done     chan struct{}
}

// NewAvailabilitySyncWorker creates the cache refresh worker
func NewAvailabilitySyncWorker(
	events repository.EventRepository,
	cache repository.EventCache,
	interval time.Duration,
	log *logger.Logger,
) *AvailabilitySyncWorker {
	if interval <= 0 {
		interval = defaultSyncInterval
	}
	return &AvailabilitySyncWorker{
		events:   events,
		cache:    cache,
		interval: interval,
		batch:    200,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the sync loop until Stop is called or ctx is cancelled
func (w *AvailabilitySyncWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *AvailabilitySyncWorker) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// warm once on startup before the first tick
	w.syncOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			w.syncOnce(ctx)
		}
	}
}

// Stop signals the loop to exit and waits for the in-flight sync to finish
func (w *AvailabilitySyncWorker) Stop() {
	close(w.stop)
	<-w.done
}

func (w *AvailabilitySyncWorker) syncOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.interval)
	defer cancel()

	synced := 0
	for offset := 0; ; offset += w.batch {
		events, total, err := w.events.List(ctx, repository.EventFilter{
			Offset: offset,
			Limit:  w.batch,
		})
		if err != nil {
			w.log.Warn("availability sync failed", zap.Error(err))
			return
		}

		for _, event := range events {
			if err := w.cache.Set(ctx, event); err != nil {
				w.log.Warn("failed to refresh cached event",
					zap.String("event_id", event.ID),
					zap.Error(err),
				)
				continue
			}
			synced++
		}

		if offset+len(events) >= total || len(events) == 0 {
			break
		}
	}

	w.log.Debug("availability sync complete", zap.Int("events", synced))
}
