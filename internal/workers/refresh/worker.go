// Package refresh recomputes projects whose cache was reported outdated on the event bus.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/IWUGERMANY/elca-sub002/pkg/kafka"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
	"github.com/IWUGERMANY/elca-sub002/pkg/tracing"
)

type Refresher interface {
	Refresh(ctx context.Context, projectID int64) (*models.CacheRefresh, error)
}

// Worker refreshes the project of every cache.outdated event. Events published before the start of
// the last successful refresh of their project are skipped, that refresh already saw them.
type Worker struct {
	refresher Refresher
	logger    ectologger.Logger
	now       func() time.Time

	mu        sync.Mutex
	refreshed map[int64]time.Time
}

func NewWorker(refresher Refresher, logger ectologger.Logger) *Worker {
	return &Worker{
		refresher: refresher,
		logger:    logger,
		now:       time.Now,
		refreshed: make(map[int64]time.Time),
	}
}

// Handle is a kafka.EventHandler.
func (w *Worker) Handle(ctx context.Context, event *kafka.Event) error {
	ctx, span := tracing.StartSpan(ctx, "refresh.Handle")
	defer span.End()

	if event.Type != kafka.TopicCacheOutdated || event.ProjectID == 0 {
		return nil
	}

	w.mu.Lock()
	last, ok := w.refreshed[event.ProjectID]
	w.mu.Unlock()
	if ok && event.Timestamp.Before(last) {
		return nil
	}

	started := w.now()
	result, err := w.refresher.Refresh(ctx, event.ProjectID)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.refreshed[event.ProjectID] = started
	w.mu.Unlock()

	w.logger.WithContext(ctx).WithFields(map[string]any{
		"project_id": event.ProjectID,
		"recomputed": result.Recomputed,
		"conflicts":  result.Conflicts,
	}).Debug("Refreshed project from outdated event")
	return nil
}
