package refresh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IWUGERMANY/elca-sub002/internal/testutil"
	"github.com/IWUGERMANY/elca-sub002/pkg/kafka"
	"github.com/IWUGERMANY/elca-sub002/pkg/models"
)

type fakeRefresher struct {
	calls []int64
	err   error
}

func (f *fakeRefresher) Refresh(_ context.Context, projectID int64) (*models.CacheRefresh, error) {
	f.calls = append(f.calls, projectID)
	if f.err != nil {
		return nil, f.err
	}
	return &models.CacheRefresh{ProjectID: projectID, Recomputed: 1}, nil
}

func event(eventType string, projectID int64, at time.Time) *kafka.Event {
	return &kafka.Event{Type: eventType, ProjectID: projectID, Timestamp: at}
}

func TestWorkerHandle(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("refreshes the project of an outdated event", func(t *testing.T) {
		refresher := &fakeRefresher{}
		w := NewWorker(refresher, testutil.NoopLogger())

		require.NoError(t, w.Handle(context.Background(), event(kafka.TopicCacheOutdated, 7, base)))
		assert.Equal(t, []int64{7}, refresher.calls)
	})

	t.Run("ignores other events", func(t *testing.T) {
		refresher := &fakeRefresher{}
		w := NewWorker(refresher, testutil.NoopLogger())

		require.NoError(t, w.Handle(context.Background(), event(kafka.TopicCacheRecomputed, 7, base)))
		require.NoError(t, w.Handle(context.Background(), event(kafka.TopicCacheOutdated, 0, base)))
		assert.Empty(t, refresher.calls)
	})

	t.Run("skips events older than the last refresh", func(t *testing.T) {
		refresher := &fakeRefresher{}
		w := NewWorker(refresher, testutil.NoopLogger())
		w.now = func() time.Time { return base }

		require.NoError(t, w.Handle(context.Background(), event(kafka.TopicCacheOutdated, 7, base.Add(-time.Second))))
		require.NoError(t, w.Handle(context.Background(), event(kafka.TopicCacheOutdated, 7, base.Add(-time.Millisecond))))
		require.NoError(t, w.Handle(context.Background(), event(kafka.TopicCacheOutdated, 8, base.Add(-time.Millisecond))))
		require.NoError(t, w.Handle(context.Background(), event(kafka.TopicCacheOutdated, 7, base.Add(time.Second))))

		assert.Equal(t, []int64{7, 8, 7}, refresher.calls)
	})

	t.Run("failed refresh is retried by the next event", func(t *testing.T) {
		refresher := &fakeRefresher{err: errors.New("lock timeout")}
		w := NewWorker(refresher, testutil.NoopLogger())
		w.now = func() time.Time { return base }

		assert.Error(t, w.Handle(context.Background(), event(kafka.TopicCacheOutdated, 7, base.Add(-time.Second))))
		refresher.err = nil
		require.NoError(t, w.Handle(context.Background(), event(kafka.TopicCacheOutdated, 7, base.Add(-time.Second))))

		assert.Equal(t, []int64{7, 7}, refresher.calls)
	})
}
