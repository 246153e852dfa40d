package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func (w *fakeWriter) Stats() kafka.WriterStats {
	return kafka.WriterStats{Messages: int64(len(w.messages))}
}

func newTestProducer(w *fakeWriter) *Producer {
	return &Producer{
		writer: w,
		logger: ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}),
	}
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(ProducerConfig{}, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
	assert.Error(t, err)
}

func TestProducerPublish(t *testing.T) {
	t.Run("writes keyed message with headers", func(t *testing.T) {
		w := &fakeWriter{}
		p := newTestProducer(w)

		event := NewEvent(TopicCacheRecomputed, 12)
		event.ItemIDs = []int64{3, 4}
		event.TraceID = "abc"
		event.SpanID = "def"

		require.NoError(t, p.Publish(context.Background(), TopicCacheRecomputed, event))
		require.Len(t, w.messages, 1)

		msg := w.messages[0]
		assert.Equal(t, TopicCacheRecomputed, msg.Topic)
		assert.Equal(t, "12", string(msg.Key))

		headers := map[string]string{}
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, TopicCacheRecomputed, headers["event-type"])
		assert.Equal(t, "00-abc-def-01", headers["traceparent"])

		parsed, err := ParseEvent(msg.Value)
		require.NoError(t, err)
		assert.Equal(t, []int64{3, 4}, parsed.ItemIDs)
		assert.Equal(t, int64(12), parsed.ProjectID)
	})

	t.Run("returns writer errors", func(t *testing.T) {
		p := newTestProducer(&fakeWriter{err: errors.New("broker down")})
		err := p.Publish(context.Background(), TopicCacheOutdated, NewEvent(TopicCacheOutdated, 1))
		assert.ErrorContains(t, err, "broker down")
	})
}

func TestProducerClose(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, newTestProducer(w).Close())
	assert.True(t, w.closed)
}
