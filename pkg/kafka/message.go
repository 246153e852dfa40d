package kafka

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Topics the cache service publishes to
const (
	TopicCacheOutdated          = "cache.outdated"
	TopicCacheRecomputed        = "cache.recomputed"
	TopicBenchmarkVersionCopied = "benchmark.version.copied"
)

// Event is the envelope of every message the service publishes.
type Event struct {
	Type             string         `json:"type"`
	ProjectID        int64          `json:"project_id,omitempty"`
	ProjectVariantID int64          `json:"project_variant_id,omitempty"`
	ItemIDs          []int64        `json:"item_ids,omitempty"`
	Data             map[string]any `json:"data,omitempty"`
	Timestamp        time.Time      `json:"timestamp"`
	TraceID          string         `json:"trace_id,omitempty"`
	SpanID           string         `json:"span_id,omitempty"`
}

// NewEvent creates an event of the given type stamped with the current time.
func NewEvent(eventType string, projectID int64) *Event {
	return &Event{
		Type:      eventType,
		ProjectID: projectID,
		Timestamp: time.Now().UTC(),
	}
}

func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Key partitions events by project so a project's events stay ordered.
func (e *Event) Key() string {
	return strconv.FormatInt(e.ProjectID, 10)
}

// Headers returns the message headers of the event.
func (e *Event) Headers() []Header {
	headers := []Header{
		{Key: "event-type", Value: []byte(e.Type)},
		{Key: "project-id", Value: []byte(e.Key())},
	}
	if e.TraceID != "" {
		headers = append(headers, Header{
			Key:   "traceparent",
			Value: []byte(fmt.Sprintf("00-%s-%s-01", e.TraceID, e.SpanID)),
		})
	}
	return headers
}

// Header is a Kafka message header
type Header struct {
	Key   string
	Value []byte
}

// ParseEvent decodes an event payload.
func ParseEvent(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}
	return &e, nil
}
