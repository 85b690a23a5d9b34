package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sentinelforge/sentinel/device"
	"github.com/sentinelforge/sentinel/geo"
)

// Event status values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Event categories group event types for downstream filtering.
const (
	CategoryPassword = "password"
	CategoryRisk     = "risk"
	CategorySession  = "session"
	CategoryAuth     = "auth"
)

// Event is the canonical audit record emitted by every mutating operation.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	EventType string `json:"event_type"`
	Status    string `json:"status"`
	Category  string `json:"category"`

	UserID       string `json:"user_id,omitempty"`
	SessionToken string `json:"session_token,omitempty"`
	IP           string `json:"ip,omitempty"`
	UserAgent    string `json:"user_agent,omitempty"`

	DeviceInfo  *device.Descriptor `json:"device_info,omitempty"`
	Geolocation *geo.Location      `json:"geolocation,omitempty"`

	Error    string            `json:"error,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Succeeded reports whether the event records a successful operation.
func (e Event) Succeeded() bool {
	return e.Status == StatusSuccess
}

// Stamp fills the identity and timestamp fields left empty by the emitter.
func (e *Event) Stamp(now time.Time) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
	if e.Status == "" {
		e.Status = StatusSuccess
	}
}

// Sink receives emitted audit events. Implementations must never panic back
// into the caller; dropping an event is acceptable, failing the operation is
// not.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink writes audit events into a buffered channel.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
