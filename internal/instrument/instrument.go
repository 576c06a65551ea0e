package instrument

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Context keys
type ctxKey int

const (
	traceIDKey ctxKey = iota
	parentSpanIDKey
	instrumenterKey
)

// Instrumenter interface defines the tracing API.
type Instrumenter interface {
	StartSpan(ctx context.Context, source, component, action string) (context.Context, Span)
}

// Span interface represents a timed operation span.
type Span interface {
	End()
	SetStatus(status string)
	SetMetadata(key string, value any)
	TraceID() string
	SpanID() string
}

// SpanRecord is a finished span as kept in the ring and returned over
// the API.
type SpanRecord struct {
	TraceID      string         `json:"trace_id"`
	SpanID       string         `json:"span_id"`
	ParentSpanID *string        `json:"parent_span_id,omitempty"`
	Source       string         `json:"source"`
	Component    string         `json:"component"`
	Action       string         `json:"action"`
	DurationMs   float64        `json:"duration_ms"`
	Status       *string        `json:"status,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Context helpers

// WithTraceID sets the trace ID in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceID returns the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return ""
}

func withParentSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, parentSpanIDKey, spanID)
}

func getParentSpanID(ctx context.Context) string {
	if v, ok := ctx.Value(parentSpanIDKey).(string); ok {
		return v
	}
	return ""
}

// WithInstrumenter sets the instrumenter in the context.
func WithInstrumenter(ctx context.Context, inst Instrumenter) context.Context {
	return context.WithValue(ctx, instrumenterKey, inst)
}

// GetInstrumenter returns the instrumenter from the context,
// or a NoopInstrumenter if none is set.
func GetInstrumenter(ctx context.Context) Instrumenter {
	if v, ok := ctx.Value(instrumenterKey).(Instrumenter); ok {
		return v
	}
	return &NoopInstrumenter{}
}

// RingInstrumenter records finished spans into a bounded ring buffer.
type RingInstrumenter struct {
	ring *SpanRing
}

// NewInstrumenter creates a RingInstrumenter backed by the given ring.
func NewInstrumenter(ring *SpanRing) *RingInstrumenter {
	return &RingInstrumenter{ring: ring}
}

// StartSpan creates a new span and returns the updated context so
// child spans reference this span as parent.
func (i *RingInstrumenter) StartSpan(ctx context.Context, source, component, action string) (context.Context, Span) {
	span := &spanImpl{
		traceID:      GetTraceID(ctx),
		spanID:       uuid.New().String(),
		parentSpanID: getParentSpanID(ctx),
		source:       source,
		component:    component,
		action:       action,
		startTime:    time.Now(),
		ring:         i.ring,
	}
	return withParentSpanID(ctx, span.spanID), span
}

type spanImpl struct {
	traceID      string
	spanID       string
	parentSpanID string
	source       string
	component    string
	action       string
	status       *string
	startTime    time.Time
	metadata     map[string]any
	ring         *SpanRing
	mu           sync.Mutex
	ended        bool
}

func (s *spanImpl) TraceID() string { return s.traceID }
func (s *spanImpl) SpanID() string  { return s.spanID }

func (s *spanImpl) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = &status
}

func (s *spanImpl) SetMetadata(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.metadata == nil {
		s.metadata = make(map[string]any)
	}
	s.metadata[key] = value
}

func (s *spanImpl) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true

	record := SpanRecord{
		TraceID:    s.traceID,
		SpanID:     s.spanID,
		Source:     s.source,
		Component:  s.component,
		Action:     s.action,
		DurationMs: float64(time.Since(s.startTime).Microseconds()) / 1000.0,
		Status:     s.status,
		Metadata:   s.metadata,
		CreatedAt:  time.Now().UTC(),
	}
	if s.parentSpanID != "" {
		record.ParentSpanID = &s.parentSpanID
	}
	s.ring.Add(record)
}
