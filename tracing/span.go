package tracing

import (
	"context"
	"maps"
	"sync"
	"time"
)

type SpanKind string

const (
	KindAgent      SpanKind = "agent"
	KindGeneration SpanKind = "generation"
	KindFunction   SpanKind = "function"
	KindHandoff    SpanKind = "handoff"
	KindGuardrail  SpanKind = "guardrail"
	KindCustom     SpanKind = "custom"
)

// SpanError is the error recorded on a span.
type SpanError struct {
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// Span is a timed sub-step of a trace. All methods are no-ops on a nil span.
type Span struct {
	ID       string
	TraceID  string
	ParentID string
	Kind     SpanKind
	Name     string

	mu        sync.Mutex
	data      map[string]any
	err       *SpanError
	startedAt time.Time
	endedAt   time.Time
	provider  *Provider
}

// StartSpan opens a span under the active span or trace of ctx. Without a
// recording trace it returns ctx unchanged and a nil span.
func StartSpan(ctx context.Context, kind SpanKind, name string, data map[string]any) (context.Context, *Span) {
	tr := TraceFromContext(ctx)
	if !tr.Recording() {
		return ctx, nil
	}

	s := &Span{
		ID:        NewSpanID(),
		TraceID:   tr.ID,
		Kind:      kind,
		Name:      name,
		data:      maps.Clone(data),
		startedAt: time.Now().UTC(),
		provider:  tr.provider,
	}
	if s.data == nil {
		s.data = map[string]any{}
	}
	if parent := SpanFromContext(ctx); parent != nil {
		s.ParentID = parent.ID
	}
	tr.provider.spanStarted(s)
	return WithSpan(ctx, s), s
}

// Set records a key in the span data.
func (s *Span) Set(key string, value any) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// SetError marks the span as failed.
func (s *Span) SetError(message string, data map[string]any) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = &SpanError{Message: message, Data: data}
}

// Error returns the recorded error, if any.
func (s *Span) Error() *SpanError {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// End closes the span. Calling it more than once has no effect.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if !s.endedAt.IsZero() {
		s.mu.Unlock()
		return
	}
	s.endedAt = time.Now().UTC()
	s.mu.Unlock()
	s.provider.spanEnded(s)
}

func (s *Span) StartedAt() time.Time {
	return s.startedAt
}

func (s *Span) EndedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endedAt
}

// Data returns a copy of the span data.
func (s *Span) Data() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.data)
}

// Export returns the span as a plain map.
func (s *Span) Export() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := maps.Clone(s.data)
	data["type"] = string(s.Kind)
	data["name"] = s.Name

	var spanErr any
	if s.err != nil {
		spanErr = map[string]any{"message": s.err.Message, "data": s.err.Data}
	}
	return map[string]any{
		"object":         "trace.span",
		"span_id":        s.ID,
		"trace_id":       s.TraceID,
		"parent_span_id": nullable(s.ParentID),
		"name":           s.Name,
		"start_time":     formatTime(s.startedAt),
		"end_time":       formatTime(s.endedAt),
		"span_data":      data,
		"metadata":       data,
		"error":          spanErr,
	}
}
