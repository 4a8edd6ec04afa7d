// Package storeexport writes finished traces and spans into a store.TraceSink.
package storeexport

import (
	"context"
	"log/slog"
	"time"

	"github.com/casualjim/switchboard/pkg/slogx"
	"github.com/casualjim/switchboard/store"
	"github.com/casualjim/switchboard/tracing"
	json "github.com/goccy/go-json"
)

var _ tracing.Processor = (*Exporter)(nil)

// Exporter inserts a trace row when a trace ends and a span row when a span
// ends. Insert failures are logged and otherwise ignored.
type Exporter struct {
	sink    store.TraceSink
	timeout time.Duration
	now     func() time.Time
}

func New(sink store.TraceSink) *Exporter {
	return &Exporter{sink: sink, timeout: 5 * time.Second, now: time.Now}
}

func (e *Exporter) OnTraceStart(*tracing.Trace) {}

func (e *Exporter) OnTraceEnd(t *tracing.Trace) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	row := store.TraceRow{
		TraceID:   t.ID,
		Name:      t.Name,
		StartTime: timeText(t.StartedAt()),
		EndTime:   timeText(t.EndedAt()),
		Metadata:  encode(t.Metadata),
		CreatedAt: e.now(),
	}
	if err := e.sink.InsertTrace(ctx, row); err != nil {
		slog.Error("failed to store trace", slogx.LoggerName("storeexport"), slogx.Trace(t.ID), slogx.Error(err))
	}
}

func (e *Exporter) OnSpanStart(*tracing.Span) {}

func (e *Exporter) OnSpanEnd(s *tracing.Span) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	exported := s.Export()
	row := store.SpanRow{
		SpanID:       s.ID,
		TraceID:      s.TraceID,
		ParentSpanID: s.ParentID,
		Name:         s.Name,
		StartTime:    timeText(s.StartedAt()),
		EndTime:      timeText(s.EndedAt()),
		Metadata:     encode(exported["span_data"]),
		CreatedAt:    e.now(),
	}
	if err := e.sink.InsertSpan(ctx, row); err != nil {
		slog.Error("failed to store span", slogx.LoggerName("storeexport"), slogx.Trace(s.TraceID), slogx.Span(s.ID), slogx.Error(err))
	}
}

func (e *Exporter) ForceFlush(context.Context) error { return nil }

func (e *Exporter) Shutdown(context.Context) error { return nil }

func timeText(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format(time.RFC3339Nano)
}

func encode(v any) string {
	if v == nil {
		return "{}"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
