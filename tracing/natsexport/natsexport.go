// Package natsexport publishes finished traces and spans as JSON on NATS subjects.
package natsexport

import (
	"context"
	"log/slog"
	"time"

	"github.com/casualjim/switchboard/pkg/slogx"
	"github.com/casualjim/switchboard/tracing"
	json "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/tidwall/sjson"
)

// DefaultPrefix is the subject prefix used when none is configured.
const DefaultPrefix = "switchboard.tracing"

const flushTimeout = 5 * time.Second

// Publisher is the part of *nats.Conn the exporter needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

var (
	_ Publisher         = (*nats.Conn)(nil)
	_ tracing.Processor = (*Exporter)(nil)
)

// Exporter publishes <prefix>.trace.ended and <prefix>.span.ended messages.
type Exporter struct {
	pub    Publisher
	prefix string
}

func New(pub Publisher, prefix string) *Exporter {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Exporter{pub: pub, prefix: prefix}
}

// TraceSubject is the subject finished traces are published on.
func (e *Exporter) TraceSubject() string { return e.prefix + ".trace.ended" }

// SpanSubject is the subject finished spans are published on.
func (e *Exporter) SpanSubject() string { return e.prefix + ".span.ended" }

func (e *Exporter) OnTraceStart(*tracing.Trace) {}

func (e *Exporter) OnTraceEnd(t *tracing.Trace) {
	e.publish(e.TraceSubject(), "trace.ended", t.Export())
}

func (e *Exporter) OnSpanStart(*tracing.Span) {}

func (e *Exporter) OnSpanEnd(s *tracing.Span) {
	e.publish(e.SpanSubject(), "span.ended", s.Export())
}

func (e *Exporter) publish(subject, event string, payload map[string]any) {
	b, err := json.Marshal(payload)
	if err == nil {
		b, err = sjson.SetBytes(b, "event", event)
	}
	if err != nil {
		slog.Error("failed to encode trace event", slogx.LoggerName("natsexport"), slog.String("subject", subject), slogx.Error(err))
		return
	}
	if err := e.pub.Publish(subject, b); err != nil {
		slog.Error("failed to publish trace event", slogx.LoggerName("natsexport"), slog.String("subject", subject), slogx.Error(err))
	}
}

// ForceFlush flushes the underlying connection when it supports it.
func (e *Exporter) ForceFlush(ctx context.Context) error {
	nc, ok := e.pub.(*nats.Conn)
	if !ok {
		return nil
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return nc.FlushTimeout(flushTimeout)
	}
	return nc.FlushWithContext(ctx)
}

func (e *Exporter) Shutdown(ctx context.Context) error {
	return e.ForceFlush(ctx)
}
