package tracing

import (
	"context"
	"log/slog"

	"github.com/casualjim/switchboard/pkg/slogx"
)

var _ Processor = (*LogProcessor)(nil)

// LogProcessor writes a log line for every trace and span start and end.
type LogProcessor struct {
	log *slog.Logger
}

// NewLogProcessor logs to log, or to the default logger at the time of each event when log is nil.
func NewLogProcessor(log *slog.Logger) *LogProcessor {
	return &LogProcessor{log: log}
}

func (p *LogProcessor) logger() *slog.Logger {
	log := p.log
	if log == nil {
		log = slog.Default()
	}
	return log.With(slogx.LoggerName("tracing"))
}

func (p *LogProcessor) OnTraceStart(t *Trace) {
	p.logger().Debug("trace started", slogx.Trace(t.ID), slog.String("name", t.Name))
}

func (p *LogProcessor) OnTraceEnd(t *Trace) {
	p.logger().Debug("trace ended", slogx.Trace(t.ID), slog.Duration("duration", t.EndedAt().Sub(t.StartedAt())))
}

func (p *LogProcessor) OnSpanStart(s *Span) {
	p.logger().Debug("span started", slogx.Trace(s.TraceID), slogx.Span(s.ID), slog.String("kind", string(s.Kind)), slog.String("name", s.Name))
}

func (p *LogProcessor) OnSpanEnd(s *Span) {
	attrs := []any{slogx.Trace(s.TraceID), slogx.Span(s.ID), slog.String("kind", string(s.Kind)), slog.Duration("duration", s.EndedAt().Sub(s.StartedAt()))}
	if e := s.Error(); e != nil {
		p.logger().Warn("span failed", append(attrs, slog.String("error", e.Message))...)
		return
	}
	p.logger().Debug("span ended", attrs...)
}

func (p *LogProcessor) ForceFlush(context.Context) error {
	return nil
}

func (p *LogProcessor) Shutdown(context.Context) error {
	p.logger().Debug("trace processor shut down")
	return nil
}
