// Package otelexport mirrors traces and spans into OpenTelemetry.
//
// Each trace becomes a root span named after the workflow; every span becomes
// a child of its parent span (or of the root), carrying the recorded start and
// end timestamps and the span data as attributes.
package otelexport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/switchboard/pkg/slogx"
	"github.com/casualjim/switchboard/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/casualjim/switchboard/tracing"

	AttrSpanType  = "openai.agents.span_type"
	AttrTraceID   = "openai.agents.trace_id"
	AttrGroupID   = "openai.agents.group_id"
	AttrToolName  = "gen_ai.tool.name"
	AttrModelName = "gen_ai.request.model"
)

// Config holds the OTLP exporter settings.
type Config struct {
	Endpoint    string // host:port of the OTLP endpoint
	URLPath     string
	APIKey      string
	Insecure    bool
	ServiceName string
}

var _ tracing.Processor = (*Exporter)(nil)

type flusher interface {
	ForceFlush(context.Context) error
	Shutdown(context.Context) error
}

// Exporter is a tracing.Processor that replays spans on an OpenTelemetry tracer.
type Exporter struct {
	tracer   trace.Tracer
	provider flusher
	roots    *haxmap.Map[string, trace.Span]
	spans    *haxmap.Map[string, trace.Span]
}

// New creates an exporter on top of an existing tracer provider. When the
// provider is an SDK provider, ForceFlush and Shutdown are forwarded to it.
func New(tp trace.TracerProvider) *Exporter {
	e := &Exporter{
		tracer: tp.Tracer(instrumentationName),
		roots:  haxmap.New[string, trace.Span](),
		spans:  haxmap.New[string, trace.Span](),
	}
	if f, ok := tp.(flusher); ok {
		e.provider = f
	}
	return e
}

type errorHandler struct{}

func (errorHandler) Handle(err error) {
	slog.Error("otel error", slogx.LoggerName("otelexport"), slogx.Error(err))
}

// Init builds an OTLP/HTTP tracer provider from cfg, installs it as the
// global provider and returns an exporter bound to it.
func Init(ctx context.Context, cfg Config) (*Exporter, error) {
	otel.SetErrorHandler(errorHandler{})

	options := []otlptracehttp.Option{
		otlptracehttp.WithHTTPClient(&http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}),
	}
	if cfg.Insecure {
		options = append(options, otlptracehttp.WithInsecure())
	}
	if cfg.Endpoint != "" {
		options = append(options, otlptracehttp.WithEndpoint(cfg.Endpoint))
	}
	if cfg.URLPath != "" {
		options = append(options, otlptracehttp.WithURLPath(cfg.URLPath))
	}
	if cfg.APIKey != "" {
		options = append(options, otlptracehttp.WithHeaders(map[string]string{
			"Authorization": "Bearer " + cfg.APIKey,
		}))
	}

	exporter, err := otlptracehttp.New(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("creating otlp exporter: %w", err)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "switchboard"
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return nil, fmt.Errorf("building otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return New(tp), nil
}

func (e *Exporter) OnTraceStart(t *tracing.Trace) {
	attrs := []attribute.KeyValue{attribute.String(AttrTraceID, t.ID)}
	if t.GroupID != "" {
		attrs = append(attrs, attribute.String(AttrGroupID, t.GroupID))
	}
	attrs = append(attrs, toAttributes("metadata.", t.Metadata)...)

	_, root := e.tracer.Start(context.Background(), t.Name,
		trace.WithNewRoot(),
		trace.WithTimestamp(t.StartedAt()),
		trace.WithAttributes(attrs...),
	)
	e.roots.Set(t.ID, root)
}

func (e *Exporter) OnTraceEnd(t *tracing.Trace) {
	root, ok := e.roots.Get(t.ID)
	if !ok {
		return
	}
	e.roots.Del(t.ID)
	root.End(trace.WithTimestamp(t.EndedAt()))
}

func (e *Exporter) parent(s *tracing.Span) context.Context {
	if s.ParentID != "" {
		if p, ok := e.spans.Get(s.ParentID); ok {
			return trace.ContextWithSpan(context.Background(), p)
		}
	}
	if root, ok := e.roots.Get(s.TraceID); ok {
		return trace.ContextWithSpan(context.Background(), root)
	}
	return context.Background()
}

func (e *Exporter) OnSpanStart(s *tracing.Span) {
	attrs := []attribute.KeyValue{attribute.String(AttrSpanType, string(s.Kind))}
	if s.Kind == tracing.KindFunction {
		attrs = append(attrs, attribute.String(AttrToolName, s.Name))
	}
	_, span := e.tracer.Start(e.parent(s), s.Name,
		trace.WithTimestamp(s.StartedAt()),
		trace.WithAttributes(attrs...),
	)
	e.spans.Set(s.ID, span)
}

func (e *Exporter) OnSpanEnd(s *tracing.Span) {
	span, ok := e.spans.Get(s.ID)
	if !ok {
		return
	}
	e.spans.Del(s.ID)

	data := s.Data()
	if model, ok := data["model"].(string); ok {
		span.SetAttributes(attribute.String(AttrModelName, model))
	}
	span.SetAttributes(toAttributes("span_data.", data)...)
	if se := s.Error(); se != nil {
		span.SetStatus(codes.Error, se.Message)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(s.EndedAt()))
}

func (e *Exporter) ForceFlush(ctx context.Context) error {
	if e.provider == nil {
		return nil
	}
	return e.provider.ForceFlush(ctx)
}

func (e *Exporter) Shutdown(ctx context.Context) error {
	if e.provider == nil {
		return nil
	}
	return e.provider.Shutdown(ctx)
}

func toAttributes(prefix string, values map[string]any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(values))
	for k, v := range values {
		key := prefix + k
		switch tv := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(key, tv))
		case bool:
			attrs = append(attrs, attribute.Bool(key, tv))
		case int:
			attrs = append(attrs, attribute.Int(key, tv))
		case int64:
			attrs = append(attrs, attribute.Int64(key, tv))
		case float64:
			attrs = append(attrs, attribute.Float64(key, tv))
		case []string:
			attrs = append(attrs, attribute.StringSlice(key, tv))
		case nil:
		default:
			attrs = append(attrs, attribute.String(key, fmt.Sprint(tv)))
		}
	}
	return attrs
}
