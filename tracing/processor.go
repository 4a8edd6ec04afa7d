package tracing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/casualjim/switchboard/pkg/slogx"
)

// Processor receives trace and span lifecycle notifications.
type Processor interface {
	OnTraceStart(*Trace)
	OnTraceEnd(*Trace)
	OnSpanStart(*Span)
	OnSpanEnd(*Span)
	ForceFlush(context.Context) error
	Shutdown(context.Context) error
}

// Provider fans trace events out to its processors.
type Provider struct {
	mu         sync.RWMutex
	processors []Processor
	disabled   bool
}

func NewProvider(processors ...Processor) *Provider {
	return &Provider{processors: processors}
}

var defaultProvider = NewProvider(NewLogProcessor(nil))

// Default returns the process wide provider.
func Default() *Provider {
	return defaultProvider
}

// SetProcessors replaces the processors of the default provider.
func SetProcessors(processors ...Processor) {
	defaultProvider.SetProcessors(processors...)
}

// AddProcessor appends a processor to the default provider.
func AddProcessor(p Processor) {
	defaultProvider.AddProcessor(p)
}

// SetDisabled turns the default provider off or on.
func SetDisabled(disabled bool) {
	defaultProvider.SetDisabled(disabled)
}

func (p *Provider) SetProcessors(processors ...Processor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processors = slices.Clone(processors)
}

func (p *Provider) AddProcessor(proc Processor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processors = append(p.processors, proc)
}

func (p *Provider) SetDisabled(disabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disabled = disabled
}

func (p *Provider) Disabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.disabled
}

func (p *Provider) snapshot() []Processor {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.processors)
}

func (p *Provider) each(event string, fn func(Processor)) {
	for _, proc := range p.snapshot() {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("trace processor failed",
						slogx.LoggerName("tracing"),
						slog.String("event", event),
						slog.String("processor", fmt.Sprintf("%T", proc)),
						slog.Any("panic", r),
					)
				}
			}()
			fn(proc)
		}()
	}
}

func (p *Provider) traceStarted(t *Trace) {
	p.each("trace_start", func(proc Processor) { proc.OnTraceStart(t) })
}

func (p *Provider) traceEnded(t *Trace) {
	p.each("trace_end", func(proc Processor) { proc.OnTraceEnd(t) })
}

func (p *Provider) spanStarted(s *Span) {
	p.each("span_start", func(proc Processor) { proc.OnSpanStart(s) })
}

func (p *Provider) spanEnded(s *Span) {
	p.each("span_end", func(proc Processor) { proc.OnSpanEnd(s) })
}

// ForceFlush flushes every processor and joins their errors.
func (p *Provider) ForceFlush(ctx context.Context) error {
	var err error
	for _, proc := range p.snapshot() {
		err = errors.Join(err, proc.ForceFlush(ctx))
	}
	return err
}

// Shutdown shuts every processor down and joins their errors.
func (p *Provider) Shutdown(ctx context.Context) error {
	var err error
	for _, proc := range p.snapshot() {
		err = errors.Join(err, proc.Shutdown(ctx))
	}
	return err
}
