package tracing

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/casualjim/switchboard/pkg/uuidx"
	"github.com/fogfish/opts"
)

// Trace is the root record of a traced workflow.
type Trace struct {
	ID       string
	Name     string
	GroupID  string
	Metadata map[string]any

	mu        sync.Mutex
	startedAt time.Time
	endedAt   time.Time
	provider  *Provider
	noop      bool
}

type traceConfig struct {
	traceID  string
	groupID  string
	metadata map[string]any
	disabled bool
	provider *Provider
}

type Option = opts.Option[traceConfig]

var (
	// TraceID overrides the generated trace id.
	TraceID = opts.ForName[traceConfig, string]("traceID")
	// GroupID links traces of the same conversation.
	GroupID = opts.ForName[traceConfig, string]("groupID")
	// Disabled starts a trace that records nothing.
	Disabled = opts.ForName[traceConfig, bool]("disabled")
)

// Metadata attaches metadata to the trace.
func Metadata(md map[string]any) Option {
	return opts.Type[traceConfig](func(c *traceConfig) error {
		c.metadata = maps.Clone(md)
		return nil
	})
}

// WithProvider routes the trace to p instead of the default provider.
func WithProvider(p *Provider) Option {
	return opts.Type[traceConfig](func(c *traceConfig) error {
		c.provider = p
		return nil
	})
}

// NewTraceID returns trace_ followed by 32 hex characters.
func NewTraceID() string {
	return uuidx.Prefixed("trace", 32)
}

// NewSpanID returns span_ followed by 24 hex characters.
func NewSpanID() string {
	return uuidx.Prefixed("span", 24)
}

// Start begins a trace and makes it the active trace of the returned context.
func Start(ctx context.Context, name string, options ...Option) (context.Context, *Trace) {
	var cfg traceConfig
	if err := opts.Apply(&cfg, options); err != nil {
		panic(err)
	}
	prov := cfg.provider
	if prov == nil {
		prov = Default()
	}
	if cfg.traceID == "" {
		cfg.traceID = NewTraceID()
	}

	t := &Trace{
		ID:        cfg.traceID,
		Name:      name,
		GroupID:   cfg.groupID,
		Metadata:  cfg.metadata,
		startedAt: time.Now().UTC(),
		provider:  prov,
		noop:      cfg.disabled || prov.Disabled(),
	}
	if !t.noop {
		prov.traceStarted(t)
	}
	return WithTrace(ctx, t), t
}

// Finish ends the trace. Calling it more than once has no effect.
func (t *Trace) Finish() {
	if t == nil {
		return
	}
	t.mu.Lock()
	if !t.endedAt.IsZero() {
		t.mu.Unlock()
		return
	}
	t.endedAt = time.Now().UTC()
	t.mu.Unlock()

	if !t.noop {
		t.provider.traceEnded(t)
	}
}

// Recording reports whether the trace is handed to processors.
func (t *Trace) Recording() bool {
	return t != nil && !t.noop
}

func (t *Trace) StartedAt() time.Time {
	return t.startedAt
}

func (t *Trace) EndedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.endedAt
}

// Export returns the trace as a plain map.
func (t *Trace) Export() map[string]any {
	md := t.Metadata
	if md == nil {
		md = map[string]any{}
	}
	return map[string]any{
		"object":     "trace",
		"trace_id":   t.ID,
		"name":       t.Name,
		"group_id":   nullable(t.GroupID),
		"start_time": formatTime(t.startedAt),
		"end_time":   formatTime(t.EndedAt()),
		"metadata":   md,
	}
}

func formatTime(ts time.Time) any {
	if ts.IsZero() {
		return nil
	}
	return ts.Format(time.RFC3339Nano)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
