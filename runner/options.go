package runner

import (
	"github.com/casualjim/switchboard/api"
	"github.com/casualjim/switchboard/provider"
	"github.com/casualjim/switchboard/tracing"
	"github.com/casualjim/switchboard/types"
	"github.com/fogfish/opts"
)

const (
	DefaultMaxTurns     = 10
	DefaultWorkflowName = "Agent workflow"
)

type config struct {
	model           api.Model
	maxTurns        int
	contextVars     types.ContextVars
	tracingDisabled bool
	workflowName    string
	groupID         string
	traceProvider   *tracing.Provider
	hooks           Hooks
	outputSchema    *provider.StructuredOutput
	stream          bool
}

type Option = opts.Option[config]

var (
	// WithMaxTurns bounds the number of model calls of a run.
	WithMaxTurns = opts.ForName[config, int]("maxTurns")
	// WithTracingDisabled runs without recording a trace.
	WithTracingDisabled = opts.ForName[config, bool]("tracingDisabled")
	// WithWorkflowName names the trace started for the run.
	WithWorkflowName = opts.ForName[config, string]("workflowName")
	// WithGroupID links the trace of the run to other traces of the same conversation.
	WithGroupID = opts.ForName[config, string]("groupID")
)

// WithModel makes every agent of the run use model instead of its own.
func WithModel(model api.Model) Option {
	return opts.Type[config](func(c *config) error {
		c.model = model
		return nil
	})
}

// WithContextVars seeds the context variables of the run.
func WithContextVars(cv types.ContextVars) Option {
	return opts.Type[config](func(c *config) error {
		c.contextVars = cv.Clone()
		return nil
	})
}

func WithHooks(hooks Hooks) Option {
	return opts.Type[config](func(c *config) error {
		c.hooks = hooks
		return nil
	})
}

// WithTraceProvider records the trace of the run on p instead of the default provider.
func WithTraceProvider(p *tracing.Provider) Option {
	return opts.Type[config](func(c *config) error {
		c.traceProvider = p
		return nil
	})
}

// WithOutputSchema asks the model for a final output matching the schema.
func WithOutputSchema(schema *provider.StructuredOutput) Option {
	return opts.Type[config](func(c *config) error {
		c.outputSchema = schema
		return nil
	})
}

func newConfig(options []Option) (*config, error) {
	cfg := &config{
		maxTurns:     DefaultMaxTurns,
		workflowName: DefaultWorkflowName,
	}
	if err := opts.Apply(cfg, options); err != nil {
		return nil, err
	}
	if cfg.maxTurns <= 0 {
		cfg.maxTurns = DefaultMaxTurns
	}
	if cfg.contextVars == nil {
		cfg.contextVars = make(types.ContextVars)
	}
	if cfg.hooks == nil {
		cfg.hooks = NoopHooks{}
	}
	return cfg, nil
}
