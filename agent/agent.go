package agent

import (
	"errors"
	"os"
	"strings"
	"text/template"

	"github.com/casualjim/switchboard/api"
	"github.com/casualjim/switchboard/provider/openai"
	"github.com/casualjim/switchboard/tool"
	"github.com/casualjim/switchboard/types"
	"github.com/fogfish/opts"
)

// DefaultModelName is used when neither the Model option nor OPENAI_DEFAULT_MODEL is set.
const DefaultModelName = "gpt-4o-mini"

var _ api.Agent = (*defaultAgent)(nil)

type defaultAgent struct {
	name               string
	model              api.Model
	instructions       string
	handoffDescription string
	tools              []tool.Definition
	handoffs           []api.Handoff
	inputGuardrails    []api.InputGuardrail
	outputGuardrails   []api.OutputGuardrail
	parallelToolCalls  bool
}

func (a *defaultAgent) Name() string {
	return a.name
}

func (a *defaultAgent) Model() api.Model {
	return a.model
}

func (a *defaultAgent) Instructions() string {
	return a.instructions
}

func (a *defaultAgent) HandoffDescription() string {
	return a.handoffDescription
}

func (a *defaultAgent) Tools() []tool.Definition {
	return a.tools
}

func (a *defaultAgent) Handoffs() []api.Handoff {
	return a.handoffs
}

func (a *defaultAgent) InputGuardrails() []api.InputGuardrail {
	return a.inputGuardrails
}

func (a *defaultAgent) OutputGuardrails() []api.OutputGuardrail {
	return a.outputGuardrails
}

func (a *defaultAgent) ParallelToolCalls() bool {
	return a.parallelToolCalls
}

// RenderInstructions renders the agent's instructions with the provided context variables.
func (a *defaultAgent) RenderInstructions(cv types.ContextVars) (string, error) {
	if !strings.Contains(a.instructions, "{{") {
		return a.instructions, nil
	}
	return renderTemplate(a.name, a.instructions, cv)
}

func renderTemplate(name, templateStr string, cv types.ContextVars) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, cv); err != nil {
		return "", err
	}

	return buf.String(), nil
}

type Option = opts.Option[defaultAgent]

var (
	Name               = opts.ForName[defaultAgent, string]("name")
	Model              = opts.ForName[defaultAgent, api.Model]("model")
	Instructions       = opts.ForName[defaultAgent, string]("instructions")
	HandoffDescription = opts.ForName[defaultAgent, string]("handoffDescription")
	ParallelToolCalls  = opts.ForName[defaultAgent, bool]("parallelToolCalls")
)

func Tools(tool tool.Definition, extraTools ...tool.Definition) Option {
	return opts.Type[defaultAgent](func(o *defaultAgent) error {
		o.tools = append(o.tools, tool)
		o.tools = append(o.tools, extraTools...)
		return nil
	})
}

func Handoffs(handoffs ...api.Handoff) Option {
	return opts.Type[defaultAgent](func(o *defaultAgent) error {
		o.handoffs = append(o.handoffs, handoffs...)
		return nil
	})
}

func InputGuardrails(guardrails ...api.InputGuardrail) Option {
	return opts.Type[defaultAgent](func(o *defaultAgent) error {
		o.inputGuardrails = append(o.inputGuardrails, guardrails...)
		return nil
	})
}

func OutputGuardrails(guardrails ...api.OutputGuardrail) Option {
	return opts.Type[defaultAgent](func(o *defaultAgent) error {
		o.outputGuardrails = append(o.outputGuardrails, guardrails...)
		return nil
	})
}

// DefaultModel returns the model named by OPENAI_DEFAULT_MODEL, or gpt-4o-mini.
func DefaultModel() api.Model {
	name := os.Getenv("OPENAI_DEFAULT_MODEL")
	if name == "" {
		name = DefaultModelName
	}
	return openai.Model(name)
}

// New creates an agent, panicking when an option is invalid.
func New(options ...Option) api.Agent {
	a, err := TryNew(options...)
	if err != nil {
		panic(err)
	}
	return a
}

// TryNew creates an agent, returning an error when an option is invalid.
func TryNew(options ...Option) (api.Agent, error) {
	agent := &defaultAgent{
		parallelToolCalls: true,
	}
	if err := opts.Apply(agent, options); err != nil {
		return nil, err
	}
	if agent.name == "" {
		return nil, errors.New("agent name is required")
	}
	if agent.model == nil {
		agent.model = DefaultModel()
	}
	return agent, nil
}
