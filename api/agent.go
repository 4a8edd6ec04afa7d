package api

import (
	"github.com/casualjim/switchboard/tool"
	"github.com/casualjim/switchboard/types"
)

// Agent is a named configuration of instructions, model, tools and hand-offs.
//
// Implementations are immutable once constructed; the runner only reads them.
type Agent interface {
	// Name identifies the agent in transcripts, logs and hand-off tool names.
	Name() string

	// Model returns the model used for this agent's turns.
	Model() Model

	// Instructions returns the raw, unrendered instructions.
	Instructions() string

	// HandoffDescription tells other agents when to hand off to this one.
	HandoffDescription() string

	Tools() []tool.Definition
	Handoffs() []Handoff
	InputGuardrails() []InputGuardrail
	OutputGuardrails() []OutputGuardrail

	// ParallelToolCalls reports whether several tool calls of one turn may run concurrently.
	ParallelToolCalls() bool

	// RenderInstructions renders the instructions as a template over the context variables.
	// Missing variables are an error.
	RenderInstructions(types.ContextVars) (string, error)
}
