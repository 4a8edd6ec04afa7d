package api

import (
	"context"

	"github.com/casualjim/switchboard/types"
)

// GuardrailResult is the verdict of a guardrail check.
type GuardrailResult struct {
	TripwireTriggered bool
	Info              any
}

// InputGuardrail checks the user input before the first model call of a run.
type InputGuardrail struct {
	Name  string
	Check func(ctx context.Context, agent Agent, input string, cv types.ContextVars) (GuardrailResult, error)
}

// OutputGuardrail checks the final output of the agent that produced it.
type OutputGuardrail struct {
	Name  string
	Check func(ctx context.Context, agent Agent, output string, cv types.ContextVars) (GuardrailResult, error)
}
