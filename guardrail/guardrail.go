// Package guardrail builds input and output guardrails and the errors raised when they trip.
package guardrail

import (
	"context"
	"fmt"

	"github.com/casualjim/switchboard/api"
	"github.com/casualjim/switchboard/types"
)

// CheckFunc inspects a piece of text on behalf of agent.
type CheckFunc func(ctx context.Context, agent api.Agent, text string, cv types.ContextVars) (api.GuardrailResult, error)

// Input creates an input guardrail.
func Input(name string, check CheckFunc) api.InputGuardrail {
	return api.InputGuardrail{Name: name, Check: check}
}

// Output creates an output guardrail.
func Output(name string, check CheckFunc) api.OutputGuardrail {
	return api.OutputGuardrail{Name: name, Check: check}
}

// InputTripwireError aborts a run whose input tripped a guardrail.
type InputTripwireError struct {
	Guardrail string
	Result    api.GuardrailResult
}

func (e *InputTripwireError) Error() string {
	return fmt.Sprintf("input guardrail %q triggered tripwire", e.Guardrail)
}

// OutputTripwireError rejects a final output that tripped a guardrail.
type OutputTripwireError struct {
	Guardrail string
	Agent     string
	Result    api.GuardrailResult
}

func (e *OutputTripwireError) Error() string {
	return fmt.Sprintf("output guardrail %q triggered tripwire on output of %s", e.Guardrail, e.Agent)
}

// Fallback runs primary and only consults fallback when primary fails with an error.
func Fallback(primary, fallback CheckFunc) CheckFunc {
	return func(ctx context.Context, agent api.Agent, text string, cv types.ContextVars) (api.GuardrailResult, error) {
		res, err := primary(ctx, agent, text, cv)
		if err == nil {
			return res, nil
		}
		return fallback(ctx, agent, text, cv)
	}
}
