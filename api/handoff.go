package api

import (
	"context"

	"github.com/casualjim/switchboard/types"
)

// Handoff declares that the owning agent may delegate the conversation to Agent.
// The model sees it as a parameterless tool named ToolName.
type Handoff struct {
	Agent           Agent
	ToolName        string
	ToolDescription string

	// OnHandoff runs before the target agent takes over. An error aborts the run.
	OnHandoff func(context.Context, types.ContextVars) error
}
