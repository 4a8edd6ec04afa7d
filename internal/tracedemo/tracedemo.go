// Package tracedemo runs two dependent agent runs under a single trace.
package tracedemo

import (
	"context"
	"fmt"
	"io"

	"github.com/casualjim/switchboard/agent"
	"github.com/casualjim/switchboard/api"
	"github.com/casualjim/switchboard/runner"
	"github.com/casualjim/switchboard/tracing"
)

const WorkflowName = "Tracing workflow"

type Outcome struct {
	TraceID string
	Result  string
	Rating  string
}

func NewAgent(model api.Model) api.Agent {
	return agent.New(
		agent.Name("Tracing Agent"),
		agent.Instructions("Perform example tasks."),
		agent.Model(model),
	)
}

// Run asks a to perform a task, then to rate its own result, and prints both.
func Run(ctx context.Context, w io.Writer, a api.Agent, options ...tracing.Option) (*Outcome, error) {
	ctx, tr := tracing.Start(ctx, WorkflowName, options...)
	defer tr.Finish()

	first, err := runner.Run(ctx, a, runner.Text("Start the task"))
	if err != nil {
		return nil, fmt.Errorf("running task: %w", err)
	}
	second, err := runner.Run(ctx, a, runner.Text("Rate this result: "+first.FinalOutput))
	if err != nil {
		return nil, fmt.Errorf("rating result: %w", err)
	}

	fmt.Fprintf(w, "Result: %s\n", first.FinalOutput)
	fmt.Fprintf(w, "Rating: %s\n", second.FinalOutput)
	return &Outcome{TraceID: tr.ID, Result: first.FinalOutput, Rating: second.FinalOutput}, nil
}
