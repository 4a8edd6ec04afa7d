package dispute

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/casualjim/switchboard/payments"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

// DefaultTaskQueue is the task queue the dispute worker polls.
const DefaultTaskQueue = "dispute-processing"

// Outcome is the result of DisputeWorkflow. Summary is nil when the payment
// intent has no dispute.
type Outcome struct {
	Summary *payments.DisputeSummary `json:"summary,omitempty"`
	Output  string                   `json:"output"`
}

// Activities are the steps of DisputeWorkflow.
type Activities struct {
	processor *Processor
}

func NewActivities(p *Processor) *Activities {
	return &Activities{processor: p}
}

func (a *Activities) SummarizeDispute(ctx context.Context, paymentIntentID string) (*payments.DisputeSummary, error) {
	activity.GetLogger(ctx).Info("summarizing dispute", "payment_intent", paymentIntentID)
	return a.processor.Summarize(ctx, paymentIntentID)
}

func (a *Activities) TriageDispute(ctx context.Context, summary payments.DisputeSummary) (string, error) {
	activity.GetLogger(ctx).Info("triaging dispute", "dispute", summary.DisputeID)
	return a.processor.Triage(ctx, summary)
}

// DisputeWorkflow processes the dispute of a payment intent durably.
func DisputeWorkflow(ctx workflow.Context, paymentIntentID string) (Outcome, error) {
	log := workflow.GetLogger(ctx)
	var a *Activities

	sctx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    1 * time.Second,
			MaximumInterval:    10 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    3,
		},
	})
	var summary *payments.DisputeSummary
	if err := workflow.ExecuteActivity(sctx, a.SummarizeDispute, paymentIntentID).Get(ctx, &summary); err != nil {
		return Outcome{}, err
	}
	if summary == nil {
		log.Warn("no dispute found", "payment_intent", paymentIntentID)
		return Outcome{}, nil
	}

	// Triage may close the dispute, so it is not retried.
	tctx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	var output string
	if err := workflow.ExecuteActivity(tctx, a.TriageDispute, *summary).Get(ctx, &output); err != nil {
		return Outcome{Summary: summary}, err
	}
	return Outcome{Summary: summary, Output: output}, nil
}

// NewWorker creates a worker for DisputeWorkflow and its activities.
func NewWorker(c client.Client, taskQueue string, acts *Activities) worker.Worker {
	if taskQueue == "" {
		taskQueue = DefaultTaskQueue
	}
	w := worker.New(c, taskQueue, worker.Options{})
	w.RegisterWorkflow(DisputeWorkflow)
	w.RegisterActivity(acts)
	return w
}

// Execute starts DisputeWorkflow for a payment intent and waits for its outcome.
func Execute(ctx context.Context, c client.Client, taskQueue, paymentIntentID string) (Outcome, error) {
	if taskQueue == "" {
		taskQueue = DefaultTaskQueue
	}
	id := "dispute-" + paymentIntentID
	// A payment intent whose dispute was already triaged is not triaged again,
	// the earlier result is returned instead.
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                    id,
		TaskQueue:             taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE_FAILED_ONLY,
	}, DisputeWorkflow, paymentIntentID)
	var started *serviceerror.WorkflowExecutionAlreadyStarted
	switch {
	case errors.As(err, &started):
		run = c.GetWorkflow(ctx, id, "")
	case err != nil:
		return Outcome{}, fmt.Errorf("starting dispute workflow: %w", err)
	}

	var out Outcome
	if err := run.Get(ctx, &out); err != nil {
		return Outcome{}, fmt.Errorf("dispute workflow %s: %w", id, err)
	}
	return out, nil
}
