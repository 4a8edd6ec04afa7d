// Package dispute triages payment disputes with a team of agents: a triage
// agent looks up the order behind a disputed payment and either accepts the
// dispute or hands it to an investigator that compiles the evidence.
package dispute

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/casualjim/switchboard/api"
	"github.com/casualjim/switchboard/payments"
	"github.com/casualjim/switchboard/pkg/slogx"
	"github.com/casualjim/switchboard/runner"
	json "github.com/goccy/go-json"
)

// DemoPaymentIntent creates a payment that the test card turns into a
// "product not received" dispute for order 1234.
var DemoPaymentIntent = payments.CreatePaymentIntentParams{
	Amount:        2000,
	Currency:      "usd",
	PaymentMethod: "pm_card_createDisputeProductNotReceived",
	Confirm:       true,
	OffSession:    true,
	Metadata:      map[string]string{"order_id": "1234"},
}

// Processor runs the dispute agents against the disputes of a payment intent.
type Processor struct {
	client  payments.Client
	triage  api.Agent
	options []runner.Option
}

func NewProcessor(client payments.Client, model api.Model, options ...runner.Option) *Processor {
	return &Processor{
		client:  client,
		triage:  Agents(model, NewPaymentTools(client)),
		options: options,
	}
}

// Summarize extracts the first dispute of a payment intent. It returns nil
// when the payment intent has no dispute.
func (p *Processor) Summarize(ctx context.Context, paymentIntentID string) (*payments.DisputeSummary, error) {
	summary, err := payments.FirstDisputeSummary(ctx, p.client, paymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("listing disputes of %s: %w", paymentIntentID, err)
	}
	if summary == nil {
		slog.WarnContext(ctx, "no dispute data found for payment intent", slogx.LoggerName("dispute"), slog.String("payment_intent", paymentIntentID))
	}
	return summary, nil
}

// Triage hands the dispute summary to the triage agent and returns its final output.
func (p *Processor) Triage(ctx context.Context, summary payments.DisputeSummary) (string, error) {
	event, err := json.Marshal(summary)
	if err != nil {
		return "", err
	}
	result, err := runner.Run(ctx, p.triage, runner.Text(string(event)), p.options...)
	if err != nil {
		return "", fmt.Errorf("triaging dispute %s: %w", summary.DisputeID, err)
	}
	slog.InfoContext(ctx, "workflow result", slogx.LoggerName("dispute"), slog.String("dispute", summary.DisputeID), slogx.Agent(result.LastAgent.Name()), slog.String("output", result.FinalOutput))
	return result.FinalOutput, nil
}

// ProcessDispute summarizes and triages the dispute of a payment intent. The
// summary is nil, and the output empty, when there is no dispute.
func (p *Processor) ProcessDispute(ctx context.Context, paymentIntentID string) (*payments.DisputeSummary, string, error) {
	summary, err := p.Summarize(ctx, paymentIntentID)
	if err != nil || summary == nil {
		return nil, "", err
	}
	output, err := p.Triage(ctx, *summary)
	if err != nil {
		return summary, "", err
	}
	return summary, output, nil
}
