package dispute

import (
	"context"
	"log/slog"

	"github.com/casualjim/switchboard/payments"
	"github.com/casualjim/switchboard/pkg/slogx"
	"github.com/casualjim/switchboard/tool"
)

var (
	GetPhoneLogsTool = tool.Must(GetPhoneLogs,
		tool.Name("get_phone_logs"),
		tool.Description("Return a list of phone call records for the given phone number. Each record might include call timestamps, durations, notes, and an associated order_id if applicable."),
		tool.Parameters("phone_number"),
	)
	GetOrderTool = tool.Must(GetOrder,
		tool.Name("get_order"),
		tool.Description("Retrieve an order by ID from a predefined list of orders. Returns the corresponding order object or 'No order found'."),
		tool.Parameters("order_id"),
	)
	GetEmailsTool = tool.Must(GetEmails,
		tool.Name("get_emails"),
		tool.Description("Return a list of email records for the given email address."),
		tool.Parameters("email"),
	)
)

// PaymentTools exposes the payments API to the agents. Failures are logged
// and reported to the model as an empty object.
type PaymentTools struct {
	client payments.Client
}

func NewPaymentTools(client payments.Client) *PaymentTools {
	return &PaymentTools{client: client}
}

func (p *PaymentTools) RetrievePaymentIntent(ctx context.Context, paymentIntentID string) any {
	pi, err := p.client.RetrievePaymentIntent(ctx, paymentIntentID)
	if err != nil {
		slog.ErrorContext(ctx, "payments error occurred while retrieving payment intent", slogx.LoggerName("dispute"), slog.String("payment_intent", paymentIntentID), slogx.Error(err))
		return map[string]any{}
	}
	return pi
}

func (p *PaymentTools) CloseDispute(ctx context.Context, disputeID string) any {
	d, err := p.client.CloseDispute(ctx, disputeID)
	if err != nil {
		slog.ErrorContext(ctx, "payments error occurred while closing dispute", slogx.LoggerName("dispute"), slog.String("dispute", disputeID), slogx.Error(err))
		return map[string]any{}
	}
	return d
}

func (p *PaymentTools) RetrievePaymentIntentTool() tool.Definition {
	return tool.Must(p.RetrievePaymentIntent,
		tool.Name("retrieve_payment_intent"),
		tool.Description("Retrieve a payment intent by ID. Returns the payment intent object on success or an empty dictionary on failure."),
		tool.Parameters("payment_intent_id"),
	)
}

func (p *PaymentTools) CloseDisputeTool() tool.Definition {
	return tool.Must(p.CloseDispute,
		tool.Name("close_dispute"),
		tool.Description("Close a dispute by ID. Returns the dispute object on success or an empty dictionary on failure."),
		tool.Parameters("dispute_id"),
	)
}
