package dispute

import (
	"github.com/casualjim/switchboard/agent"
	"github.com/casualjim/switchboard/api"
	"github.com/casualjim/switchboard/handoff"
)

const (
	InvestigatorAgentName  = "Dispute Intake Agent"
	AcceptDisputeAgentName = "Accept Dispute Agent"
	TriageAgentName        = "Triage Agent"
)

const investigatorInstructions = "As a dispute investigator, please compile the following details in your final output:\n\n" +
	"Dispute Details:\n" +
	"- Dispute ID\n" +
	"- Amount\n" +
	"- Reason for Dispute\n" +
	"- Card Brand\n\n" +
	"Payment & Order Details:\n" +
	"- Fulfillment status of the order\n" +
	"- Shipping carrier and tracking number\n" +
	"- Confirmation of TOS acceptance\n\n" +
	"Email and Phone Records:\n" +
	"- Any relevant email threads (include the full body text)\n" +
	"- Any relevant phone logs\n"

const acceptDisputeInstructions = "You are an agent responsible for accepting disputes. Please do the following:\n" +
	"1. Use the provided dispute ID to close the dispute.\n" +
	"2. Provide a short explanation of why the dispute is being accepted.\n" +
	"3. Reference any relevant order details (e.g., unfulfilled order, etc.) retrieved from the database.\n\n" +
	"Then, produce your final output in this exact format:\n\n" +
	"Dispute Details:\n" +
	"- Dispute ID\n" +
	"- Amount\n" +
	"- Reason for Dispute\n\n" +
	"Order Details:\n" +
	"- Fulfillment status of the order\n\n" +
	"Reasoning for closing the dispute\n"

const triageInstructions = "Please do the following:\n" +
	"1. Find the order ID from the payment intent's metadata.\n" +
	"2. Retrieve detailed information about the order (e.g., shipping status).\n" +
	"3. If the order has shipped, escalate this dispute to the investigator agent.\n" +
	"4. If the order has not shipped, accept the dispute.\n"

// Agents builds the triage agent and the two agents it can hand off to.
func Agents(model api.Model, pt *PaymentTools) api.Agent {
	investigator := agent.New(
		agent.Name(InvestigatorAgentName),
		agent.Instructions(investigatorInstructions),
		agent.Model(model),
		agent.Tools(GetEmailsTool, GetPhoneLogsTool),
	)
	acceptDispute := agent.New(
		agent.Name(AcceptDisputeAgentName),
		agent.Instructions(acceptDisputeInstructions),
		agent.Model(model),
		agent.Tools(pt.CloseDisputeTool()),
	)
	return agent.New(
		agent.Name(TriageAgentName),
		agent.Instructions(triageInstructions),
		agent.Model(model),
		agent.Tools(pt.RetrievePaymentIntentTool(), GetOrderTool),
		agent.Handoffs(
			handoff.To(acceptDispute),
			handoff.To(investigator),
		),
	)
}
