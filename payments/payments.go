// Package payments defines the payments API the dispute workflow talks to.
package payments

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = errors.New("payments: not found")

type PaymentIntent struct {
	ID           string            `json:"id"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	Description  string            `json:"description,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LatestCharge string            `json:"latest_charge,omitempty"`
	Created      int64             `json:"created"`
}

type CreatePaymentIntentParams struct {
	Amount        int64
	Currency      string
	PaymentMethod string
	Confirm       bool
	OffSession    bool
	Metadata      map[string]string
}

type Dispute struct {
	ID            string `json:"id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	DueBy         int64  `json:"due_by,omitempty"`
	PaymentIntent string `json:"payment_intent"`
	Reason        string `json:"reason"`
	Status        string `json:"status"`
	CardBrand     string `json:"card_brand,omitempty"`
}

// Client is the subset of a payments API used by the dispute workflow.
type Client interface {
	CreatePaymentIntent(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error)
	RetrievePaymentIntent(ctx context.Context, id string) (*PaymentIntent, error)
	// ListDisputes returns the disputes raised against a payment intent, newest first.
	ListDisputes(ctx context.Context, paymentIntentID string) ([]Dispute, error)
	CloseDispute(ctx context.Context, id string) (*Dispute, error)
}

// DisputeSummary holds the dispute fields handed to the triage agent.
type DisputeSummary struct {
	DisputeID     string `json:"dispute_id"`
	Amount        int64  `json:"amount"`
	DueBy         int64  `json:"due_by"`
	PaymentIntent string `json:"payment_intent"`
	Reason        string `json:"reason"`
	Status        string `json:"status"`
	CardBrand     string `json:"card_brand"`
}

func Summarize(d Dispute) DisputeSummary {
	return DisputeSummary{
		DisputeID:     d.ID,
		Amount:        d.Amount,
		DueBy:         d.DueBy,
		PaymentIntent: d.PaymentIntent,
		Reason:        d.Reason,
		Status:        d.Status,
		CardBrand:     d.CardBrand,
	}
}

// FirstDisputeSummary summarizes the first dispute of a payment intent. It
// returns nil without error when the payment intent has no disputes.
func FirstDisputeSummary(ctx context.Context, c Client, paymentIntentID string) (*DisputeSummary, error) {
	disputes, err := c.ListDisputes(ctx, paymentIntentID)
	if err != nil {
		return nil, err
	}
	if len(disputes) == 0 {
		return nil, nil
	}
	s := Summarize(disputes[0])
	return &s, nil
}
