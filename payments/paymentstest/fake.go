// Package paymentstest provides an in-memory payments.Client for tests.
package paymentstest

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/casualjim/switchboard/payments"
)

// Fake keeps payment intents and disputes in memory.
type Fake struct {
	mu       sync.Mutex
	intents  map[string]payments.PaymentIntent
	disputes []payments.Dispute
	closed   []string
	seq      int

	// Err, when set, is returned by every call.
	Err error
}

func New() *Fake {
	return &Fake{intents: make(map[string]payments.PaymentIntent)}
}

// AddPaymentIntent stores pi as is.
func (f *Fake) AddPaymentIntent(pi payments.PaymentIntent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents[pi.ID] = pi
}

// AddDispute stores d as is.
func (f *Fake) AddDispute(d payments.Dispute) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disputes = append(f.disputes, d)
}

// Closed returns the ids of the disputes closed so far.
func (f *Fake) Closed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.closed...)
}

func (f *Fake) CreatePaymentIntent(_ context.Context, params payments.CreatePaymentIntentParams) (*payments.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	f.seq++
	pi := payments.PaymentIntent{
		ID:       fmt.Sprintf("pi_test_%d", f.seq),
		Amount:   params.Amount,
		Currency: params.Currency,
		Status:   "requires_payment_method",
		Metadata: maps.Clone(params.Metadata),
	}
	if params.Confirm {
		pi.Status = "succeeded"
	}
	f.intents[pi.ID] = pi
	return &pi, nil
}

func (f *Fake) RetrievePaymentIntent(_ context.Context, id string) (*payments.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	pi, ok := f.intents[id]
	if !ok {
		return nil, fmt.Errorf("payment intent %s: %w", id, payments.ErrNotFound)
	}
	return &pi, nil
}

func (f *Fake) ListDisputes(_ context.Context, paymentIntentID string) ([]payments.Dispute, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	var out []payments.Dispute
	for _, d := range f.disputes {
		if d.PaymentIntent == paymentIntentID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *Fake) CloseDispute(_ context.Context, id string) (*payments.Dispute, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	for i, d := range f.disputes {
		if d.ID == id {
			f.disputes[i].Status = "lost"
			f.closed = append(f.closed, id)
			closed := f.disputes[i]
			return &closed, nil
		}
	}
	return nil, fmt.Errorf("dispute %s: %w", id, payments.ErrNotFound)
}

var _ payments.Client = (*Fake)(nil)
