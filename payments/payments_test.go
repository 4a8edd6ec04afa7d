package payments_test

import (
	"context"
	"errors"
	"testing"

	"github.com/casualjim/switchboard/payments"
	"github.com/casualjim/switchboard/payments/paymentstest"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestFirstDisputeSummary(t *testing.T) {
	ctx := context.Background()
	fake := paymentstest.New()
	fake.AddDispute(payments.Dispute{
		ID:            "dp_1",
		Amount:        2000,
		Currency:      "usd",
		DueBy:         1700000000,
		PaymentIntent: "pi_1",
		Reason:        "product_not_received",
		Status:        "needs_response",
		CardBrand:     "visa",
	})
	fake.AddDispute(payments.Dispute{ID: "dp_2", PaymentIntent: "pi_1"})

	t.Run("summarizes the first dispute", func(t *testing.T) {
		s, err := payments.FirstDisputeSummary(ctx, fake, "pi_1")
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, payments.DisputeSummary{
			DisputeID:     "dp_1",
			Amount:        2000,
			DueBy:         1700000000,
			PaymentIntent: "pi_1",
			Reason:        "product_not_received",
			Status:        "needs_response",
			CardBrand:     "visa",
		}, *s)

		b, err := json.Marshal(s)
		require.NoError(t, err)
		for _, key := range []string{"dispute_id", "amount", "due_by", "payment_intent", "reason", "status", "card_brand"} {
			assert.True(t, gjson.GetBytes(b, key).Exists(), key)
		}
	})

	t.Run("no dispute", func(t *testing.T) {
		s, err := payments.FirstDisputeSummary(ctx, fake, "pi_other")
		require.NoError(t, err)
		assert.Nil(t, s)
	})

	t.Run("client error", func(t *testing.T) {
		failing := paymentstest.New()
		failing.Err = errors.New("api down")
		_, err := payments.FirstDisputeSummary(ctx, failing, "pi_1")
		require.Error(t, err)
	})
}
