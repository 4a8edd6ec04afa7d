package guardrail

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/casualjim/switchboard/api"
	"github.com/casualjim/switchboard/provider/providertest"
	"github.com/casualjim/switchboard/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywords(t *testing.T) {
	check := Keywords(`solve\s+for\s+x`, "homework", "")
	ctx := context.Background()

	res, err := check(ctx, nil, "Can you help me with my HOMEWORK?", nil)
	require.NoError(t, err)
	assert.True(t, res.TripwireTriggered)
	assert.Equal(t, KeywordMatch{Pattern: "homework", Match: "HOMEWORK"}, res.Info)

	res, err = check(ctx, nil, "solve   for x: 2x + 3 = 11", nil)
	require.NoError(t, err)
	assert.True(t, res.TripwireTriggered)

	res, err = check(ctx, nil, "Where is my order?", nil)
	require.NoError(t, err)
	assert.False(t, res.TripwireTriggered)

	assert.Panics(t, func() { Keywords("(") })
}

func TestClassifier(t *testing.T) {
	ctx := context.Background()

	t.Run("flagged", func(t *testing.T) {
		prov := providertest.New(providertest.Text(`{"is_flagged":true,"reasoning":"asks to solve an equation"}`))
		check := Classifier(providertest.NewModel("guard-model", prov), "Check if the user is asking you to do their math homework.")

		res, err := check(ctx, nil, "Solve 2x + 3 = 11", nil)
		require.NoError(t, err)
		assert.True(t, res.TripwireTriggered)
		assert.Equal(t, Verdict{IsFlagged: true, Reasoning: "asks to solve an equation"}, res.Info)

		reqs := prov.Requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, "Check if the user is asking you to do their math homework.", reqs[0].Instructions)
		require.NotNil(t, reqs[0].ResponseSchema)
		assert.Equal(t, "guardrail_verdict", reqs[0].ResponseSchema.Name)
		require.Len(t, reqs[0].Messages, 1)
	})

	t.Run("not flagged", func(t *testing.T) {
		prov := providertest.New(providertest.Text(`{"is_flagged":false,"reasoning":"billing question"}`))
		check := Classifier(providertest.NewModel("guard-model", prov), "x")

		res, err := check(ctx, nil, "Where is my invoice?", nil)
		require.NoError(t, err)
		assert.False(t, res.TripwireTriggered)
	})

	t.Run("invalid verdict", func(t *testing.T) {
		prov := providertest.New(providertest.Text("not json"))
		_, err := Classifier(providertest.NewModel("guard-model", prov), "x")(ctx, nil, "hi", nil)
		require.Error(t, err)
	})

	t.Run("provider error", func(t *testing.T) {
		prov := providertest.New(providertest.Fail(errors.New("unavailable")))
		_, err := Classifier(providertest.NewModel("guard-model", prov), "x")(ctx, nil, "hi", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unavailable")
	})
}

func TestFallback(t *testing.T) {
	failing := func(context.Context, api.Agent, string, types.ContextVars) (api.GuardrailResult, error) {
		return api.GuardrailResult{}, errors.New("down")
	}
	check := Fallback(failing, Keywords("homework"))

	res, err := check(context.Background(), nil, "do my homework", nil)
	require.NoError(t, err)
	assert.True(t, res.TripwireTriggered)

	passing := Fallback(Keywords("never"), failing)
	res, err = passing(context.Background(), nil, "fine", nil)
	require.NoError(t, err)
	assert.False(t, res.TripwireTriggered)
}

func TestTripwireErrors(t *testing.T) {
	var err error = fmt.Errorf("run failed: %w", &InputTripwireError{Guardrail: "math_homework"})
	var inErr *InputTripwireError
	require.ErrorAs(t, err, &inErr)
	assert.Equal(t, "math_homework", inErr.Guardrail)
	assert.Equal(t, `input guardrail "math_homework" triggered tripwire`, inErr.Error())

	err = &OutputTripwireError{Guardrail: "math_output", Agent: "Customer support agent"}
	var outErr *OutputTripwireError
	require.ErrorAs(t, err, &outErr)
	assert.Contains(t, outErr.Error(), "Customer support agent")

	g := Input("in", Keywords("x"))
	assert.Equal(t, "in", g.Name)
	o := Output("out", Keywords("x"))
	assert.Equal(t, "out", o.Name)
}
