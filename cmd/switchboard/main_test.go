package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/casualjim/switchboard/agent"
	"github.com/casualjim/switchboard/payments"
	"github.com/casualjim/switchboard/provider/openai"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintDispute(t *testing.T) {
	var out bytes.Buffer
	printDispute(&out, &payments.DisputeSummary{DisputeID: "dp_1", Amount: 2000, Reason: "product_not_received"}, "accepted")
	got := out.String()
	assert.Contains(t, got, "Relevant Data: ")
	assert.Contains(t, got, "dp_1")
	assert.Contains(t, got, "2000")
	assert.Contains(t, got, "Triage Result: accepted\n")

	out.Reset()
	printDispute(&out, nil, "")
	assert.Equal(t, "No dispute found.\n", out.String())
}

func TestInterruptOn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := interruptOn(ctx)
	cancel()

	select {
	case <-ch:
	case <-time.After(time.Second):
		require.Fail(t, "interrupt channel was not closed")
	}
}

func TestCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"agents", "chat", "dispute", "tools", "trace"} {
		assert.True(t, names[want], want)
	}

	sub, _, err := rootCmd.Find([]string{"chat", "guarded"})
	require.NoError(t, err)
	assert.Equal(t, "guarded", sub.Name())

	sub, _, err = rootCmd.Find([]string{"dispute", "worker"})
	require.NoError(t, err)
	assert.Equal(t, "worker", sub.Name())
}

func TestPrintAgents(t *testing.T) {
	color.NoColor = true
	root := demoAgents["support"](openai.Model("test-model"))
	names := agent.AddGraph(root)
	t.Cleanup(func() {
		for _, n := range names {
			agent.Del(n)
		}
	})
	assert.Equal(t, []string{"Triage Agent", "Billing Agent", "Refund Agent"}, names)

	var out bytes.Buffer
	require.NoError(t, printAgents(&out, names))
	got := out.String()
	assert.Contains(t, got, "Triage Agent (test-model)\n")
	assert.Contains(t, got, "  Please hand off to the appropriate agent.\n")
	assert.Contains(t, got, "  -> Billing Agent\n  -> Refund Agent\n")

	require.Error(t, printAgents(&out, []string{"Nobody"}))
	assert.Equal(t, []string{"dispute", "guarded", "support", "tools", "trace"}, demoNames())
}
