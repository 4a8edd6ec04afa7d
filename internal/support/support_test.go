package support

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/casualjim/switchboard/internal/chat"
	"github.com/casualjim/switchboard/provider/providertest"
	"github.com/casualjim/switchboard/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(prov *providertest.Provider) *App {
	return New(providertest.NewModel("gemini-2.0-flash", prov), runner.WithTracingDisabled(true))
}

func TestHandoffNotice(t *testing.T) {
	assert.Equal(t,
		"🔄 **Handing off to Refund Agent...**\n\nI'm transferring your request to our refund agent who will be able to better assist you.",
		HandoffNotice("Refund Agent"))
}

func TestApp_Welcome(t *testing.T) {
	app := newApp(providertest.New())
	s := chat.NewSession("", nil)
	require.NoError(t, app.OnChatStart(context.Background(), s))

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, Welcome, msgs[0].Content)
	assert.Equal(t, chat.AuthorAssistant, msgs[0].Author)
}

func TestApp_Handoff(t *testing.T) {
	prov := providertest.New(
		providertest.ToolCalls(providertest.Call("call_1", "transfer_to_refund_agent", `{}`)),
		providertest.Text("Your refund is on its way."),
	)
	app := newApp(prov)
	s := chat.NewSession("", nil)
	ctx := context.Background()
	require.NoError(t, app.OnChatStart(ctx, s))
	require.NoError(t, app.OnMessage(ctx, s, "I want my money back"))

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "Your refund is on its way.", msgs[1].Content)
	assert.Equal(t, chat.AuthorSystem, msgs[2].Author)
	assert.Equal(t, HandoffNotice("Refund Agent"), msgs[2].Content)

	reqs := prov.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "You are a triage agent", reqs[0].Instructions)
	assert.Equal(t, []string{"transfer_to_billing_agent", "transfer_to_refund_agent"}, reqs[0].Tools)
	assert.Equal(t, "You are a refund agent", reqs[1].Instructions)
}

func TestApp_History(t *testing.T) {
	prov := providertest.New(
		providertest.Text("Hello, how can I help?"),
		providertest.Text("Your invoice is attached."),
	)
	app := newApp(prov)
	s := chat.NewSession("", nil)
	ctx := context.Background()
	require.NoError(t, app.OnChatStart(ctx, s))
	require.NoError(t, app.OnMessage(ctx, s, "hi"))
	require.NoError(t, app.OnMessage(ctx, s, "send me my invoice"))

	reqs := prov.Requests()
	require.Len(t, reqs, 2)
	assert.Len(t, reqs[0].Messages, 1)
	assert.Len(t, reqs[1].Messages, 3)

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "Hello, how can I help?", msgs[1].Content)
	assert.Equal(t, "Your invoice is attached.", msgs[2].Content)
}

func TestApp_RunError(t *testing.T) {
	app := newApp(providertest.New(providertest.Fail(errors.New("quota exceeded"))))
	s := chat.NewSession("", nil)
	ctx := context.Background()
	require.NoError(t, app.OnChatStart(ctx, s))
	require.NoError(t, app.OnMessage(ctx, s, "hi"))

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.True(t, strings.HasPrefix(msgs[1].Content, "Error: "), msgs[1].Content)
	assert.Contains(t, msgs[1].Content, "quota exceeded")
}

func TestApp_NotStarted(t *testing.T) {
	app := newApp(providertest.New())
	err := app.OnMessage(context.Background(), chat.NewSession("", nil), "hi")
	require.Error(t, err)
}
