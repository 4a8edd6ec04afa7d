package guarded

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/casualjim/switchboard/internal/chat"
	"github.com/casualjim/switchboard/messages"
	"github.com/casualjim/switchboard/provider/providertest"
	"github.com/casualjim/switchboard/runner"
	"github.com/casualjim/switchboard/store"
	"github.com/casualjim/switchboard/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	notFlagged = `{"is_flagged":false,"reasoning":"a support question"}`
	flagged    = `{"is_flagged":true,"reasoning":"math homework"}`
)

type memStore struct {
	mu      sync.Mutex
	data    map[string][]messages.Item
	loadErr error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]messages.Item)}
}

func (m *memStore) Save(_ context.Context, sessionID string, items []messages.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[sessionID] = items
	return nil
}

func (m *memStore) Load(_ context.Context, sessionID string) ([]messages.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.data[sessionID], nil
}

var _ store.ChatHistories = (*memStore)(nil)

func always(turn providertest.Turn) *providertest.Provider {
	p := providertest.New()
	p.Respond = func(providertest.Request) providertest.Turn { return turn }
	return p
}

func newApp(agentProv, guardProv *providertest.Provider, histories store.ChatHistories) *App {
	a := NewAgent(
		providertest.NewModel("gemini-2.0-flash", agentProv),
		providertest.NewModel("gemini-2.0-flash", guardProv),
	)
	return New(a, histories, runner.WithTracingDisabled(true))
}

func lastMessage(t *testing.T, s *chat.Session) chat.Message {
	t.Helper()
	msgs := s.Messages()
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

func TestApp_Welcome(t *testing.T) {
	app := newApp(providertest.New(), providertest.New(), newMemStore())
	s := chat.NewSession("", nil)
	require.NoError(t, app.OnChatStart(context.Background(), s))

	id := SessionID(s)
	require.NotEmpty(t, id)
	assert.Equal(t, Welcome(id), lastMessage(t, s).Content)
	assert.Contains(t, lastMessage(t, s).Content, "(Your session ID: "+id+")")
}

func TestApp_SavesTranscript(t *testing.T) {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "guarded.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	agentProv := providertest.New(providertest.Text("Your order ships tomorrow."))
	guardProv := always(providertest.Text(notFlagged))
	app := newApp(agentProv, guardProv, db)

	ctx := context.Background()
	s := chat.NewSession("", nil)
	require.NoError(t, app.OnChatStart(ctx, s))
	require.NoError(t, app.OnMessage(ctx, s, "When does my order ship?"))

	assert.Equal(t, "Your order ships tomorrow.", lastMessage(t, s).Content)

	saved, err := db.Load(ctx, SessionID(s))
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, messages.RoleUser, saved[0].Role)
	assert.Equal(t, "When does my order ship?", saved[0].Content)
	assert.Equal(t, messages.RoleAssistant, saved[1].Role)
	assert.Equal(t, "Your order ships tomorrow.", saved[1].Content)

	assert.Len(t, guardProv.Requests(), 2)
}

func TestApp_Guardrails(t *testing.T) {
	tests := []struct {
		name          string
		guard         *providertest.Provider
		agentTurns    []providertest.Turn
		input         string
		agentRequests int
	}{
		{
			name:          "input classifier flags homework",
			guard:         providertest.New(providertest.Text(flagged)),
			input:         "What is the derivative of x^2?",
			agentRequests: 0,
		},
		{
			name:          "output classifier flags homework",
			guard:         providertest.New(providertest.Text(notFlagged), providertest.Text(flagged)),
			agentTurns:    []providertest.Turn{providertest.Text("x = 4")},
			input:         "Can you help me?",
			agentRequests: 1,
		},
		{
			name:          "keywords catch homework when the classifier fails",
			guard:         always(providertest.Fail(errors.New("classifier unavailable"))),
			input:         "Solve 2x + 3 = 7 for me",
			agentRequests: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agentProv := providertest.New(tt.agentTurns...)
			histories := newMemStore()
			app := newApp(agentProv, tt.guard, histories)

			ctx := context.Background()
			s := chat.NewSession("", nil)
			require.NoError(t, app.OnChatStart(ctx, s))
			require.NoError(t, app.OnMessage(ctx, s, tt.input))

			assert.Equal(t, Refusal, lastMessage(t, s).Content)
			assert.Len(t, agentProv.Requests(), tt.agentRequests)
			assert.Empty(t, histories.data)
		})
	}
}

func TestApp_RunError(t *testing.T) {
	agentProv := providertest.New(providertest.Fail(errors.New("model overloaded")))
	app := newApp(agentProv, always(providertest.Text(notFlagged)), newMemStore())

	ctx := context.Background()
	s := chat.NewSession("", nil)
	require.NoError(t, app.OnChatStart(ctx, s))
	require.NoError(t, app.OnMessage(ctx, s, "hello"))

	content := lastMessage(t, s).Content
	assert.Contains(t, content, "Error: ")
	assert.Contains(t, content, "model overloaded")
}

func TestApp_Resume(t *testing.T) {
	histories := newMemStore()
	histories.data["prev-session"] = []messages.Item{
		{Role: messages.RoleUser, Content: "Where is my order?"},
		{Role: messages.RoleAssistant, Content: "It ships tomorrow."},
	}
	agentProv := providertest.New(providertest.Text("It is on its way."))
	app := newApp(agentProv, always(providertest.Text(notFlagged)), histories)

	ctx := context.Background()
	s := chat.NewSession("", map[string]string{ResumeParam: "prev-session"})
	require.NoError(t, app.OnChatStart(ctx, s))
	assert.Equal(t, Resumed, lastMessage(t, s).Content)
	assert.Equal(t, "prev-session", SessionID(s))

	require.NoError(t, app.OnMessage(ctx, s, "And now?"))
	reqs := agentProv.Requests()
	require.Len(t, reqs, 1)
	assert.Len(t, reqs[0].Messages, 3)
	assert.Len(t, histories.data["prev-session"], 4)
}

func TestApp_ResumeFallsBackToWelcome(t *testing.T) {
	tests := []struct {
		name    string
		loadErr error
	}{
		{name: "unknown session"},
		{name: "store failure", loadErr: errors.New("db locked")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			histories := newMemStore()
			histories.loadErr = tt.loadErr
			app := newApp(providertest.New(), providertest.New(), histories)

			s := chat.NewSession("", map[string]string{ResumeParam: "missing"})
			require.NoError(t, app.OnChatStart(context.Background(), s))

			id := SessionID(s)
			assert.NotEqual(t, "missing", id)
			assert.Equal(t, Welcome(id), lastMessage(t, s).Content)
		})
	}
}
