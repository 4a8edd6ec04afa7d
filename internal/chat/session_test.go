package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_SendAndUpdate(t *testing.T) {
	s := NewSession("", map[string]string{"session_id": "abc"})
	require.NotEmpty(t, s.ID)
	assert.Equal(t, "abc", s.Param("session_id"))
	assert.Empty(t, s.Param("missing"))

	var events []Event
	restore := s.listen(func(ev Event) { events = append(events, ev) })

	m := s.Send(context.Background(), Message{Content: "hello"})
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, AuthorAssistant, m.Author)

	m.Content = "hello again"
	require.NoError(t, s.Update(context.Background(), m))
	restore()

	s.Send(context.Background(), Message{Author: AuthorSystem, Content: "unheard"})

	require.Len(t, events, 2)
	assert.Equal(t, EventMessage, events[0].Kind)
	assert.Equal(t, EventUpdate, events[1].Kind)
	assert.Equal(t, "hello again", events[1].Message.Content)

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello again", msgs[0].Content)
	assert.Equal(t, AuthorSystem, msgs[1].Author)
}

func TestSession_UpdateUnknownMessage(t *testing.T) {
	s := NewSession("s1", nil)
	err := s.Update(context.Background(), Message{ID: "nope", Content: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSession_State(t *testing.T) {
	s := NewSession("s1", nil)
	_, ok := s.Get("k")
	assert.False(t, ok)

	s.Set("k", 42)
	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}
