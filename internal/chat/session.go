// Package chat is a small chat front-end: sessions that exchange author/content
// messages with an App, served over HTTP with server-sent events or on a console.
package chat

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/casualjim/switchboard/pkg/uuidx"
	"github.com/go-openapi/strfmt"
)

const (
	AuthorUser      = "User"
	AuthorAssistant = "Assistant"
	AuthorSystem    = "System"
)

// App reacts to the lifecycle of chat sessions.
type App interface {
	OnChatStart(ctx context.Context, s *Session) error
	OnMessage(ctx context.Context, s *Session, text string) error
}

type Message struct {
	ID        string          `json:"id"`
	Author    string          `json:"author"`
	Content   string          `json:"content"`
	CreatedAt strfmt.DateTime `json:"created_at"`
}

type EventKind string

const (
	EventMessage EventKind = "message"
	EventUpdate  EventKind = "update"
)

// Event is a message sent or updated by the app.
type Event struct {
	Kind    EventKind
	Message Message
}

// Session is one conversation between a user and an App.
type Session struct {
	ID string

	params map[string]string

	mu       sync.Mutex
	state    map[string]any
	messages []Message
	listener func(Event)

	busy sync.Mutex
}

// NewSession creates a session. params are the query parameters the session was opened with.
func NewSession(id string, params map[string]string) *Session {
	if id == "" {
		id = uuidx.NewString()
	}
	return &Session{
		ID:     id,
		params: maps.Clone(params),
		state:  make(map[string]any),
	}
}

// Param returns a query parameter of the session.
func (s *Session) Param(key string) string {
	return s.params[key]
}

func (s *Session) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.state[key]
	return v, ok
}

func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[key] = value
}

// Send appends a message to the session and returns it with its id set.
// The author defaults to Assistant.
func (s *Session) Send(_ context.Context, m Message) Message {
	if m.ID == "" {
		m.ID = uuidx.NewString()
	}
	if m.Author == "" {
		m.Author = AuthorAssistant
	}
	if time.Time(m.CreatedAt).IsZero() {
		m.CreatedAt = strfmt.DateTime(time.Now())
	}

	s.mu.Lock()
	s.messages = append(s.messages, m)
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener(Event{Kind: EventMessage, Message: m})
	}
	return m
}

// Update replaces the content of a message sent earlier.
func (s *Session) Update(_ context.Context, m Message) error {
	s.mu.Lock()
	i := slices.IndexFunc(s.messages, func(existing Message) bool { return existing.ID == m.ID })
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("message %s not found in session %s", m.ID, s.ID)
	}
	s.messages[i].Content = m.Content
	if m.Author != "" {
		s.messages[i].Author = m.Author
	}
	updated := s.messages[i]
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener(Event{Kind: EventUpdate, Message: updated})
	}
	return nil
}

// Messages returns the messages exchanged so far.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// record appends a user message without notifying the listener.
func (s *Session) record(m Message) Message {
	if m.ID == "" {
		m.ID = uuidx.NewString()
	}
	m.CreatedAt = strfmt.DateTime(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
	return m
}

// listen routes events to fn until the returned function is called.
func (s *Session) listen(fn func(Event)) func() {
	s.mu.Lock()
	prev := s.listener
	s.listener = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.listener = prev
		s.mu.Unlock()
	}
}
