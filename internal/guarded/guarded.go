// Package guarded is a support chat protected by math homework guardrails.
// Transcripts are stored per chat session and can be resumed by session id.
package guarded

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/casualjim/switchboard/agent"
	"github.com/casualjim/switchboard/api"
	"github.com/casualjim/switchboard/guardrail"
	"github.com/casualjim/switchboard/internal/chat"
	"github.com/casualjim/switchboard/messages"
	"github.com/casualjim/switchboard/pkg/slogx"
	"github.com/casualjim/switchboard/pkg/uuidx"
	"github.com/casualjim/switchboard/runner"
	"github.com/casualjim/switchboard/store"
)

const (
	Thinking = "Thinking..."
	Refusal  = "I can't help you with that. Please ask me something else."
	Resumed  = "Previous conversation loaded. How can I continue helping you?"

	// ResumeParam is the session parameter naming a conversation to resume.
	ResumeParam = "session_id"

	keySessionID = "session_id"
	keyHistory   = "chat_history"
)

func Welcome(sessionID string) string {
	return fmt.Sprintf("Welcome to the My AI Assistant! How can I help you today? (Your session ID: %s)", sessionID)
}

// NewAgent builds the support agent. guardModel classifies input and output.
func NewAgent(model, guardModel api.Model) api.Agent {
	return agent.New(
		agent.Name("Support Agent"),
		agent.Instructions("You are a customer support agent. You help customers with their questions."),
		agent.Model(model),
		agent.InputGuardrails(MathInputGuardrail(guardModel)),
		agent.OutputGuardrails(MathOutputGuardrail(guardModel)),
	)
}

type App struct {
	agent     api.Agent
	histories store.ChatHistories
	options   []runner.Option
}

var _ chat.App = (*App)(nil)

func New(agent api.Agent, histories store.ChatHistories, options ...runner.Option) *App {
	return &App{agent: agent, histories: histories, options: options}
}

func (a *App) OnChatStart(ctx context.Context, s *chat.Session) error {
	sessionID := uuidx.NewString()
	s.Set(keySessionID, sessionID)
	s.Set(keyHistory, []messages.Item{})

	if prev := s.Param(ResumeParam); prev != "" {
		history, err := a.histories.Load(ctx, prev)
		switch {
		case err != nil:
			slog.ErrorContext(ctx, "error loading previous chat", slogx.LoggerName("guarded"), slogx.Session(prev), slogx.Error(err))
		case len(history) > 0:
			s.Set(keyHistory, history)
			s.Set(keySessionID, prev)
			s.Send(ctx, chat.Message{Content: Resumed})
			return nil
		}
	}

	s.Send(ctx, chat.Message{Content: Welcome(sessionID)})
	return nil
}

// SessionID returns the transcript id of a chat session.
func SessionID(s *chat.Session) string {
	v, _ := s.Get(keySessionID)
	id, _ := v.(string)
	return id
}

func (a *App) OnMessage(ctx context.Context, s *chat.Session, text string) error {
	msg := s.Send(ctx, chat.Message{Content: Thinking})

	sessionID := SessionID(s)
	if sessionID == "" {
		return fmt.Errorf("session %s was not started", s.ID)
	}
	v, _ := s.Get(keyHistory)
	history, _ := v.([]messages.Item)
	history = append(history, messages.Item{Role: messages.RoleUser, Content: text})
	s.Set(keyHistory, history)

	options := append([]runner.Option{runner.WithGroupID(sessionID)}, a.options...)
	result, err := runner.Run(ctx, a.agent, runner.History(history), options...)
	if err != nil {
		var (
			inputTrip  *guardrail.InputTripwireError
			outputTrip *guardrail.OutputTripwireError
		)
		switch {
		case errors.As(err, &inputTrip):
			slog.InfoContext(ctx, "math homework guardrail tripped", slogx.LoggerName("guarded"), slogx.Session(sessionID))
			msg.Content = Refusal
		case errors.As(err, &outputTrip):
			slog.InfoContext(ctx, "math output guardrail tripped", slogx.LoggerName("guarded"), slogx.Session(sessionID))
			msg.Content = Refusal
		default:
			slog.ErrorContext(ctx, "guarded run failed", slogx.LoggerName("guarded"), slogx.Session(sessionID), slogx.Error(err))
			msg.Content = fmt.Sprintf("Error: %v", err)
		}
		return s.Update(ctx, msg)
	}

	msg.Content = result.FinalOutput
	if err := s.Update(ctx, msg); err != nil {
		return err
	}

	updated, err := result.ToInputList()
	if err != nil {
		return fmt.Errorf("building transcript: %w", err)
	}
	s.Set(keyHistory, updated)
	if err := a.histories.Save(ctx, sessionID, updated); err != nil {
		slog.ErrorContext(ctx, "error saving chat history", slogx.LoggerName("guarded"), slogx.Session(sessionID), slogx.Error(err))
	}
	slog.DebugContext(ctx, "guarded turn", slogx.LoggerName("guarded"), slogx.Session(sessionID), slog.String("user", text), slog.String("assistant", result.FinalOutput))
	return nil
}
