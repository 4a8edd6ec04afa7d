// Package support is a customer support chat: a triage agent that hands off to
// billing and refund agents, announcing every hand-off in the chat.
package support

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/casualjim/switchboard/agent"
	"github.com/casualjim/switchboard/api"
	"github.com/casualjim/switchboard/handoff"
	"github.com/casualjim/switchboard/internal/chat"
	"github.com/casualjim/switchboard/messages"
	"github.com/casualjim/switchboard/pkg/slogx"
	"github.com/casualjim/switchboard/runner"
	"github.com/casualjim/switchboard/types"
)

const (
	Welcome  = "Welcome to the Emmanuel Assistant! How can I help you today?"
	Thinking = "Thinking..."

	keyAgent   = "agent"
	keyHistory = "chat_history"
)

// HandoffNotice is the message posted when the conversation moves to agentName.
func HandoffNotice(agentName string) string {
	return fmt.Sprintf("🔄 **Handing off to %s...**\n\nI'm transferring your request to our %s who will be able to better assist you.",
		agentName, strings.ToLower(agentName))
}

// Agents builds the triage agent. notify is called with the target agent name
// whenever a hand-off is taken.
func Agents(model api.Model, notify func(ctx context.Context, agentName string)) api.Agent {
	billing := agent.New(
		agent.Name("Billing Agent"),
		agent.Instructions("You are a billing agent"),
		agent.Model(model),
	)
	refund := agent.New(
		agent.Name("Refund Agent"),
		agent.Instructions("You are a refund agent"),
		agent.Model(model),
	)

	announce := func(target api.Agent) handoff.Option {
		return handoff.OnHandoff(func(ctx context.Context, _ types.ContextVars) error {
			slog.Info("handing off", slogx.LoggerName("support"), slog.String("agent", target.Name()))
			notify(ctx, target.Name())
			return nil
		})
	}

	return agent.New(
		agent.Name("Triage Agent"),
		agent.Instructions("You are a triage agent"),
		agent.Model(model),
		agent.HandoffDescription("Please hand off to the appropriate agent."),
		agent.Handoffs(
			handoff.To(billing, announce(billing)),
			handoff.To(refund, announce(refund)),
		),
	)
}

// App serves the support agents in a chat.
type App struct {
	model   api.Model
	options []runner.Option
}

var _ chat.App = (*App)(nil)

// New creates the support chat. Every agent uses model.
func New(model api.Model, options ...runner.Option) *App {
	return &App{model: model, options: options}
}

func (a *App) OnChatStart(ctx context.Context, s *chat.Session) error {
	triage := Agents(a.model, func(ctx context.Context, agentName string) {
		s.Send(ctx, chat.Message{Author: chat.AuthorSystem, Content: HandoffNotice(agentName)})
	})
	s.Set(keyAgent, triage)
	s.Set(keyHistory, []messages.Item{})

	s.Send(ctx, chat.Message{Content: Welcome})
	return nil
}

func (a *App) OnMessage(ctx context.Context, s *chat.Session, text string) error {
	msg := s.Send(ctx, chat.Message{Content: Thinking})

	v, _ := s.Get(keyAgent)
	triage, ok := v.(api.Agent)
	if !ok {
		return fmt.Errorf("session %s was not started", s.ID)
	}
	v, _ = s.Get(keyHistory)
	history, _ := v.([]messages.Item)

	history = append(history, messages.Item{Role: messages.RoleUser, Content: text})
	s.Set(keyHistory, history)

	result, err := runner.Run(ctx, triage, runner.History(history), a.options...)
	if err != nil {
		slog.Error("support run failed", slogx.LoggerName("support"), slogx.Session(s.ID), slogx.Error(err))
		msg.Content = fmt.Sprintf("Error: %v", err)
		return s.Update(ctx, msg)
	}

	msg.Content = result.FinalOutput
	if err := s.Update(ctx, msg); err != nil {
		return err
	}

	history = append(history, messages.Item{Role: messages.RoleDeveloper, Content: result.FinalOutput})
	s.Set(keyHistory, history)
	slog.Debug("support history", slogx.LoggerName("support"), slogx.Session(s.ID), slog.Int("items", len(history)))
	return nil
}
