package chat

import (
	"context"
	"errors"
	"fmt"
)

type echoApp struct{}

func (echoApp) OnChatStart(ctx context.Context, s *Session) error {
	if id := s.Param("session_id"); id != "" {
		s.Set("resumed", id)
		s.Send(ctx, Message{Content: "Welcome back"})
		return nil
	}
	s.Send(ctx, Message{Content: "Welcome"})
	return nil
}

func (echoApp) OnMessage(ctx context.Context, s *Session, text string) error {
	if text == "fail" {
		return errors.New("boom")
	}
	m := s.Send(ctx, Message{Content: "Thinking..."})
	m.Content = fmt.Sprintf("echo: %s", text)
	return s.Update(ctx, m)
}
