package runner

import (
	"errors"

	"github.com/casualjim/switchboard/messages"
	"github.com/casualjim/switchboard/thread"
)

// Input is the conversation a run starts from.
type Input interface {
	thread() (*thread.Thread, error)
}

type textInput string

// Text starts a run from a single user message.
func Text(prompt string) Input {
	return textInput(prompt)
}

func (t textInput) thread() (*thread.Thread, error) {
	th := thread.New()
	th.AddUserPrompt(messages.New().UserPrompt(string(t)))
	return th, nil
}

type historyInput []messages.Item

// History starts a run from a restored transcript, usually one produced by
// Result.ToInputList with the next user message appended.
func History(items []messages.Item) Input {
	return historyInput(items)
}

func (h historyInput) thread() (*thread.Thread, error) {
	if len(h) == 0 {
		return nil, errors.New("history input is empty")
	}
	return thread.FromInputList(h)
}

// lastUserText returns the content of the latest user message.
func lastUserText(th *thread.Thread) string {
	msgs := th.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if um, ok := msgs[i].Payload.(messages.UserMessage); ok {
			return um.Content
		}
	}
	return ""
}
