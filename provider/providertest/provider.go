// Package providertest provides a scripted in-memory provider for tests.
package providertest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/casualjim/switchboard/messages"
	"github.com/casualjim/switchboard/provider"
	"github.com/casualjim/switchboard/thread"
	"github.com/go-openapi/strfmt"
)

// ErrScriptExhausted is returned when the provider is called more often than scripted.
var ErrScriptExhausted = errors.New("providertest: no scripted turn left")

// Turn is the scripted answer to one model call.
type Turn struct {
	Text      string
	ToolCalls []messages.ToolCallData
	// Err is reported as a provider.Error event.
	Err   error
	Usage thread.Usage
}

func Text(content string) Turn {
	return Turn{Text: content}
}

func ToolCalls(calls ...messages.ToolCallData) Turn {
	return Turn{ToolCalls: calls}
}

// Call builds a tool call with a deterministic id.
func Call(id, name, arguments string) messages.ToolCallData {
	return messages.ToolCallData{ID: id, Name: name, Arguments: arguments}
}

func Fail(err error) Turn {
	return Turn{Err: err}
}

// Request is what the provider observed for one call.
type Request struct {
	Instructions   string
	Model          string
	Tools          []string
	Messages       thread.Messages
	Stream         bool
	ResponseSchema *provider.StructuredOutput
}

// Provider answers model calls from a script, in order.
type Provider struct {
	mu       sync.Mutex
	script   []Turn
	requests []Request
	// Respond, when set, is consulted once the script is exhausted.
	Respond func(Request) Turn
}

func New(turns ...Turn) *Provider {
	return &Provider{script: turns}
}

// Requests returns the calls received so far.
func (p *Provider) Requests() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Request(nil), p.requests...)
}

func (p *Provider) next(req Request) (Turn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if len(p.script) > 0 {
		t := p.script[0]
		p.script = p.script[1:]
		return t, nil
	}
	if p.Respond != nil {
		return p.Respond(req), nil
	}
	return Turn{}, ErrScriptExhausted
}

func (p *Provider) ChatCompletion(ctx context.Context, params provider.CompletionParams) (<-chan provider.StreamEvent, error) {
	req := Request{
		Instructions:   params.Instructions,
		Stream:         params.Stream,
		ResponseSchema: params.ResponseSchema,
	}
	if params.Model != nil {
		req.Model = params.Model.Name()
	}
	if params.Thread != nil {
		req.Messages = params.Thread.Messages()
	}
	for _, t := range params.Tools {
		req.Tools = append(req.Tools, t.Name)
	}

	turn, err := p.next(req)
	if err != nil {
		return nil, err
	}

	runID, turnID := params.RunID, params.TurnID()
	now := strfmt.DateTime(time.Now())
	events := make(chan provider.StreamEvent, 16)
	go func() {
		defer close(events)
		send := func(ev provider.StreamEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if turn.Err != nil {
			send(provider.Error{RunID: runID, TurnID: turnID, Err: turn.Err, Timestamp: now})
			return
		}

		if params.Stream {
			if !send(provider.Delim{RunID: runID, TurnID: turnID, Delim: "start"}) {
				return
			}
			if len(turn.ToolCalls) > 0 {
				send(provider.Chunk[messages.ToolCallMessage]{RunID: runID, TurnID: turnID, Chunk: messages.ToolCallMessage{ToolCalls: turn.ToolCalls}, Timestamp: now})
			} else {
				for _, piece := range splitWords(turn.Text) {
					if !send(provider.Chunk[messages.AssistantMessage]{RunID: runID, TurnID: turnID, Chunk: messages.AssistantMessage{Content: piece}, Timestamp: now}) {
						return
					}
				}
			}
			if !send(provider.Delim{RunID: runID, TurnID: turnID, Delim: "end"}) {
				return
			}
		}

		if len(turn.ToolCalls) > 0 {
			send(provider.Response[messages.ToolCallMessage]{
				RunID: runID, TurnID: turnID, Timestamp: now, Usage: turn.Usage,
				Response: messages.ToolCallMessage{ToolCalls: turn.ToolCalls},
			})
			return
		}
		send(provider.Response[messages.AssistantMessage]{
			RunID: runID, TurnID: turnID, Timestamp: now, Usage: turn.Usage,
			Response: messages.AssistantMessage{Content: turn.Text},
		})
	}()
	return events, nil
}

func splitWords(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.SplitAfter(s, " ")
	return parts
}

// Model binds a name to a provider.
type Model struct {
	name string
	prov provider.Provider
}

func NewModel(name string, prov provider.Provider) *Model {
	return &Model{name: name, prov: prov}
}

func (m *Model) Name() string {
	return m.name
}

func (m *Model) Provider() provider.Provider {
	return m.prov
}
