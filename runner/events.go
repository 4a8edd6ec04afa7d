package runner

import (
	"github.com/casualjim/switchboard/api"
	"github.com/casualjim/switchboard/messages"
	"github.com/casualjim/switchboard/provider"
)

type ItemKind string

const (
	MessageOutputItem  ItemKind = "message_output_item"
	ToolCallItem       ItemKind = "tool_call_item"
	ToolCallOutputItem ItemKind = "tool_call_output_item"
	HandoffCallItem    ItemKind = "handoff_call_item"
	HandoffOutputItem  ItemKind = "handoff_output_item"
)

// RunItem is something a run produced: a message, a tool call or its output,
// a hand-off call or its output.
type RunItem struct {
	Kind ItemKind
	// Agent is the agent that was active when the item was produced.
	Agent string
	// Content is the message text for message items and the tool output for output items.
	Content string
	// ToolCall is set for tool and hand-off items.
	ToolCall messages.ToolCallData
	// TargetAgent is set for hand-off output items.
	TargetAgent string
}

// Event is emitted by a streamed run.
type Event interface {
	runEvent()
}

// RawResponseEvent wraps an event received from the model provider.
type RawResponseEvent struct {
	Data provider.StreamEvent
}

// AgentUpdatedEvent reports that a hand-off made Agent the active agent.
type AgentUpdatedEvent struct {
	Agent api.Agent
}

// RunItemEvent reports a new run item.
type RunItemEvent struct {
	Name ItemKind
	Item RunItem
}

func (RawResponseEvent) runEvent()  {}
func (AgentUpdatedEvent) runEvent() {}
func (RunItemEvent) runEvent()      {}
