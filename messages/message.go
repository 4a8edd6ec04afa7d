package messages

import (
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// ModelMessage is implemented by every payload that can be part of a thread.
type ModelMessage interface {
	modelMessage()
}

// Response is implemented by the payloads a model can produce.
type Response interface {
	ModelMessage
	response()
}

type UserMessage struct {
	Content string `json:"content"`
}

func (UserMessage) modelMessage() {}

type DeveloperMessage struct {
	Content string `json:"content"`
}

func (DeveloperMessage) modelMessage() {}

type AssistantMessage struct {
	Content string `json:"content"`
	Refusal string `json:"refusal,omitempty"`
}

func (AssistantMessage) modelMessage() {}
func (AssistantMessage) response()     {}

// Text returns the content, or the refusal when the model refused to answer.
func (a AssistantMessage) Text() string {
	if a.Content == "" {
		return a.Refusal
	}
	return a.Content
}

type ToolCallData struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type ToolCallMessage struct {
	ToolCalls []ToolCallData `json:"tool_calls"`
}

func (ToolCallMessage) modelMessage() {}
func (ToolCallMessage) response()     {}

type ToolResponse struct {
	ToolCallID string `json:"tool_call_id"`
	ToolName   string `json:"tool_name"`
	Content    string `json:"content"`
}

func (ToolResponse) modelMessage() {}

// Message wraps a payload with the bookkeeping of the run that produced it.
type Message[T ModelMessage] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Payload   T               `json:"payload"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp"`
	Meta      gjson.Result    `json:"-"`
}

// Erase converts a typed message into one holding the ModelMessage interface.
func Erase[T ModelMessage](m Message[T]) Message[ModelMessage] {
	return Message[ModelMessage]{
		RunID:     m.RunID,
		TurnID:    m.TurnID,
		Payload:   m.Payload,
		Sender:    m.Sender,
		Timestamp: m.Timestamp,
		Meta:      m.Meta,
	}
}

// Builder creates messages that share the same sender and ids.
type Builder struct {
	runID  uuid.UUID
	turnID uuid.UUID
	sender string
}

func New() Builder {
	return Builder{}
}

func (b Builder) WithSender(sender string) Builder {
	b.sender = sender
	return b
}

func (b Builder) WithRunID(id uuid.UUID) Builder {
	b.runID = id
	return b
}

func (b Builder) WithTurnID(id uuid.UUID) Builder {
	b.turnID = id
	return b
}

func build[T ModelMessage](b Builder, payload T) Message[T] {
	return Message[T]{
		RunID:     b.runID,
		TurnID:    b.turnID,
		Payload:   payload,
		Sender:    b.sender,
		Timestamp: strfmt.DateTime(time.Now()),
	}
}

func (b Builder) UserPrompt(content string) Message[UserMessage] {
	return build(b, UserMessage{Content: content})
}

func (b Builder) Developer(content string) Message[DeveloperMessage] {
	return build(b, DeveloperMessage{Content: content})
}

func (b Builder) AssistantMessage(content string) Message[AssistantMessage] {
	return build(b, AssistantMessage{Content: content})
}

func (b Builder) ToolCall(calls ...ToolCallData) Message[ToolCallMessage] {
	return build(b, ToolCallMessage{ToolCalls: calls})
}

func (b Builder) ToolResponse(callID, toolName, content string) Message[ToolResponse] {
	return build(b, ToolResponse{ToolCallID: callID, ToolName: toolName, Content: content})
}
