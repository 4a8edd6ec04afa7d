package provider

import (
	"fmt"

	"github.com/casualjim/switchboard/messages"
	"github.com/casualjim/switchboard/thread"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

type StreamEvent interface {
	streamEvent()
}

type Delim struct {
	RunID  uuid.UUID `json:"run_id"`
	TurnID uuid.UUID `json:"turn_id"`
	Delim  string    `json:"delim"`
}

func (Delim) streamEvent() {}

type Chunk[T messages.Response] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Chunk     T               `json:"chunk"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"-"`
}

func (Chunk[T]) streamEvent() {}

type Response[T messages.Response] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Response  T               `json:"response"`
	Usage     thread.Usage    `json:"usage"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"-"`
}

func (Response[T]) streamEvent() {}

// ResponseToMessage copies the response into a message envelope.
func ResponseToMessage[T messages.Response](src Response[T], sender string) messages.Message[T] {
	return messages.Message[T]{
		RunID:     src.RunID,
		TurnID:    src.TurnID,
		Payload:   src.Response,
		Sender:    sender,
		Timestamp: src.Timestamp,
		Meta:      src.Meta,
	}
}

type Error struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Err       error           `json:"-"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Error) streamEvent() {}

func (e Error) Error() string {
	return fmt.Sprintf("run_id: %s, turn_id: %s, error: %v", e.RunID, e.TurnID, e.Err)
}

func (e Error) Unwrap() error {
	return e.Err
}
