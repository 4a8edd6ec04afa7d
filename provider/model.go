package provider

import (
	"context"

	"github.com/casualjim/switchboard/thread"
	"github.com/casualjim/switchboard/tool"
	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
)

// Provider is implemented by chat-completion backends.
type Provider interface {
	ChatCompletion(context.Context, CompletionParams) (<-chan StreamEvent, error)
}

// CompletionParams holds everything needed for one model call.
type CompletionParams struct {
	RunID uuid.UUID

	// Instructions are sent as the system prompt.
	Instructions string

	// Thread holds the conversation so far. Providers only read it.
	Thread *thread.Thread

	// Stream requests incremental Chunk events before the final Response.
	Stream bool

	// ResponseSchema asks the model for JSON output matching the schema.
	ResponseSchema *StructuredOutput

	Model interface {
		Name() string
		Provider() Provider
	}

	// Tools are the function tools the model may call, hand-off tools included.
	Tools []tool.Definition

	ParallelToolCalls bool

	// Prevents unkeyed literals
	_ struct{}
}

// TurnID identifies the model call within the run.
func (p *CompletionParams) TurnID() uuid.UUID {
	if p.Thread == nil {
		return uuid.Nil
	}
	return p.Thread.ID()
}

// StructuredOutput names a JSON schema the response must follow.
type StructuredOutput struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
}

// Structured outputs accept a subset of JSON schema, these flags keep the
// reflected schemas inside it.
var reflector = jsonschema.Reflector{
	AllowAdditionalProperties: false,
	DoNotReference:            true,
}

// SchemaFor reflects the structured output schema of T.
func SchemaFor[T any]() *jsonschema.Schema {
	var v T
	schema := reflector.Reflect(v)
	schema.Version = ""
	return schema
}
