// Package messages defines the payloads exchanged between users, agents and
// tools during a run, and the flat transcript items used to persist them.
//
// A conversation is a sequence of Message values. Each message carries a
// typed payload:
//   - UserMessage: text typed by the user
//   - DeveloperMessage: out-of-band guidance injected into the transcript
//   - AssistantMessage: text (or a refusal) produced by an agent
//   - ToolCallMessage: one or more function calls requested by an agent
//   - ToolResponse: the rendered result of a single function call
//
// Messages are built with the Builder:
//
//	msg := messages.New().WithSender("User").UserPrompt("Where is my order?")
//
// The Item type is the storage format: one JSON object per message, keyed by
// role, which is what chat histories persist and reload.
package messages
