package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	b := New().WithSender("Triage Agent")

	m := b.UserPrompt("hello")
	assert.Equal(t, "Triage Agent", m.Sender)
	assert.Equal(t, UserMessage{Content: "hello"}, m.Payload)
	assert.False(t, m.Timestamp.IsZero())

	erased := Erase(b.ToolResponse("c1", "get_order", "No order found"))
	assert.Equal(t, ToolResponse{ToolCallID: "c1", ToolName: "get_order", Content: "No order found"}, erased.Payload)
}

func TestAssistantMessage_Text(t *testing.T) {
	assert.Equal(t, "hi", AssistantMessage{Content: "hi"}.Text())
	assert.Equal(t, "no", AssistantMessage{Refusal: "no"}.Text())
}

func TestItemConversions(t *testing.T) {
	tests := []struct {
		name string
		msg  Message[ModelMessage]
		item Item
	}{
		{"user", Erase(New().UserPrompt("hi")), Item{Role: RoleUser, Content: "hi"}},
		{"developer", Erase(New().WithSender("System").Developer("note")), Item{Role: RoleDeveloper, Content: "note", Sender: "System"}},
		{"assistant", Erase(New().AssistantMessage("answer")), Item{Role: RoleAssistant, Content: "answer"}},
		{
			"tool call",
			Erase(New().ToolCall(ToolCallData{ID: "1", Name: "get_emails", Arguments: "{}"})),
			Item{Role: RoleAssistant, ToolCalls: []ToolCallData{{ID: "1", Name: "get_emails", Arguments: "{}"}}},
		},
		{
			"tool response",
			Erase(New().ToolResponse("1", "get_emails", "[]")),
			Item{Role: RoleTool, Content: "[]", ToolCallID: "1", ToolName: "get_emails"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, err := ToItem(tt.msg)
			require.NoError(t, err)
			assert.Equal(t, tt.item, it)

			back, err := it.ToMessage()
			require.NoError(t, err)
			assert.Equal(t, tt.msg.Payload, back.Payload)
			assert.Equal(t, tt.msg.Sender, back.Sender)
		})
	}

	t.Run("system restores as developer", func(t *testing.T) {
		m, err := Item{Role: RoleSystem, Content: "be nice"}.ToMessage()
		require.NoError(t, err)
		assert.Equal(t, DeveloperMessage{Content: "be nice"}, m.Payload)
	})
}

func TestUnmarshalItems(t *testing.T) {
	t.Run("role keyed", func(t *testing.T) {
		items, err := UnmarshalItems([]byte(`[
			{"role":"user","content":"What is 2+2?"},
			{"role":"assistant","tool_calls":[{"id":"c1","type":"function","function":{"name":"calc","arguments":"{}"}}]},
			{"role":"tool","tool_call_id":"c1","name":"calc","content":"4"}
		]`))
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, Item{Role: RoleUser, Content: "What is 2+2?"}, items[0])
		assert.Equal(t, []ToolCallData{{ID: "c1", Name: "calc", Arguments: "{}"}}, items[1].ToolCalls)
		assert.Equal(t, Item{Role: RoleTool, Content: "4", ToolCallID: "c1", ToolName: "calc"}, items[2])
	})

	t.Run("responses style", func(t *testing.T) {
		items, err := UnmarshalItems([]byte(`[
			{"role":"assistant","content":[{"type":"output_text","text":"Hello "},{"type":"output_text","text":"there"}]},
			{"type":"function_call","call_id":"c9","name":"get_weather","arguments":"{\"location\":\"Lahore\"}"},
			{"type":"function_call_output","call_id":"c9","output":"sunny"}
		]`))
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "Hello there", items[0].Content)
		assert.Equal(t, []ToolCallData{{ID: "c9", Name: "get_weather", Arguments: `{"location":"Lahore"}`}}, items[1].ToolCalls)
		assert.Equal(t, Item{Role: RoleTool, ToolCallID: "c9", Content: "sunny"}, items[2])
	})

	t.Run("reads what MarshalItems writes", func(t *testing.T) {
		transcript := []Item{
			{Role: RoleUser, Content: "Where is order 1234?"},
			{Role: RoleAssistant, Sender: "Triage Agent", ToolCalls: []ToolCallData{{ID: "c1", Name: "get_order", Arguments: `{"order_id":1234}`}}},
			{Role: RoleTool, ToolCallID: "c1", ToolName: "get_order", Content: `{"status":"processing"}`},
			{Role: RoleAssistant, Sender: "Triage Agent", Content: "It has not shipped yet."},
		}
		data, err := MarshalItems(transcript)
		require.NoError(t, err)

		items, err := UnmarshalItems(data)
		require.NoError(t, err)
		assert.Equal(t, transcript, items)
	})

	t.Run("missing role", func(t *testing.T) {
		_, err := UnmarshalItems([]byte(`[{"content":"x"}]`))
		assert.Error(t, err)
	})

	t.Run("empty list marshals as []", func(t *testing.T) {
		data, err := MarshalItems(nil)
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
	})
}
