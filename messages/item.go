package messages

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleDeveloper Role = "developer"
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Item is the flat, role keyed form of a message used for transcripts.
type Item struct {
	Role       Role           `json:"role"`
	Content    string         `json:"content,omitempty"`
	Sender     string         `json:"sender,omitempty"`
	ToolCalls  []ToolCallData `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolName   string         `json:"name,omitempty"`
}

// UnmarshalJSON accepts the role keyed form Item encodes to as well as
// responses style items, where content may be a list of typed parts and tool
// traffic is expressed as "function_call" / "function_call_output" items.
func (it *Item) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}
	jv := gjson.ParseBytes(data)
	if !jv.IsObject() {
		return fmt.Errorf("transcript item must be an object, got %s", jv.Type)
	}

	*it = Item{}
	switch jv.Get("type").String() {
	case "function_call":
		it.Role = RoleAssistant
		it.ToolCalls = []ToolCallData{{
			ID:        firstString(jv, "call_id", "id"),
			Name:      jv.Get("name").String(),
			Arguments: jv.Get("arguments").String(),
		}}
		return nil
	case "function_call_output":
		it.Role = RoleTool
		it.ToolCallID = jv.Get("call_id").String()
		it.Content = jv.Get("output").String()
		return nil
	}

	role := jv.Get("role")
	if !role.Exists() {
		return fmt.Errorf("transcript item is missing a role")
	}
	it.Role = Role(role.String())
	it.Sender = jv.Get("sender").String()
	it.ToolCallID = jv.Get("tool_call_id").String()
	it.ToolName = jv.Get("name").String()
	it.Content = contentText(jv.Get("content"))

	if calls := jv.Get("tool_calls"); calls.IsArray() {
		for _, call := range calls.Array() {
			it.ToolCalls = append(it.ToolCalls, ToolCallData{
				ID:        call.Get("id").String(),
				Name:      firstString(call, "name", "function.name"),
				Arguments: firstString(call, "arguments", "function.arguments"),
			})
		}
	}
	return nil
}

func firstString(jv gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := jv.Get(p); v.Exists() {
			return v.String()
		}
	}
	return ""
}

func contentText(content gjson.Result) string {
	if !content.IsArray() {
		return content.String()
	}
	var parts []string
	for _, part := range content.Array() {
		if part.Type == gjson.String {
			parts = append(parts, part.String())
			continue
		}
		if text := part.Get("text"); text.Exists() {
			parts = append(parts, text.String())
		} else if refusal := part.Get("refusal"); refusal.Exists() {
			parts = append(parts, refusal.String())
		}
	}
	return strings.Join(parts, "")
}

// ToItem flattens a message into its transcript form.
func ToItem(m Message[ModelMessage]) (Item, error) {
	switch p := m.Payload.(type) {
	case UserMessage:
		return Item{Role: RoleUser, Content: p.Content, Sender: m.Sender}, nil
	case DeveloperMessage:
		return Item{Role: RoleDeveloper, Content: p.Content, Sender: m.Sender}, nil
	case AssistantMessage:
		return Item{Role: RoleAssistant, Content: p.Text(), Sender: m.Sender}, nil
	case ToolCallMessage:
		return Item{Role: RoleAssistant, ToolCalls: p.ToolCalls, Sender: m.Sender}, nil
	case ToolResponse:
		return Item{Role: RoleTool, Content: p.Content, ToolCallID: p.ToolCallID, ToolName: p.ToolName, Sender: m.Sender}, nil
	default:
		return Item{}, fmt.Errorf("unsupported message payload %T", m.Payload)
	}
}

// ToMessage converts a transcript item back into a message. System items are
// restored as developer messages.
func (it Item) ToMessage() (Message[ModelMessage], error) {
	b := New().WithSender(it.Sender)
	switch it.Role {
	case RoleUser:
		return Erase(b.UserPrompt(it.Content)), nil
	case RoleDeveloper, RoleSystem:
		return Erase(b.Developer(it.Content)), nil
	case RoleAssistant:
		if len(it.ToolCalls) > 0 {
			return Erase(b.ToolCall(it.ToolCalls...)), nil
		}
		return Erase(b.AssistantMessage(it.Content)), nil
	case RoleTool:
		return Erase(b.ToolResponse(it.ToolCallID, it.ToolName, it.Content)), nil
	default:
		return Message[ModelMessage]{}, fmt.Errorf("unknown transcript role %q", it.Role)
	}
}

// MarshalItems encodes a transcript as a JSON list.
func MarshalItems(items []Item) ([]byte, error) {
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(items)
}

// UnmarshalItems decodes a JSON list of transcript items.
func UnmarshalItems(data []byte) ([]Item, error) {
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decoding transcript: %w", err)
	}
	return items, nil
}
