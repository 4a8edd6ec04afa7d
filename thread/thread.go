package thread

import (
	"iter"
	"slices"

	"github.com/casualjim/switchboard/messages"
	"github.com/casualjim/switchboard/pkg/uuidx"
	"github.com/google/uuid"
)

// Messages is an ordered list of type erased messages.
type Messages []messages.Message[messages.ModelMessage]

func (m Messages) Len() int {
	return len(m)
}

// New creates an empty thread with a fresh id.
func New() *Thread {
	return &Thread{
		id:       uuidx.New(),
		messages: make(Messages, 0),
	}
}

// Thread is the conversation history of a run together with its token usage.
//
// A thread is not safe for concurrent mutation; a run owns its thread and
// appends the results of parallel tool calls only after they have completed.
type Thread struct {
	id       uuid.UUID
	messages Messages
	initLen  int // message count at fork time
	usage    Usage
}

func (t *Thread) ID() uuid.UUID {
	return t.id
}

func (t *Thread) Len() int {
	return t.messages.Len()
}

// TurnLen returns the number of messages added since the thread was forked.
func (t *Thread) TurnLen() int {
	return len(t.messages) - t.initLen
}

// Messages returns a copy of the messages in the thread.
func (t *Thread) Messages() Messages {
	return slices.Clone(t.messages)
}

// MessagesIter iterates over the messages without copying them.
func (t *Thread) MessagesIter() iter.Seq[messages.Message[messages.ModelMessage]] {
	return slices.Values(t.messages)
}

// Last returns the most recent message, if any.
func (t *Thread) Last() (messages.Message[messages.ModelMessage], bool) {
	if len(t.messages) == 0 {
		return messages.Message[messages.ModelMessage]{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// AddMessage appends a message of any payload type.
func AddMessage[T messages.ModelMessage](t *Thread, m messages.Message[T]) {
	t.add(messages.Erase(m))
}

func (t *Thread) AddUserPrompt(m messages.Message[messages.UserMessage]) {
	t.add(messages.Erase(m))
}

func (t *Thread) AddDeveloper(m messages.Message[messages.DeveloperMessage]) {
	t.add(messages.Erase(m))
}

func (t *Thread) AddAssistantMessage(m messages.Message[messages.AssistantMessage]) {
	t.add(messages.Erase(m))
}

func (t *Thread) AddToolCall(m messages.Message[messages.ToolCallMessage]) {
	t.add(messages.Erase(m))
}

func (t *Thread) AddToolResponse(m messages.Message[messages.ToolResponse]) {
	t.add(messages.Erase(m))
}

func (t *Thread) add(m messages.Message[messages.ModelMessage]) {
	t.messages = append(t.messages, m)
}

func (t *Thread) Usage() Usage {
	return t.usage
}

func (t *Thread) AddUsage(u *Usage) {
	t.usage.AddUsage(u)
}

// Fork creates a sub-thread that starts with a copy of the current messages.
// Only what is added to the fork afterwards is carried back by Join.
func (t *Thread) Fork() *Thread {
	return &Thread{
		id:       uuidx.New(),
		messages: slices.Clone(t.messages),
		initLen:  t.Len(),
	}
}

// Join appends the messages added to b since it was forked and adds b's usage.
//
//	original has [1,2]
//	forked := original.Fork()   // [1,2], initLen=2
//	original.Add(3)             // [1,2,3]
//	forked.Add(4)               // [1,2,4]
//	original.Join(forked)       // [1,2,3,4]
func (t *Thread) Join(b *Thread) {
	t.messages = append(t.messages, b.messages[b.initLen:]...)
	t.usage.AddUsage(&b.usage)
}

// ToInputList flattens the thread into its transcript form.
func (t *Thread) ToInputList() ([]messages.Item, error) {
	return toItems(t.messages)
}

// FromInputList restores a thread from a transcript.
func FromInputList(items []messages.Item) (*Thread, error) {
	msgs, err := fromItems(items)
	if err != nil {
		return nil, err
	}
	t := New()
	t.messages = msgs
	return t, nil
}

func toItems(msgs Messages) ([]messages.Item, error) {
	items := make([]messages.Item, 0, len(msgs))
	for _, m := range msgs {
		it, err := messages.ToItem(m)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func fromItems(items []messages.Item) (Messages, error) {
	msgs := make(Messages, 0, len(items))
	for _, it := range items {
		m, err := it.ToMessage()
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}
