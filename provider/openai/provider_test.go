package openai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/casualjim/switchboard/messages"
	"github.com/casualjim/switchboard/provider"
	"github.com/casualjim/switchboard/thread"
	"github.com/casualjim/switchboard/tool"
	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func setupTestServer(t *testing.T, handler http.HandlerFunc) *Provider {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(
		option.WithBaseURL(server.URL+"/v1/"),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	)
}

func testModel() interface {
	Name() string
	Provider() provider.Provider
} {
	return Model("test-model")
}

func TestNew(t *testing.T) {
	p := New()
	assert.NotNil(t, p)
	assert.NotNil(t, p.client)
}

func TestModel(t *testing.T) {
	a := Model("cache-me")
	b := Model("cache-me")
	assert.Same(t, a, b)
	assert.Equal(t, "cache-me", a.Name())
	assert.NotNil(t, a.Provider())

	Forget("cache-me")
	assert.NotSame(t, a, Model("cache-me"))
}

func TestEndpoint(t *testing.T) {
	assert.Len(t, Endpoint("", ""), 1)
	assert.Len(t, Endpoint("https://generativelanguage.googleapis.com/v1beta/openai/", "key"), 3)
}

func TestProvider_buildRequest_Error(t *testing.T) {
	p := New()
	params := &provider.CompletionParams{
		RunID:        uuid.New(),
		Instructions: "Test instructions",
		Thread:       thread.New(),
		Model:        testModel(),
		Tools:        []tool.Definition{{Name: "invalid_tool"}},
	}

	_, err := p.buildRequest(context.Background(), params)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool invalid_tool has nil function")

	_, err = p.buildRequest(context.Background(), &provider.CompletionParams{Thread: thread.New()})
	require.Error(t, err)
}

func TestProvider_buildRequest(t *testing.T) {
	p := New()
	th := thread.New()
	th.AddUserPrompt(messages.New().WithSender("testUser").UserPrompt("Hello"))

	toolDef := tool.Must(func(s string) string { return s },
		tool.Name("test_tool"),
		tool.Description("A test tool"),
		tool.Parameters("value1"),
	)

	type verdict struct {
		IsFlagged bool   `json:"is_flagged"`
		Reasoning string `json:"reasoning"`
	}

	params := &provider.CompletionParams{
		RunID:             uuid.New(),
		Instructions:      "Test instructions",
		Thread:            th,
		Model:             testModel(),
		Tools:             []tool.Definition{toolDef},
		ParallelToolCalls: true,
		ResponseSchema: &provider.StructuredOutput{
			Name:   "verdict",
			Schema: provider.SchemaFor[verdict](),
		},
	}

	chatParams, err := p.buildRequest(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, "test-model", chatParams.Model.Value)
	assert.Equal(t, int64(1), chatParams.N.Value)
	assert.True(t, chatParams.ParallelToolCalls.Value)
	assert.Equal(t, "testUser", chatParams.User.Value)
	assert.True(t, chatParams.ResponseFormat.Present)

	msgs := chatParams.Messages.Value
	require.Len(t, msgs, 2)
	systemMsg := msgs[0].(openai.ChatCompletionSystemMessageParam)
	assert.Equal(t, "Test instructions", systemMsg.Content.Value[0].Text.Value)
	userMsg := msgs[1].(openai.ChatCompletionUserMessageParam)
	assert.Equal(t, "Hello", userMsg.Content.Value[0].(openai.ChatCompletionContentPartTextParam).Text.Value)

	tools := chatParams.Tools.Value
	require.Len(t, tools, 1)
	assert.Equal(t, openai.ChatCompletionToolTypeFunction, tools[0].Type.Value)
	assert.Equal(t, "test_tool", tools[0].Function.Value.Name.Value)
	assert.Equal(t, "A test tool", tools[0].Function.Value.Description.Value)
}

func TestMessagesToOpenAI(t *testing.T) {
	t.Run("empty thread", func(t *testing.T) {
		result, user := messagesToOpenAI("Test instructions", slices.Values([]messages.Message[messages.ModelMessage]{}))
		require.Len(t, result, 1)
		assert.Empty(t, user)
	})

	t.Run("conversation", func(t *testing.T) {
		th := thread.New()
		th.AddUserPrompt(messages.New().WithSender("user1").UserPrompt("Hello"))
		th.AddDeveloper(messages.New().Developer("The user was handed off"))
		th.AddToolCall(messages.New().ToolCall(messages.ToolCallData{ID: "tool1", Name: "test_tool", Arguments: `{"param":"value"}`}))
		th.AddToolResponse(messages.New().ToolResponse("tool1", "test_tool", "Tool response"))
		th.AddAssistantMessage(messages.New().AssistantMessage("Hi there"))

		result, user := messagesToOpenAI("Test instructions", th.MessagesIter())
		assert.Equal(t, "user1", user)
		require.Len(t, result, 6)
		assert.IsType(t, openai.ChatCompletionSystemMessageParam{}, result[2])
		assert.IsType(t, openai.ChatCompletionMessageParam{}, result[3])
		assert.IsType(t, openai.ChatCompletionToolMessageParam{}, result[4])
		assert.IsType(t, openai.ChatCompletionAssistantMessageParam{}, result[5])
	})
}

func TestProvider_ChatCompletion(t *testing.T) {
	p := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "Test instructions", gjson.GetBytes(body, "messages.0.content.0.text").String())

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id":"test-id","object":"chat.completion","created":1,"model":"test-model",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Test response"}}],
			"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}
		}`)
	})

	params := provider.CompletionParams{
		RunID:        uuid.New(),
		Instructions: "Test instructions",
		Thread:       thread.New(),
		Model:        testModel(),
	}

	events, err := p.ChatCompletion(context.Background(), params)
	require.NoError(t, err)

	event := <-events
	resp, ok := event.(provider.Response[messages.AssistantMessage])
	require.True(t, ok, "got %T", event)
	assert.Equal(t, "Test response", resp.Response.Content)
	assert.Equal(t, int64(5), resp.Usage.TotalTokens)
	assert.Equal(t, params.RunID, resp.RunID)

	_, ok = <-events
	assert.False(t, ok)
}

func TestProvider_ChatCompletion_ToolCalls(t *testing.T) {
	p := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id":"test-id","object":"chat.completion","created":1,"model":"test-model",
			"choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":null,"tool_calls":[
				{"id":"call_1","type":"function","function":{"name":"get_weather","arguments":"{\"location\":\"Lahore\"}"}},
				{"id":"call_2","type":"function","function":{"name":"transfer_to_billing_agent","arguments":"{}"}}
			]}}]
		}`)
	})

	events, err := p.ChatCompletion(context.Background(), provider.CompletionParams{
		Thread: thread.New(),
		Model:  testModel(),
	})
	require.NoError(t, err)

	event := <-events
	resp, ok := event.(provider.Response[messages.ToolCallMessage])
	require.True(t, ok, "got %T", event)
	assert.Equal(t, []messages.ToolCallData{
		{ID: "call_1", Name: "get_weather", Arguments: `{"location":"Lahore"}`},
		{ID: "call_2", Name: "transfer_to_billing_agent", Arguments: "{}"},
	}, resp.Response.ToolCalls)
}

func TestProvider_ChatCompletion_HTTPError(t *testing.T) {
	p := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	})

	events, err := p.ChatCompletion(context.Background(), provider.CompletionParams{
		Thread: thread.New(),
		Model:  testModel(),
	})
	require.NoError(t, err)

	event := <-events
	errEvent, ok := event.(provider.Error)
	require.True(t, ok, "got %T", event)
	assert.Error(t, errEvent.Err)
}

func TestProvider_ChatCompletion_Stream(t *testing.T) {
	chunks := []string{
		`{"id":"s1","object":"chat.completion.chunk","created":1,"model":"test-model","choices":[{"index":0,"delta":{"role":"assistant","content":"Hel"}}]}`,
		`{"id":"s1","object":"chat.completion.chunk","created":1,"model":"test-model","choices":[{"index":0,"delta":{"content":"lo"}}]}`,
		`{"id":"s1","object":"chat.completion.chunk","created":1,"model":"test-model","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
	}

	p := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.True(t, gjson.GetBytes(body, "stream").Bool())

		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		for _, c := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", c)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	})

	events, err := p.ChatCompletion(context.Background(), provider.CompletionParams{
		RunID:  uuid.New(),
		Thread: thread.New(),
		Stream: true,
		Model:  testModel(),
	})
	require.NoError(t, err)

	var got []provider.StreamEvent //nolint:prealloc
	for event := range events {
		got = append(got, event)
	}

	require.Len(t, got, 5)
	assert.Equal(t, "start", got[0].(provider.Delim).Delim)
	assert.Equal(t, "Hel", got[1].(provider.Chunk[messages.AssistantMessage]).Chunk.Content)
	assert.Equal(t, "lo", got[2].(provider.Chunk[messages.AssistantMessage]).Chunk.Content)
	assert.Equal(t, "end", got[3].(provider.Delim).Delim)
	final, ok := got[4].(provider.Response[messages.AssistantMessage])
	require.True(t, ok, "got %T", got[4])
	assert.Equal(t, "Hello", final.Response.Content)
}

func TestProvider_ChatCompletion_ContextCancellation(t *testing.T) {
	serverDone := make(chan struct{})
	p := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		defer close(serverDone)
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		fmt.Fprint(w, `data: {"id":"s1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"content":"Hello"}}]}`+"\n\n")
		flusher.Flush()
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	events, err := p.ChatCompletion(ctx, provider.CompletionParams{
		Thread: thread.New(),
		Stream: true,
		Model:  testModel(),
	})
	require.NoError(t, err)

	assert.Equal(t, "start", (<-events).(provider.Delim).Delim)
	assert.Equal(t, "Hello", (<-events).(provider.Chunk[messages.AssistantMessage]).Chunk.Content)

	cancel()
	<-serverDone

	var last provider.StreamEvent
	for event := range events {
		last = event
	}
	errEvent, ok := last.(provider.Error)
	require.True(t, ok, "got %T", last)
	assert.ErrorIs(t, errEvent.Err, context.Canceled)
}

func TestProvider_runStream_AbandonedConsumer(t *testing.T) {
	streaming := make(chan struct{})
	p := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		fmt.Fprint(w, `data: {"id":"s1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"content":"Hello"}}]}`+"\n\n")
		flusher.Flush()
		close(streaming)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	params := provider.CompletionParams{Thread: thread.New(), Stream: true, Model: testModel()}
	chatParams, err := p.buildRequest(ctx, &params)
	require.NoError(t, err)

	// nobody ever reads from events
	events := make(chan provider.StreamEvent)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.runStream(ctx, chatParams, &params, events)
	}()

	<-streaming
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.Fail(t, "stream producer is still blocked after cancellation")
	}
}

func TestSend(t *testing.T) {
	ev := provider.Delim{Delim: "start"}

	buffered := make(chan provider.StreamEvent, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, send(ctx, buffered, ev), "a free buffer slot is used even after cancellation")
	assert.False(t, send(ctx, buffered, ev), "a full buffer gives up once cancelled")
	assert.Equal(t, ev, <-buffered)
}
