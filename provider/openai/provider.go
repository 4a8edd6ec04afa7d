package openai

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/casualjim/switchboard/messages"
	"github.com/casualjim/switchboard/pkg/jsonx"
	"github.com/casualjim/switchboard/provider"
	"github.com/casualjim/switchboard/thread"
	"github.com/go-openapi/strfmt"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

var _ provider.Provider = (*Provider)(nil)

type Provider struct {
	client *openai.Client
}

func New(options ...option.RequestOption) *Provider {
	client := openai.NewClient(options...)
	return &Provider{
		client: client,
	}
}

func (p *Provider) buildRequest(_ context.Context, params *provider.CompletionParams) (openai.ChatCompletionNewParams, error) {
	if params.Model == nil {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("model is required")
	}
	if params.Thread == nil {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("thread is required")
	}

	result, user := messagesToOpenAI(params.Instructions, params.Thread.MessagesIter())

	tools := make([]openai.ChatCompletionToolParam, len(params.Tools))
	for i, tool := range params.Tools {
		if tool.Function == nil {
			return openai.ChatCompletionNewParams{}, fmt.Errorf("tool %s has nil function", tool.Name)
		}

		name, parameters := tool.ToNameAndSchema()
		jv, err := jsonx.ToDynamicJSON(parameters)
		if err != nil {
			return openai.ChatCompletionNewParams{}, fmt.Errorf("failed to convert tool to name and schema: %w", err)
		}

		def := openai.FunctionDefinitionParam{
			Name:       openai.String(name),
			Parameters: openai.F(shared.FunctionParameters(jv)),
		}
		if strings.TrimSpace(tool.Description) != "" {
			def.Description = openai.String(tool.Description)
		}

		tools[i] = openai.ChatCompletionToolParam{
			Type:     openai.F(openai.ChatCompletionToolTypeFunction),
			Function: openai.F(def),
		}
	}

	oaiParams := openai.ChatCompletionNewParams{
		Messages: openai.F(result),
		Model:    openai.F(params.Model.Name()),
		N:        openai.Int(1),
	}
	if len(tools) > 0 {
		oaiParams.Tools = openai.F(tools)
		oaiParams.ParallelToolCalls = openai.Bool(params.ParallelToolCalls)
	}
	if strings.TrimSpace(user) != "" {
		oaiParams.User = openai.String(user)
	}
	if params.Stream {
		oaiParams.StreamOptions = openai.F(openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		})
	}
	if rs := params.ResponseSchema; rs != nil {
		schema, err := jsonx.ToDynamicJSON(rs.Schema)
		if err != nil {
			return openai.ChatCompletionNewParams{}, fmt.Errorf("failed to convert response schema: %w", err)
		}
		schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
			Name:   openai.F(rs.Name),
			Schema: openai.F[any](schema),
			Strict: openai.Bool(true),
		}
		if rs.Description != "" {
			schemaParam.Description = openai.F(rs.Description)
		}
		oaiParams.ResponseFormat = openai.F[openai.ChatCompletionNewParamsResponseFormatUnion](
			openai.ResponseFormatJSONSchemaParam{
				Type:       openai.F(openai.ResponseFormatJSONSchemaTypeJSONSchema),
				JSONSchema: openai.F(schemaParam),
			},
		)
	}

	return oaiParams, nil
}

func (p *Provider) ChatCompletion(ctx context.Context, params provider.CompletionParams) (<-chan provider.StreamEvent, error) {
	chatParams, err := p.buildRequest(ctx, &params)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	events := make(chan provider.StreamEvent, 10)
	go func() {
		defer close(events)
		if params.Stream {
			p.runStream(ctx, chatParams, &params, events)
		} else {
			p.runOnce(ctx, chatParams, &params, events)
		}
	}()
	return events, nil
}

func errorEvent(command *provider.CompletionParams, err error) provider.Error {
	return provider.Error{
		Err:       err,
		RunID:     command.RunID,
		TurnID:    command.TurnID(),
		Timestamp: strfmt.DateTime(time.Now()),
	}
}

// send delivers ev while the buffer has room, otherwise it waits until the
// consumer reads or ctx is done. A consumer that stopped reading after
// cancelling never blocks the producer.
func send(ctx context.Context, events chan<- provider.StreamEvent, ev provider.StreamEvent) bool {
	select {
	case events <- ev:
		return true
	default:
	}
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *Provider) runStream(ctx context.Context, params openai.ChatCompletionNewParams, command *provider.CompletionParams, events chan<- provider.StreamEvent) {
	strm := p.client.Chat.Completions.NewStreaming(ctx, params)
	defer strm.Close()

	if strm.Err() != nil {
		send(ctx, events, errorEvent(command, strm.Err()))
		return
	}

	var started bool
	var acc openai.ChatCompletionAccumulator

	for strm.Next() {
		if ctx.Err() != nil {
			break
		}

		if !started {
			started = true
			if !send(ctx, events, provider.Delim{RunID: command.RunID, TurnID: command.TurnID(), Delim: "start"}) {
				return
			}
		}

		chunk := strm.Current()
		acc.AddChunk(chunk)
		if ev, ok := completionChunkToStreamEvent(&chunk, command); ok {
			if !send(ctx, events, ev) {
				return
			}
		}
	}

	if err := ctx.Err(); err != nil {
		send(ctx, events, errorEvent(command, err))
		return
	}
	if err := strm.Err(); err != nil {
		send(ctx, events, errorEvent(command, err))
		return
	}
	if !started {
		send(ctx, events, errorEvent(command, fmt.Errorf("empty completion stream")))
		return
	}

	if send(ctx, events, provider.Delim{RunID: command.RunID, TurnID: command.TurnID(), Delim: "end"}) {
		send(ctx, events, completionToStreamEvent(&acc.ChatCompletion, command))
	}
}

func (p *Provider) runOnce(ctx context.Context, params openai.ChatCompletionNewParams, command *provider.CompletionParams, events chan<- provider.StreamEvent) {
	chat, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		send(ctx, events, errorEvent(command, err))
		return
	}

	send(ctx, events, completionToStreamEvent(chat, command))
}

func messagesToOpenAI(instructions string, msgs iter.Seq[messages.Message[messages.ModelMessage]]) ([]openai.ChatCompletionMessageParamUnion, string) {
	result := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(instructions),
	}
	var user string
	for message := range msgs {
		switch msg := message.Payload.(type) {
		case messages.UserMessage:
			if message.Sender != "" {
				user = message.Sender
			}
			result = append(result, openai.UserMessage(msg.Content))
		case messages.DeveloperMessage:
			result = append(result, openai.SystemMessage(msg.Content))
		case messages.ToolResponse:
			result = append(result, openai.ToolMessage(msg.ToolCallID, msg.Content))
		case messages.ToolCallMessage:
			tcd := make([]openai.ChatCompletionMessageToolCallParam, len(msg.ToolCalls))
			for i, tc := range msg.ToolCalls {
				tcd[i] = openai.ChatCompletionMessageToolCallParam{
					ID:   openai.String(tc.ID),
					Type: openai.F(openai.ChatCompletionMessageToolCallTypeFunction),
					Function: openai.F(openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      openai.String(tc.Name),
						Arguments: openai.String(tc.Arguments),
					}),
				}
			}
			result = append(result, openai.ChatCompletionMessageParam{
				Role:      openai.F(openai.ChatCompletionMessageParamRoleAssistant),
				ToolCalls: openai.F[any](tcd),
			})
		case messages.AssistantMessage:
			am := openai.ChatCompletionAssistantMessageParam{
				Role: openai.F(openai.ChatCompletionAssistantMessageParamRoleAssistant),
			}
			if msg.Content != "" {
				am.Content = openai.F([]openai.ChatCompletionAssistantMessageParamContentUnion{openai.TextPart(msg.Content)})
			}
			if msg.Refusal != "" {
				am.Refusal = openai.String(msg.Refusal)
			}
			result = append(result, am)
		}
	}
	return result, user
}

func toolCallData(id, name, arguments string) messages.ToolCallData {
	return messages.ToolCallData{ID: id, Name: name, Arguments: arguments}
}

func completionChunkToStreamEvent(chunk *openai.ChatCompletionChunk, command *provider.CompletionParams) (provider.StreamEvent, bool) {
	if len(chunk.Choices) == 0 {
		// usage only chunk
		return nil, false
	}

	delta := chunk.Choices[0].Delta
	if len(delta.ToolCalls) > 0 {
		tcd := make([]messages.ToolCallData, len(delta.ToolCalls))
		for i, tc := range delta.ToolCalls {
			tcd[i] = toolCallData(tc.ID, tc.Function.Name, tc.Function.Arguments)
		}

		return provider.Chunk[messages.ToolCallMessage]{
			RunID:     command.RunID,
			TurnID:    command.TurnID(),
			Chunk:     messages.ToolCallMessage{ToolCalls: tcd},
			Timestamp: strfmt.DateTime(time.Now()),
		}, true
	}

	if delta.Content == "" && delta.Refusal == "" {
		return nil, false
	}
	return provider.Chunk[messages.AssistantMessage]{
		RunID:     command.RunID,
		TurnID:    command.TurnID(),
		Chunk:     messages.AssistantMessage{Content: delta.Content, Refusal: delta.Refusal},
		Timestamp: strfmt.DateTime(time.Now()),
	}, true
}

func usageFrom(u openai.CompletionUsage) thread.Usage {
	return thread.Usage{
		CompletionTokens: u.CompletionTokens,
		PromptTokens:     u.PromptTokens,
		TotalTokens:      u.TotalTokens,
		CompletionTokensDetails: thread.CompletionTokensDetails{
			AcceptedPredictionTokens: u.CompletionTokensDetails.AcceptedPredictionTokens,
			AudioTokens:              u.CompletionTokensDetails.AudioTokens,
			ReasoningTokens:          u.CompletionTokensDetails.ReasoningTokens,
			RejectedPredictionTokens: u.CompletionTokensDetails.RejectedPredictionTokens,
		},
		PromptTokensDetails: thread.PromptTokensDetails{
			AudioTokens:  u.PromptTokensDetails.AudioTokens,
			CachedTokens: u.PromptTokensDetails.CachedTokens,
		},
	}
}

func completionToStreamEvent(chat *openai.ChatCompletion, command *provider.CompletionParams) provider.StreamEvent {
	if len(chat.Choices) == 0 {
		return errorEvent(command, fmt.Errorf("completion has no choices"))
	}

	usage := usageFrom(chat.Usage)
	choice := chat.Choices[0].Message
	if len(choice.ToolCalls) > 0 {
		tcd := make([]messages.ToolCallData, len(choice.ToolCalls))
		for i, tc := range choice.ToolCalls {
			tcd[i] = toolCallData(tc.ID, tc.Function.Name, tc.Function.Arguments)
		}

		return provider.Response[messages.ToolCallMessage]{
			RunID:     command.RunID,
			TurnID:    command.TurnID(),
			Response:  messages.ToolCallMessage{ToolCalls: tcd},
			Usage:     usage,
			Timestamp: strfmt.DateTime(time.Now()),
		}
	}

	return provider.Response[messages.AssistantMessage]{
		RunID:     command.RunID,
		TurnID:    command.TurnID(),
		Response:  messages.AssistantMessage{Content: choice.Content, Refusal: choice.Refusal},
		Usage:     usage,
		Timestamp: strfmt.DateTime(time.Now()),
	}
}
