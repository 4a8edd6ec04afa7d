// Package provider abstracts the chat-completion services agents talk to.
//
// A Provider turns a CompletionParams (rendered instructions, conversation thread, tools and an
// optional structured output schema) into a stream of events:
//
//  1. Delim marks the start and end of a streamed response
//  2. Chunk carries an incremental fragment of text or tool calls
//  3. Response carries the complete assistant message or tool call request, with token usage
//  4. Error reports a failure; it is always the last event
//
// Non streaming calls produce a single Response or Error. The channel is closed when the call
// is done.
//
//	events, err := prov.ChatCompletion(ctx, provider.CompletionParams{
//	    RunID:        runID,
//	    Instructions: "You are a helpful assistant",
//	    Thread:       th,
//	    Model:        model,
//	})
//	if err != nil {
//	    return err
//	}
//	for event := range events {
//	    switch e := event.(type) {
//	    case provider.Chunk[messages.AssistantMessage]:
//	        fmt.Print(e.Chunk.Content)
//	    case provider.Response[messages.AssistantMessage]:
//	        final = e.Response
//	    case provider.Error:
//	        return e
//	    }
//	}
package provider
