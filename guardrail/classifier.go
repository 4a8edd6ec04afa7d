package guardrail

import (
	"context"
	"errors"
	"fmt"

	"github.com/casualjim/switchboard/api"
	"github.com/casualjim/switchboard/messages"
	"github.com/casualjim/switchboard/pkg/uuidx"
	"github.com/casualjim/switchboard/provider"
	"github.com/casualjim/switchboard/thread"
	"github.com/casualjim/switchboard/types"
	json "github.com/goccy/go-json"
)

// Verdict is the structured answer of a classifier guardrail.
type Verdict struct {
	IsFlagged bool   `json:"is_flagged"`
	Reasoning string `json:"reasoning"`
}

var verdictSchema = provider.SchemaFor[Verdict]()

// Classifier asks model whether the text should be flagged, following instructions,
// and trips when it is. The verdict is the result info.
func Classifier(model api.Model, instructions string) CheckFunc {
	return func(ctx context.Context, _ api.Agent, text string, _ types.ContextVars) (api.GuardrailResult, error) {
		th := thread.New()
		th.AddUserPrompt(messages.New().UserPrompt(text))

		events, err := model.Provider().ChatCompletion(ctx, provider.CompletionParams{
			RunID:        uuidx.New(),
			Instructions: instructions,
			Thread:       th,
			Model:        model,
			ResponseSchema: &provider.StructuredOutput{
				Name:        "guardrail_verdict",
				Description: "Whether the input should be flagged, and why",
				Schema:      verdictSchema,
			},
		})
		if err != nil {
			return api.GuardrailResult{}, fmt.Errorf("guardrail classifier: %w", err)
		}

		var out string
		var gotResponse bool
		for ev := range events {
			switch ev := ev.(type) {
			case provider.Error:
				err = errors.Join(err, ev.Err)
			case provider.Response[messages.AssistantMessage]:
				out = ev.Response.Text()
				gotResponse = true
			case provider.Response[messages.ToolCallMessage]:
				err = errors.Join(err, errors.New("unexpected tool call"))
			}
		}
		if err != nil {
			return api.GuardrailResult{}, fmt.Errorf("guardrail classifier: %w", err)
		}
		if !gotResponse {
			return api.GuardrailResult{}, errors.New("guardrail classifier: no response")
		}

		var v Verdict
		if err := json.Unmarshal([]byte(out), &v); err != nil {
			return api.GuardrailResult{}, fmt.Errorf("guardrail classifier: decoding verdict %q: %w", out, err)
		}
		return api.GuardrailResult{TripwireTriggered: v.IsFlagged, Info: v}, nil
	}
}
