// Package handoff builds the hand-off declarations agents use to delegate a conversation.
package handoff

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/casualjim/switchboard/api"
	"github.com/casualjim/switchboard/types"
	"github.com/fogfish/opts"
	json "github.com/goccy/go-json"
)

type config struct {
	toolName    string
	description string
	onHandoff   func(context.Context, types.ContextVars) error
}

type Option = opts.Option[config]

var (
	ToolName    = opts.ForName[config, string]("toolName")
	Description = opts.ForName[config, string]("description")
)

// OnHandoff registers a callback that runs when the hand-off is taken.
func OnHandoff(fn func(context.Context, types.ContextVars) error) Option {
	return opts.Type[config](func(c *config) error {
		c.onHandoff = fn
		return nil
	})
}

// To declares a hand-off to target.
func To(target api.Agent, options ...Option) api.Handoff {
	var c config
	if err := opts.Apply(&c, options); err != nil {
		panic(err)
	}
	if c.toolName == "" {
		c.toolName = DefaultToolName(target)
	}
	if c.description == "" {
		c.description = DefaultDescription(target)
	}
	return api.Handoff{
		Agent:           target,
		ToolName:        c.toolName,
		ToolDescription: c.description,
		OnHandoff:       c.onHandoff,
	}
}

// DefaultToolName is transfer_to_<snake_case(agent name)>.
func DefaultToolName(target api.Agent) string {
	return "transfer_to_" + snakeCase(target.Name())
}

// DefaultDescription tells the model which agent the hand-off reaches and when to use it.
func DefaultDescription(target api.Agent) string {
	desc := fmt.Sprintf("Handoff to the %s agent to handle the request.", target.Name())
	if hd := target.HandoffDescription(); hd != "" {
		desc += " " + hd
	}
	return desc
}

// Output is the tool output recorded when the hand-off to target is taken.
func Output(target api.Agent) string {
	out, err := json.Marshal(struct {
		Assistant string `json:"assistant"`
	}{target.Name()})
	if err != nil {
		return "{}"
	}
	return string(out)
}

func snakeCase(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pendingSep = true
	}
	return b.String()
}
