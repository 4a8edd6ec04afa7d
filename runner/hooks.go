package runner

import (
	"context"

	"github.com/casualjim/switchboard/api"
	"github.com/casualjim/switchboard/tool"
)

// Hooks observe the lifecycle of a run. Tool hooks may be called from
// several goroutines when an agent runs its tools in parallel.
type Hooks interface {
	OnAgentStart(ctx context.Context, agent api.Agent)
	OnAgentEnd(ctx context.Context, agent api.Agent, output string)
	OnHandoff(ctx context.Context, from, to api.Agent)
	OnToolStart(ctx context.Context, agent api.Agent, tool tool.Definition)
	OnToolEnd(ctx context.Context, agent api.Agent, tool tool.Definition, output string)
}

// NoopHooks implements Hooks with methods that do nothing. Embed it to
// implement only some of the hooks.
type NoopHooks struct{}

func (NoopHooks) OnAgentStart(context.Context, api.Agent)                       {}
func (NoopHooks) OnAgentEnd(context.Context, api.Agent, string)                 {}
func (NoopHooks) OnHandoff(context.Context, api.Agent, api.Agent)               {}
func (NoopHooks) OnToolStart(context.Context, api.Agent, tool.Definition)       {}
func (NoopHooks) OnToolEnd(context.Context, api.Agent, tool.Definition, string) {}
