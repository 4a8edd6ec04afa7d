package main

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/casualjim/switchboard/agent"
	"github.com/casualjim/switchboard/api"
	"github.com/casualjim/switchboard/internal/dispute"
	"github.com/casualjim/switchboard/internal/guarded"
	"github.com/casualjim/switchboard/internal/support"
	"github.com/casualjim/switchboard/internal/tooldemo"
	"github.com/casualjim/switchboard/internal/tracedemo"
	"github.com/casualjim/switchboard/provider/openai"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// demoAgents builds the root agent of each demo. The models are only
// constructed, never called.
var demoAgents = map[string]func(api.Model) api.Agent{
	"support": func(m api.Model) api.Agent {
		return support.Agents(m, func(context.Context, string) {})
	},
	"dispute": func(m api.Model) api.Agent {
		return dispute.Agents(m, dispute.NewPaymentTools(nil))
	},
	"guarded": func(m api.Model) api.Agent { return guarded.NewAgent(m, m) },
	"tools":   tooldemo.NewAgent,
	"trace":   tracedemo.NewAgent,
}

var agentsCmd = &cobra.Command{
	Use:       "agents <demo>",
	Short:     "List the agents of a demo and who they hand off to",
	Args:      cobra.ExactArgs(1),
	ValidArgs: demoNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		build, ok := demoAgents[args[0]]
		if !ok {
			return fmt.Errorf("unknown demo %q, expected one of %v", args[0], demoNames())
		}
		root := build(openai.Model(cfg.LLM.Model))
		names := agent.AddGraph(root)
		defer func() {
			for _, n := range names {
				agent.Del(n)
			}
		}()
		return printAgents(cmd.OutOrStdout(), names)
	},
}

func demoNames() []string {
	names := make([]string, 0, len(demoAgents))
	for n := range demoAgents {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func printAgents(w io.Writer, names []string) error {
	for _, n := range names {
		a, ok := agent.Get(n)
		if !ok {
			return fmt.Errorf("agent %q is not registered", n)
		}
		fmt.Fprintf(w, "%s (%s)\n", color.GreenString(a.Name()), a.Model().Name())
		if d := a.HandoffDescription(); d != "" {
			fmt.Fprintf(w, "  %s\n", d)
		}
		for _, h := range a.Handoffs() {
			fmt.Fprintf(w, "  -> %s\n", h.Agent.Name())
		}
	}
	return nil
}
