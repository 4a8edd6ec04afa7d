// Package api holds the contracts shared by agents, hand-offs, guardrails and the runner.
//
// The concrete constructors live in their own packages (agent, handoff, guardrail);
// this package only defines the shapes they agree on so the runner can depend on
// them without import cycles.
package api
