// Package types provides the small value types shared by agents, tools and the runner.
package types

import (
	"maps"

	json "github.com/goccy/go-json"
)

// ContextVars is the run-scoped key/value store handed to instruction templates,
// tools and hand-off callbacks.
//
// Instructions can reference the values as template fields:
//
//	agent.New(
//	    agent.Instructions("You are helping {{.customer_name}} with order {{.order_id}}."),
//	)
//
// Tools receive the store when one of their parameters has the ContextVars
// type, and can update it by returning a ContextVars value; the runner merges
// returned values into the store for the remainder of the run.
//
// ContextVars is not safe for concurrent modification. Tools that run in
// parallel each receive a copy; their writes are merged back in call order.
type ContextVars map[string]any

// String returns the JSON representation, or an empty string when encoding fails.
func (cv ContextVars) String() string {
	jsonData, err := json.Marshal(cv)
	if err != nil {
		return ""
	}
	return string(jsonData)
}

// Clone returns a shallow copy. Cloning a nil store yields an empty, non-nil store.
func (cv ContextVars) Clone() ContextVars {
	if cv == nil {
		return make(ContextVars)
	}
	return maps.Clone(cv)
}

// Merge copies every entry of other into cv, overwriting existing keys.
func (cv ContextVars) Merge(other ContextVars) {
	maps.Copy(cv, other)
}

// Get returns the value for key when it holds a T.
func Get[T any](cv ContextVars, key string) (T, bool) {
	v, ok := cv[key].(T)
	return v, ok
}
