package runner

import (
	"context"

	"github.com/casualjim/switchboard/api"
	"github.com/casualjim/switchboard/messages"
	"github.com/casualjim/switchboard/thread"
)

// Result is the outcome of a completed run.
type Result struct {
	FinalOutput string
	LastAgent   api.Agent
	// NewItems lists what the run produced, in order.
	NewItems []RunItem
	Usage    thread.Usage
	// Thread holds the input followed by everything the run added.
	Thread *thread.Thread
}

// ToInputList returns the full transcript of the run, suitable for History.
func (r *Result) ToInputList() ([]messages.Item, error) {
	return r.Thread.ToInputList()
}

// Streamed is a run in progress. Events is closed when the run finishes.
type Streamed struct {
	events chan Event
	done   chan struct{}
	result *Result
	err    error
}

func (s *Streamed) Events() <-chan Event {
	return s.events
}

// Wait blocks until the run finishes and returns its outcome.
func (s *Streamed) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-s.done:
		return s.result, s.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
