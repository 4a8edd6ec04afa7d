// Package store defines the persistence contracts for chat transcripts and trace records.
package store

import (
	"context"
	"time"

	"github.com/casualjim/switchboard/messages"
)

// ChatHistories persists the transcript of chat sessions.
type ChatHistories interface {
	// Save replaces the transcript stored for sessionID, creating it when missing.
	Save(ctx context.Context, sessionID string, items []messages.Item) error
	// Load returns the stored transcript, or an empty list when there is none.
	Load(ctx context.Context, sessionID string) ([]messages.Item, error)
}

// TraceRow is the stored form of a finished trace.
type TraceRow struct {
	TraceID   string
	Name      string
	StartTime string
	EndTime   string
	// Metadata is JSON encoded text.
	Metadata  string
	CreatedAt time.Time
}

// SpanRow is the stored form of a finished span.
type SpanRow struct {
	SpanID       string
	TraceID      string
	ParentSpanID string
	Name         string
	StartTime    string
	EndTime      string
	// Metadata is JSON encoded text.
	Metadata  string
	CreatedAt time.Time
}

// TraceSink stores trace and span records.
type TraceSink interface {
	InsertTrace(ctx context.Context, row TraceRow) error
	InsertSpan(ctx context.Context, row SpanRow) error
}
