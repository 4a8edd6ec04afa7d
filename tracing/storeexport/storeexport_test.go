package storeexport

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/casualjim/switchboard/store"
	"github.com/casualjim/switchboard/store/sqlite"
	"github.com/casualjim/switchboard/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestExporterWritesRows(t *testing.T) {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "traces.db"))
	require.NoError(t, err)
	defer db.Close()

	prov := tracing.NewProvider(New(db))
	ctx, tr := tracing.Start(context.Background(), "Tracing workflow",
		tracing.WithProvider(prov),
		tracing.Metadata(map[string]any{"demo": "trace"}),
	)

	actx, agentSpan := tracing.StartSpan(ctx, tracing.KindAgent, "Tracing Agent", nil)
	_, gen := tracing.StartSpan(actx, tracing.KindGeneration, "generation", map[string]any{"model": "gemini-2.0-flash"})
	gen.End()
	agentSpan.End()
	tr.Finish()

	traces, err := db.Traces(context.Background())
	require.NoError(t, err)
	require.Len(t, traces, 1)
	assert.Equal(t, tr.ID, traces[0].TraceID)
	assert.Equal(t, "Tracing workflow", traces[0].Name)
	assert.Equal(t, "trace", gjson.Get(traces[0].Metadata, "demo").String())
	assert.NotEmpty(t, traces[0].StartTime)
	assert.NotEmpty(t, traces[0].EndTime)

	spans, err := db.Spans(context.Background(), tr.ID)
	require.NoError(t, err)
	require.Len(t, spans, 2)

	byID := map[string]store.SpanRow{}
	for _, s := range spans {
		byID[s.SpanID] = s
	}
	require.Contains(t, byID, gen.ID)
	assert.Equal(t, agentSpan.ID, byID[gen.ID].ParentSpanID)
	assert.Equal(t, "gemini-2.0-flash", gjson.Get(byID[gen.ID].Metadata, "model").String())
	assert.Equal(t, "generation", gjson.Get(byID[gen.ID].Metadata, "type").String())
	assert.Empty(t, byID[agentSpan.ID].ParentSpanID)
}

type failingSink struct{ calls int }

func (f *failingSink) InsertTrace(context.Context, store.TraceRow) error {
	f.calls++
	return errors.New("database is locked")
}

func (f *failingSink) InsertSpan(context.Context, store.SpanRow) error {
	f.calls++
	return errors.New("database is locked")
}

func TestExporterSwallowsErrors(t *testing.T) {
	sink := &failingSink{}
	prov := tracing.NewProvider(New(sink))

	ctx, tr := tracing.Start(context.Background(), "wf", tracing.WithProvider(prov))
	_, s := tracing.StartSpan(ctx, tracing.KindCustom, "step", nil)
	assert.NotPanics(t, func() {
		s.End()
		tr.Finish()
	})
	assert.Equal(t, 2, sink.calls)
}
