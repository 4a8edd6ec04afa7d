package natsexport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/casualjim/switchboard/tracing"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, published{subject, data})
	return f.err
}

func TestExporterPublishes(t *testing.T) {
	pub := &fakePublisher{}
	exp := New(pub, "")
	assert.Equal(t, "switchboard.tracing.trace.ended", exp.TraceSubject())
	assert.Equal(t, "switchboard.tracing.span.ended", exp.SpanSubject())

	prov := tracing.NewProvider(exp)
	ctx, tr := tracing.Start(context.Background(), "Tracing workflow", tracing.WithProvider(prov))
	_, s := tracing.StartSpan(ctx, tracing.KindAgent, "Tracing Agent", nil)
	s.End()
	tr.Finish()

	require.Len(t, pub.msgs, 2)
	assert.Equal(t, exp.SpanSubject(), pub.msgs[0].subject)
	assert.Equal(t, "span.ended", gjson.GetBytes(pub.msgs[0].data, "event").String())
	assert.Equal(t, s.ID, gjson.GetBytes(pub.msgs[0].data, "span_id").String())
	assert.Equal(t, tr.ID, gjson.GetBytes(pub.msgs[0].data, "trace_id").String())

	assert.Equal(t, exp.TraceSubject(), pub.msgs[1].subject)
	assert.Equal(t, "trace.ended", gjson.GetBytes(pub.msgs[1].data, "event").String())
	assert.Equal(t, "Tracing workflow", gjson.GetBytes(pub.msgs[1].data, "name").String())

	require.NoError(t, exp.ForceFlush(context.Background()))
}

func TestExporterIgnoresPublishErrors(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nats: connection closed")}
	prov := tracing.NewProvider(New(pub, "demo"))
	_, tr := tracing.Start(context.Background(), "wf", tracing.WithProvider(prov))
	assert.NotPanics(t, tr.Finish)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "demo.trace.ended", pub.msgs[0].subject)
}

func TestExporterOverNATS(t *testing.T) {
	nc, err := nats.Connect(nats.DefaultURL, nats.Timeout(500*time.Millisecond))
	if err != nil {
		t.Skipf("nats server not available: %v", err)
	}
	t.Cleanup(nc.Close)

	exp := New(nc, "test.switchboard")
	sub, err := nc.SubscribeSync(exp.TraceSubject())
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	prov := tracing.NewProvider(exp)
	_, tr := tracing.Start(context.Background(), "nats workflow", tracing.WithProvider(prov))
	tr.Finish()
	require.NoError(t, exp.ForceFlush(context.Background()))

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, tr.ID, gjson.GetBytes(msg.Data, "trace_id").String())
}
