package otel_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hanpama/httpgraph/internal/eventbus"
	"github.com/hanpama/httpgraph/internal/events"
	"github.com/hanpama/httpgraph/internal/otel"
)

func setup(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })

	unsubscribe := otel.NewSubscriber(tp.Tracer("test"), propagation.TraceContext{}).Register()
	t.Cleanup(unsubscribe)
	return sr
}

func TestUpstreamSpan(t *testing.T) {
	sr := setup(t)
	ctx := context.Background()

	u, _ := url.Parse("https://api.test/users?id=1")
	req := &http.Request{Method: "GET", URL: u, Header: http.Header{}}
	eventbus.Publish(ctx, events.UpstreamStart{CallID: "c1", Endpoint: "Post.user", Request: req})
	require.NotEmpty(t, req.Header.Get("Traceparent"))

	eventbus.Publish(ctx, events.UpstreamFinish{CallID: "c1", Endpoint: "Post.user", Request: req, Status: 200})

	spans := sr.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, "http.client", spans[0].Name())
	require.Equal(t, "Post.user", attributeOf(t, spans[0], "httpgraph.endpoint").AsString())
	require.Equal(t, int64(200), attributeOf(t, spans[0], "http.status_code").AsInt64())
}

func TestUpstreamFinishWithoutStart(t *testing.T) {
	sr := setup(t)
	eventbus.Publish(context.Background(), events.UpstreamFinish{CallID: "unknown"})
	require.Empty(t, sr.Ended())
}

func TestBatchSpanIsBackdated(t *testing.T) {
	sr := setup(t)
	eventbus.Publish(context.Background(), events.BatchDispatch{
		Endpoint: "Post.user",
		Tasks:    3,
		Keys:     2,
		Err:      errors.New("boom"),
		Duration: 250 * time.Millisecond,
	})

	spans := sr.Ended()
	require.Len(t, spans, 1)
	s := spans[0]
	require.Equal(t, "httpgraph.batch", s.Name())
	require.Equal(t, 250*time.Millisecond, s.EndTime().Sub(s.StartTime()))
	require.Equal(t, codes.Error, s.Status().Code)
}

func attributeOf(t *testing.T, s sdktrace.ReadOnlySpan, key string) attribute.Value {
	t.Helper()
	for _, kv := range s.Attributes() {
		if string(kv.Key) == key {
			return kv.Value
		}
	}
	t.Fatalf("attribute %q not found", key)
	return attribute.Value{}
}
