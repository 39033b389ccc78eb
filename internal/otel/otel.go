package otel

import (
	"context"
	"sync"
	"time"

	"github.com/hanpama/httpgraph/internal/eventbus"
	"github.com/hanpama/httpgraph/internal/events"
	"github.com/hanpama/httpgraph/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Setup configures OpenTelemetry and attaches eventbus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	sub := NewSubscriber(tp.Tracer("httpgraph"), propagation.TraceContext{})
	unsubscribe := sub.Register()

	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

// Subscriber turns upstream, batch and transcode events into spans. Upstream
// requests carry the span context in their headers.
type Subscriber struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	spans      sync.Map // call id -> trace.Span
}

func NewSubscriber(tracer trace.Tracer, propagator propagation.TextMapPropagator) *Subscriber {
	return &Subscriber{tracer: tracer, propagator: propagator}
}

// Register subscribes to the global bus and returns a function that removes
// every subscription.
func (s *Subscriber) Register() (unsubscribe func()) {
	offs := []func(){
		eventbus.SubscribeGlobal(s.upstreamStart),
		eventbus.SubscribeGlobal(s.upstreamFinish),
		eventbus.SubscribeGlobal(s.batchDispatch),
		eventbus.SubscribeGlobal(s.transcode),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

func (s *Subscriber) upstreamStart(ctx context.Context, e events.UpstreamStart) {
	ctx, span := s.tracer.Start(ctx, "http.client", trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		semconv.HTTPMethodKey.String(e.Request.Method),
		semconv.HTTPURLKey.String(e.Request.URL.String()),
		attribute.String("httpgraph.endpoint", e.Endpoint),
	)
	if rid, ok := reqid.FromContext(ctx); ok {
		span.SetAttributes(attribute.String("httpgraph.request_id", rid))
	}
	if s.propagator != nil {
		s.propagator.Inject(ctx, propagation.HeaderCarrier(e.Request.Header))
	}
	s.spans.Store(e.CallID, span)
}

func (s *Subscriber) upstreamFinish(ctx context.Context, e events.UpstreamFinish) {
	v, ok := s.spans.LoadAndDelete(e.CallID)
	if !ok {
		return
	}
	span := v.(trace.Span)
	if e.Status != 0 {
		span.SetAttributes(semconv.HTTPStatusCodeKey.Int(e.Status))
	}
	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	}
	span.End()
}

// batchDispatch and transcode arrive after the fact, so their spans are
// back-dated by the reported duration.
func (s *Subscriber) batchDispatch(ctx context.Context, e events.BatchDispatch) {
	s.completed(ctx, "httpgraph.batch", e.Duration, e.Err,
		attribute.String("httpgraph.endpoint", e.Endpoint),
		attribute.Int("httpgraph.batch.tasks", e.Tasks),
		attribute.Int("httpgraph.batch.keys", e.Keys),
		attribute.Bool("httpgraph.batch.shared", e.Shared),
	)
}

func (s *Subscriber) transcode(ctx context.Context, e events.Transcode) {
	s.completed(ctx, "httpgraph.transcode", e.Duration, nil,
		attribute.String("httpgraph.source", e.Source),
		attribute.Int("httpgraph.types", e.Types),
		attribute.Int("httpgraph.endpoints", e.Endpoints),
		attribute.Int("httpgraph.causes", e.Causes),
	)
}

func (s *Subscriber) completed(ctx context.Context, name string, d time.Duration, err error, attrs ...attribute.KeyValue) {
	end := time.Now()
	_, span := s.tracer.Start(ctx, name,
		trace.WithTimestamp(end.Add(-d)),
		trace.WithAttributes(attrs...),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End(trace.WithTimestamp(end))
}
