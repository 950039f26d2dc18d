package graphql

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/storefront/internal/storefront"
)

const instrumentationName = "github.com/xenking/storefront/internal/graphql"

type instrumented struct {
	next     storefront.Fetcher
	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// Instrument wraps next so that every request records a client span, a
// request counter and a latency histogram tagged by operation and outcome.
func Instrument(next storefront.Fetcher, tp trace.TracerProvider, mp metric.MeterProvider) (storefront.Fetcher, error) {
	meter := mp.Meter(instrumentationName)

	requests, err := meter.Int64Counter("storefront.graphql.requests",
		metric.WithDescription("Number of storefront GraphQL requests"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create requests counter")
	}
	duration, err := meter.Float64Histogram("storefront.graphql.duration",
		metric.WithDescription("Duration of storefront GraphQL requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create duration histogram")
	}

	return &instrumented{
		next:     next,
		tracer:   tp.Tracer(instrumentationName),
		requests: requests,
		duration: duration,
	}, nil
}

func (i *instrumented) Fetch(ctx context.Context, req storefront.Request) (*storefront.Response, error) {
	op := req.OperationName
	if op == "" {
		op = "anonymous"
	}

	ctx, span := i.tracer.Start(ctx, "storefront."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("graphql.operation.name", op)),
	)
	defer span.End()

	start := time.Now()
	resp, err := i.next.Fetch(ctx, req)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	)
	i.requests.Add(ctx, 1, attrs)
	i.duration.Record(ctx, time.Since(start).Seconds(), attrs)

	return resp, err
}
