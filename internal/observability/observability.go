// Package observability wires OpenTelemetry tracing for the astronomical
// core and its surrounding services.
package observability

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var (
	resource          *sdkresource.Resource
	initResourcesOnce sync.Once
	initObserverOnce  sync.Once
)

// Wrappers around the otel trace package, kept as package vars so callers
// don't need to import go.opentelemetry.io/otel/trace directly.
var (
	WithAttributes  = trace.WithAttributes
	SpanFromContext = trace.SpanFromContext
)

// ObserverInterface is the tracing facade used across the module.
type ObserverInterface interface {
	Shutdown(ctx context.Context) error
	Tracer(name string) trace.Tracer
	CreateSpan(ctx context.Context, name string) (context.Context, trace.Span)
}

type observer struct {
	tp *sdktrace.TracerProvider
}

var oi *observer

// NewLocalObserver initializes a stdout-backed tracer provider, suitable for
// local runs and tests.
func NewLocalObserver() ObserverInterface {
	initObserverOnce.Do(func() {
		tp, _ := initStdoutProvider()
		oi = &observer{tp: tp}
	})
	return oi
}

// NewObserver initializes a tracer provider exporting to the given OTLP gRPC
// collector address, falling back to stdout when address is empty.
func NewObserver(address string) (ObserverInterface, error) {
	var tp *sdktrace.TracerProvider
	var err error
	initObserverOnce.Do(func() {
		if address == "" {
			tp, err = initStdoutProvider()
		} else {
			tp, err = initOTLPProvider(address)
		}
		oi = &observer{tp: tp}
	})
	return oi, err
}

// Observer returns the process-wide observer, auto-initializing a local one
// if none has been configured yet.
func Observer() ObserverInterface {
	if oi == nil {
		return NewLocalObserver()
	}
	return oi
}

func (o *observer) Shutdown(ctx context.Context) error {
	return o.tp.Shutdown(ctx)
}

func (o *observer) Tracer(name string) trace.Tracer {
	return o.tp.Tracer(name)
}

func (o *observer) CreateSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer("waqt")
	return tracer.Start(ctx, name)
}

func initResource() *sdkresource.Resource {
	initResourcesOnce.Do(func() {
		extraResources, _ := sdkresource.New(
			context.Background(),
			sdkresource.WithOS(),
			sdkresource.WithProcess(),
			sdkresource.WithHost(),
			sdkresource.WithAttributes(
				attribute.String("application", "waqt"),
				attribute.String("service.name", "waqt"),
				attribute.String("service.namespace", "observability"),
			),
		)
		resource, _ = sdkresource.Merge(sdkresource.Default(), extraResources)
	})
	return resource
}

func initStdoutProvider() (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("init stdouttrace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(initResource()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}

func initOTLPProvider(address string) (*sdktrace.TracerProvider, error) {
	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}

	exporter, err := otlptracegrpc.New(context.Background(), otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(initResource()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}
