package observability

import (
	"context"
	"time"

	"uni-directory/internal/common/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Observability bundles the meter and tracer used around catalog fetches.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer
	fetchCounter   otelmetric.Int64Counter
	fetchDuration  otelmetric.Float64Histogram
}

// New wires the Prometheus metric exporter and, when jaegerEndpoint is not
// empty, a Jaeger span exporter. Exporter failures degrade to no-op
// instruments and are logged.
func New(serviceName, jaegerEndpoint string, log logger.Logger) *Observability {
	log = logger.OrNop(log)
	o := &Observability{tracer: noop.NewTracerProvider().Tracer(serviceName)}

	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("Failed to create Prometheus exporter", map[string]interface{}{"error": err.Error()})
	} else {
		provider := metric.NewMeterProvider(metric.WithReader(exporter))
		otel.SetMeterProvider(provider)
		o.meterProvider = provider
		o.meter = provider.Meter(serviceName)

		o.fetchCounter, _ = o.meter.Int64Counter(
			"catalog.fetches",
			otelmetric.WithDescription("Number of catalog fetches by collection and outcome"),
		)
		o.fetchDuration, _ = o.meter.Float64Histogram(
			"catalog.fetch.duration",
			otelmetric.WithDescription("Catalog fetch duration"),
			otelmetric.WithUnit("ms"),
		)
	}

	if jaegerEndpoint != "" {
		exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jaegerEndpoint)))
		if err != nil {
			log.Warn("Failed to create Jaeger exporter", map[string]interface{}{"error": err.Error()})
		} else {
			tp := sdktrace.NewTracerProvider(
				sdktrace.WithBatcher(exp),
				sdktrace.WithResource(resource.NewSchemaless(
					attribute.String("service.name", serviceName),
				)),
			)
			otel.SetTracerProvider(tp)
			o.tracerProvider = tp
			o.tracer = tp.Tracer(serviceName)
		}
	}

	return o
}

// NewNoop returns an Observability whose instruments discard everything.
func NewNoop() *Observability {
	return &Observability{tracer: noop.NewTracerProvider().Tracer("noop")}
}

// StartFetchSpan opens a client span for a catalog request.
func (o *Observability) StartFetchSpan(ctx context.Context, collection, url string) (context.Context, trace.Span) {
	tracer := o.tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	return tracer.Start(ctx, "catalog.fetch "+collection,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("catalog.collection", collection),
			attribute.String("http.url", url),
		),
	)
}

// EndFetchSpan records the outcome on the span and the fetch instruments.
func (o *Observability) EndFetchSpan(ctx context.Context, span trace.Span, collection string, started time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	attrs := otelmetric.WithAttributes(
		attribute.String("collection", collection),
		attribute.String("status", status),
	)
	if o.fetchCounter != nil {
		o.fetchCounter.Add(ctx, 1, attrs)
	}
	if o.fetchDuration != nil {
		o.fetchDuration.Record(ctx, float64(time.Since(started).Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}
