// Package tracing installs the OpenTelemetry tracer provider for the service.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
)

const (
	ServiceName = "campsite"

	logMsgSpanEnded = "span ended"
)

// NewProvider returns a tracer provider that writes every finished span to logger at debug level.
func NewProvider(logger *zap.Logger, version string) *sdktrace.TracerProvider {
	res := sdkresource.NewSchemaless(
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(version),
	)
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(&logExporter{logger: logger}),
		sdktrace.WithResource(res),
	)
}

// Install makes tp the global provider and returns a function that flushes and stops it.
func Install(tp *sdktrace.TracerProvider) func(context.Context) error {
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}

// logExporter is a SpanExporter backed by zap.
type logExporter struct {
	logger *zap.Logger
}

func (e *logExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		sc := s.SpanContext()
		fields := []zap.Field{
			zap.String("span", s.Name()),
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
			zap.Duration("duration", s.EndTime().Sub(s.StartTime())),
			zap.Stringer("status", s.Status().Code),
		}
		if s.Status().Code == codes.Error {
			fields = append(fields, zap.String("status_description", s.Status().Description))
		}
		for _, kv := range s.Attributes() {
			fields = append(fields, zap.String("attr."+string(kv.Key), kv.Value.Emit()))
		}
		e.logger.Debug(logMsgSpanEnded, fields...)
	}
	return nil
}

func (e *logExporter) Shutdown(context.Context) error {
	return nil
}
