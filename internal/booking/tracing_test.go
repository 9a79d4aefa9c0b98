package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/example/campsite/internal/booking"
	"github.com/example/campsite/internal/store/memory"
)

func givenTracedEngine(t *testing.T) (*booking.Engine, *booking.Projector, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	store := memory.New()
	opts := []booking.Option{
		booking.WithClock(fixedClock()),
		booking.WithLocation(time.UTC),
		booking.WithTracerProvider(tp),
	}
	engine, err := booking.NewEngine(store, opts...)
	require.NoError(t, err)
	projector, err := booking.NewProjector(store, opts...)
	require.NoError(t, err)
	return engine, projector, exporter
}

func attrValue(span tracetest.SpanStub, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func Test_Tracing_CreateSpan(t *testing.T) {
	engine, _, exporter := givenTracedEngine(t)

	id, err := engine.Create(context.Background(), "a", "a@b", day(2), day(3))
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]

	assert.Equal(t, "booking.Create", span.Name)
	assert.Equal(t, codes.Unset, span.Status.Code, "successful operations leave the status unset")
	assert.Empty(t, span.Events)

	start, ok := attrValue(span, "start")
	require.True(t, ok)
	assert.Equal(t, day(2).String(), start.AsString())
	externalID, ok := attrValue(span, "external_id")
	require.True(t, ok)
	assert.Equal(t, id.String(), externalID.AsString())
}

func Test_Tracing_FailuresRecordKind(t *testing.T) {
	ctx := context.Background()
	engine, _, exporter := givenTracedEngine(t)

	first, err := engine.Create(ctx, "a", "a@b", day(2), day(3))
	require.NoError(t, err)
	exporter.Reset()

	_, err = engine.Create(ctx, "b", "b@c", day(3), day(4))
	require.ErrorIs(t, err, booking.ErrConflict)
	_, err = engine.Update(ctx, uuid.New(), booking.Changes{GuestName: ptr("x")})
	require.ErrorIs(t, err, booking.ErrNotFound)
	_, err = engine.Update(ctx, first, booking.Changes{End: ptr(day(9))})
	require.ErrorIs(t, err, booking.ErrInvalidRange)

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)

	for i, want := range []struct {
		name string
		kind string
	}{
		{"booking.Create", "conflict"},
		{"booking.Update", "not_found"},
		{"booking.Update", "invalid_range"},
	} {
		assert.Equal(t, want.name, spans[i].Name)
		assert.Equal(t, codes.Error, spans[i].Status.Code)
		assert.Equal(t, want.kind, spans[i].Status.Description)
		require.Len(t, spans[i].Events, 1)
		assert.Equal(t, "exception", spans[i].Events[0].Name)
	}
}

func Test_Tracing_CancelAndAvailabilitySpans(t *testing.T) {
	ctx := context.Background()
	engine, projector, exporter := givenTracedEngine(t)

	id, err := engine.Create(ctx, "a", "a@b", day(2), day(3))
	require.NoError(t, err)
	_, err = engine.Cancel(ctx, id)
	require.NoError(t, err)

	end := day(5)
	_, err = projector.Query(ctx, day(1), &end)
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)
	assert.Equal(t, "booking.Cancel", spans[1].Name)
	assert.Equal(t, codes.Unset, spans[1].Status.Code)

	assert.Equal(t, "booking.Availability", spans[2].Name)
	available, ok := attrValue(spans[2], "available_days")
	require.True(t, ok)
	assert.Equal(t, int64(5), available.AsInt64())
}
