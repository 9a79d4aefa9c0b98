package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/example/campsite/internal/booking"
	"github.com/example/campsite/internal/calendar"
	"github.com/example/campsite/internal/store/memory"
)

var today = calendar.MustParse("2026-10-18")

func fixedClock() booking.Clock {
	return func() time.Time { return time.Date(2026, time.October, 18, 9, 30, 0, 0, time.UTC) }
}

// day returns today shifted by n days.
func day(n int) calendar.Date { return today.AddDays(n) }

func ptr[T any](v T) *T { return &v }

type fixture struct {
	engine    *booking.Engine
	projector *booking.Projector
	store     *memory.Store
	logs      *observer.ObservedLogs
}

func givenFixture(t *testing.T, store booking.Store) fixture {
	t.Helper()

	mem, _ := store.(*memory.Store)
	if store == nil {
		mem = memory.New()
		store = mem
	}

	core, logs := observer.New(zapcore.DebugLevel)
	opts := []booking.Option{
		booking.WithClock(fixedClock()),
		booking.WithLocation(time.UTC),
		booking.WithLogger(zap.New(core)),
	}

	engine, err := booking.NewEngine(store, opts...)
	require.NoError(t, err)
	projector, err := booking.NewProjector(store, opts...)
	require.NoError(t, err)

	return fixture{engine: engine, projector: projector, store: mem, logs: logs}
}

func (f fixture) book(t *testing.T, start, end calendar.Date) uuid.UUID {
	t.Helper()
	id, err := f.engine.Create(context.Background(), "Jane Camper", "jane@example.com", start, end)
	require.NoError(t, err)
	return id
}

func (f fixture) available(t *testing.T, start, end calendar.Date) []calendar.Date {
	t.Helper()
	got, err := f.projector.Query(context.Background(), start, &end)
	require.NoError(t, err)
	return got
}

// reservation reads back the committed row for id.
func (f fixture) reservation(t *testing.T, id uuid.UUID) booking.Reservation {
	t.Helper()
	var got booking.Reservation
	require.NoError(t, f.store.InTx(context.Background(), booking.ReadOnly, func(repo booking.Repository) error {
		var err error
		got, err = repo.FindReservationByExternalID(context.Background(), id)
		return err
	}))
	return got
}

func days(offsets ...int) []calendar.Date {
	out := make([]calendar.Date, 0, len(offsets))
	for _, n := range offsets {
		out = append(out, day(n))
	}
	return out
}
