package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/example/campsite/internal/calendar"
)

const tracerName = "github.com/example/campsite/internal/booking"

// Clock returns the current instant. Business rules only ever look at its date.
type Clock func() time.Time

// runtime is the shared, immutable environment of the Engine and the Projector.
type runtime struct {
	store  Store
	now    Clock
	loc    *time.Location
	newID  func() uuid.UUID
	logger *zap.Logger
	tracer trace.Tracer

	txTimeout time.Duration
}

// Option configures an Engine or a Projector.
type Option func(*runtime) error

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(rt *runtime) error {
		if c != nil {
			rt.now = c
		}
		return nil
	}
}

// WithLocation sets the zone in which "today" is evaluated.
func WithLocation(loc *time.Location) Option {
	return func(rt *runtime) error {
		if loc == nil {
			return ErrNilLocation
		}
		rt.loc = loc
		return nil
	}
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(rt *runtime) error {
		if l != nil {
			rt.logger = l
		}
		return nil
	}
}

// WithIDGenerator replaces the random v4 reservation id generator.
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(rt *runtime) error {
		if fn != nil {
			rt.newID = fn
		}
		return nil
	}
}

// WithTracerProvider overrides the global OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(rt *runtime) error {
		if tp != nil {
			rt.tracer = tp.Tracer(tracerName)
		}
		return nil
	}
}

// WithTxTimeout bounds each store transaction. An expired deadline surfaces as ErrTransient.
func WithTxTimeout(d time.Duration) Option {
	return func(rt *runtime) error {
		rt.txTimeout = d
		return nil
	}
}

func newRuntime(store Store, opts []Option) (*runtime, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	rt := &runtime{
		store:  store,
		now:    time.Now,
		loc:    time.Local,
		newID:  uuid.New,
		logger: zap.NewNop(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if err := opt(rt); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

func (rt *runtime) today() calendar.Date {
	return calendar.Today(rt.now(), rt.loc)
}

// bounded applies the transaction deadline, if one is configured.
func (rt *runtime) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if rt.txTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, rt.txTimeout)
}
