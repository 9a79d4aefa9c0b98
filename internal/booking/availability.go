package booking

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/example/campsite/internal/calendar"
)

// Projector answers availability queries. It reads committed claims only and never writes.
type Projector struct {
	rt *runtime
}

func NewProjector(store Store, opts ...Option) (*Projector, error) {
	rt, err := newRuntime(store, opts)
	if err != nil {
		return nil, err
	}
	return &Projector{rt: rt}, nil
}

// Window clamps a requested availability window to [tomorrow, today+1 month].
// A missing or too distant end becomes the horizon.
func Window(rawStart calendar.Date, rawEnd *calendar.Date, today calendar.Date) (start, end calendar.Date, err error) {
	tomorrow := today.AddDays(LeadDays)
	horizon := today.AddMonths(HorizonMonths)

	start = calendar.Max(rawStart, tomorrow)
	end = horizon
	if rawEnd != nil && !rawEnd.After(horizon) {
		end = *rawEnd
	}
	if start.After(end) {
		return start, end, &RuleViolation{Rule: RuleOrder, Start: start, End: end}
	}
	return start, end, nil
}

// Query returns, in ascending order, every day of the clamped window that no reservation claims.
func (p *Projector) Query(ctx context.Context, rawStart calendar.Date, rawEnd *calendar.Date) (days []calendar.Date, err error) {
	ctx, span := p.rt.tracer.Start(ctx, "booking.Availability")
	defer func() { endSpan(span, err) }()
	ctx, cancel := p.rt.bounded(ctx)
	defer cancel()

	start, end, err := Window(rawStart, rawEnd, p.rt.today())
	if err != nil {
		return nil, p.rt.reject("availability", uuid.Nil, err)
	}
	span.SetAttributes(
		attribute.String(logAttrStart, start.String()),
		attribute.String(logAttrEnd, end.String()),
	)

	var claims []DayClaim
	err = p.rt.store.InTx(ctx, ReadOnly, func(repo Repository) error {
		var err error
		claims, err = repo.FindDayClaimsInRange(ctx, start, end)
		return err
	})
	if err != nil {
		return nil, p.rt.reject("availability", uuid.Nil, err)
	}

	days = Available(start, end, claims)
	span.SetAttributes(attribute.Int("available_days", len(days)))
	return days, nil
}

// Available returns the days of [start, end] not covered by claims.
func Available(start, end calendar.Date, claims []DayClaim) []calendar.Date {
	taken := make(map[calendar.Date]struct{}, len(claims))
	for _, c := range claims {
		taken[c.Day] = struct{}{}
	}

	all := calendar.Range(start, end)
	days := make([]calendar.Date, 0, len(all))
	for _, d := range all {
		if _, ok := taken[d]; !ok {
			days = append(days, d)
		}
	}
	return days
}
