package booking

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/example/campsite/internal/calendar"
)

const (
	logMsgReservationCreated  = "reservation created"
	logMsgReservationUpdated  = "reservation updated"
	logMsgReservationCanceled = "reservation canceled"
	logMsgRequestRejected     = "reservation request rejected"
	logMsgStoreFailed         = "calendar store operation failed"

	logAttrOperation  = "operation"
	logAttrExternalID = "external_id"
	logAttrStart      = "start"
	logAttrEnd        = "end"
	logAttrKind       = "kind"
)

// Engine performs the reservation lifecycle: Create, Update and Cancel.
// Each call runs as exactly one store transaction; an Engine holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	rt *runtime
}

func NewEngine(store Store, opts ...Option) (*Engine, error) {
	rt, err := newRuntime(store, opts)
	if err != nil {
		return nil, err
	}
	return &Engine{rt: rt}, nil
}

// Create reserves [start, end] for the guest and returns the new reservation's external id.
// Rule violations are reported before the store is touched; any day already claimed yields ErrConflict and
// leaves no trace of the attempt.
func (e *Engine) Create(ctx context.Context, guestName, guestContact string, start, end calendar.Date) (id uuid.UUID, err error) {
	ctx, span := e.rt.tracer.Start(ctx, "booking.Create", trace.WithAttributes(
		attribute.String(logAttrStart, start.String()),
		attribute.String(logAttrEnd, end.String()),
	))
	defer func() { endSpan(span, err) }()
	ctx, cancel := e.rt.bounded(ctx)
	defer cancel()

	if err := ValidateRange(start, end, e.rt.today()); err != nil {
		return uuid.Nil, e.rt.reject("create", uuid.Nil, err)
	}

	r := Reservation{
		ExternalID:   e.rt.newID(),
		GuestName:    guestName,
		GuestContact: guestContact,
		Start:        start,
		End:          end,
	}

	err = e.rt.store.InTx(ctx, ReadWrite, func(repo Repository) error {
		if err := repo.InsertReservation(ctx, &r); err != nil {
			return err
		}
		return repo.InsertDayClaims(ctx, ExpandClaims(r.ID, r.Start, r.End))
	})
	if err != nil {
		return uuid.Nil, e.rt.reject("create", r.ExternalID, err)
	}

	span.SetAttributes(attribute.String(logAttrExternalID, r.ExternalID.String()))
	e.rt.logger.Info(logMsgReservationCreated,
		zap.String(logAttrExternalID, r.ExternalID.String()),
		zap.Stringer(logAttrStart, r.Start),
		zap.Stringer(logAttrEnd, r.End),
	)
	return r.ExternalID, nil
}

// Update applies ch to the reservation identified by id and returns the same id.
//
// Omitted dates fall back to the reservation's current first and last claimed day. When the effective range
// differs from the current one, all claims are replaced inside the same transaction; if any new day is taken
// by another reservation the whole update rolls back and the original claims survive.
func (e *Engine) Update(ctx context.Context, id uuid.UUID, ch Changes) (_ uuid.UUID, err error) {
	ctx, span := e.rt.tracer.Start(ctx, "booking.Update", trace.WithAttributes(
		attribute.String(logAttrExternalID, id.String()),
	))
	defer func() { endSpan(span, err) }()
	ctx, cancel := e.rt.bounded(ctx)
	defer cancel()

	today := e.rt.today()
	var updated Reservation

	err = e.rt.store.InTx(ctx, ReadWrite, func(repo Repository) error {
		r, err := repo.FindReservationByExternalID(ctx, id)
		if err != nil {
			return err
		}

		dirty := false
		if ch.GuestName != nil {
			r.GuestName = *ch.GuestName
			dirty = true
		}
		if ch.GuestContact != nil {
			r.GuestContact = *ch.GuestContact
			dirty = true
		}

		if ch.touchesDates() {
			claims, err := repo.FindDayClaimsByReservation(ctx, r.ID)
			if err != nil {
				return err
			}

			curStart, curEnd := r.Start, r.End
			if len(claims) > 0 {
				curStart, curEnd = claims[0].Day, claims[len(claims)-1].Day
			}
			newStart, newEnd := curStart, curEnd
			if ch.Start != nil {
				newStart = *ch.Start
			}
			if ch.End != nil {
				newEnd = *ch.End
			}

			if err := ValidateRange(newStart, newEnd, today); err != nil {
				return err
			}

			if !newStart.Equal(curStart) || !newEnd.Equal(curEnd) {
				if err := repo.DeleteDayClaimsByReservation(ctx, r.ID); err != nil {
					return err
				}
				if err := repo.InsertDayClaims(ctx, ExpandClaims(r.ID, newStart, newEnd)); err != nil {
					return err
				}
				r.Start, r.End = newStart, newEnd
				dirty = true
			}
		}

		updated = r
		if !dirty {
			return nil
		}
		return repo.UpdateReservation(ctx, r)
	})
	if err != nil {
		return uuid.Nil, e.rt.reject("update", id, err)
	}

	e.rt.logger.Info(logMsgReservationUpdated,
		zap.String(logAttrExternalID, id.String()),
		zap.Stringer(logAttrStart, updated.Start),
		zap.Stringer(logAttrEnd, updated.End),
	)
	return id, nil
}

// Cancel removes the reservation and releases all of its days, returning the cancelled id.
// A second Cancel of the same id reports ErrNotFound.
func (e *Engine) Cancel(ctx context.Context, id uuid.UUID) (_ uuid.UUID, err error) {
	ctx, span := e.rt.tracer.Start(ctx, "booking.Cancel", trace.WithAttributes(
		attribute.String(logAttrExternalID, id.String()),
	))
	defer func() { endSpan(span, err) }()
	ctx, cancel := e.rt.bounded(ctx)
	defer cancel()

	err = e.rt.store.InTx(ctx, ReadWrite, func(repo Repository) error {
		r, err := repo.FindReservationByExternalID(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.DeleteDayClaimsByReservation(ctx, r.ID); err != nil {
			return err
		}
		return repo.DeleteReservation(ctx, r.ID)
	})
	if err != nil {
		return uuid.Nil, e.rt.reject("cancel", id, err)
	}

	e.rt.logger.Info(logMsgReservationCanceled, zap.String(logAttrExternalID, id.String()))
	return id, nil
}

// reject classifies err and logs it at a level matching its kind.
func (rt *runtime) reject(op string, id uuid.UUID, err error) error {
	err = classify(err)
	kind := KindOf(err)

	fields := []zap.Field{
		zap.String(logAttrOperation, op),
		zap.Stringer(logAttrKind, kind),
		zap.Error(err),
	}
	if id != uuid.Nil {
		fields = append(fields, zap.String(logAttrExternalID, id.String()))
	}

	if kind == KindTransient {
		rt.logger.Error(logMsgStoreFailed, fields...)
	} else {
		rt.logger.Info(logMsgRequestRejected, fields...)
	}
	return err
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, KindOf(err).String())
	}
	span.End()
}
