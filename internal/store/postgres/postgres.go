// Package postgres is the Calendar Store on PostgreSQL.
//
// Overlap arbitration is delegated entirely to the UNIQUE constraint on day_claims.day: a second
// reservation for a claimed day fails at insert time with unique_violation, which is reported as
// booking.ErrConflict and aborts the surrounding transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/campsite/internal/booking"
	"github.com/example/campsite/internal/calendar"
	"github.com/example/campsite/internal/db"
)

const dialectPostgres = "postgres"

const (
	tableReservations = "reservations"
	tableDayClaims    = "day_claims"

	colID            = "id"
	colExternalID    = "external_id"
	colGuestName     = "guest_name"
	colGuestContact  = "guest_contact"
	colStartDate     = "start_date"
	colEndDate       = "end_date"
	colUpdatedAt     = "updated_at"
	colReservationID = "reservation_id"
	colDay           = "day"

	constraintDayClaimsDay = "day_claims_day_key"
	constraintExternalID   = "reservations_external_id_key"
)

const (
	logMsgQuery          = "executing query"
	logMsgBuildingFailed = "building query failed"
	logAttrSQL           = "sql"
	logAttrArgs          = "args"
)

var ErrBuildingQueryFailed = errors.New("building query failed")

type Store struct {
	conn    db.Conn
	builder goqu.DialectWrapper
	logger  *zap.Logger
}

type Option func(*Store)

// WithLogger enables debug logging of every statement.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(conn db.Conn, opts ...Option) *Store {
	s := &Store{
		conn:    conn,
		builder: goqu.Dialect(dialectPostgres),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) InTx(ctx context.Context, mode booking.TxMode, fn func(booking.Repository) error) error {
	opts := db.TxOptions{ReadOnly: mode == booking.ReadOnly}
	return s.conn.InTx(ctx, opts, func(q db.Querier) error {
		return fn(&repo{
			q:       q,
			builder: s.builder,
			logger:  s.logger,
			lock:    mode == booking.ReadWrite,
		})
	})
}

type repo struct {
	q       db.Querier
	builder goqu.DialectWrapper
	logger  *zap.Logger
	lock    bool
}

type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

func (r *repo) build(stmt sqlBuilder) (string, []any, error) {
	query, args, err := stmt.ToSQL()
	if err != nil {
		r.logger.Error(logMsgBuildingFailed, zap.Error(err))
		return "", nil, errors.Join(ErrBuildingQueryFailed, err)
	}
	r.logger.Debug(logMsgQuery, zap.String(logAttrSQL, query), zap.Any(logAttrArgs, args))
	return query, args, nil
}

func (r *repo) exec(ctx context.Context, stmt sqlBuilder) error {
	query, args, err := r.build(stmt)
	if err != nil {
		return err
	}
	return mapError(r.q.Exec(ctx, query, args...))
}

func (r *repo) InsertReservation(ctx context.Context, res *booking.Reservation) error {
	query, args, err := r.build(r.builder.
		Insert(tableReservations).
		Prepared(true).
		Rows(goqu.Record{
			colExternalID:   res.ExternalID.String(),
			colGuestName:    res.GuestName,
			colGuestContact: res.GuestContact,
			colStartDate:    res.Start.String(),
			colEndDate:      res.End.String(),
		}).
		Returning(colID))
	if err != nil {
		return err
	}
	return mapError(r.q.QueryRow(ctx, query, args...).Scan(&res.ID))
}

func (r *repo) FindReservationByExternalID(ctx context.Context, id uuid.UUID) (booking.Reservation, error) {
	stmt := r.builder.
		From(tableReservations).
		Prepared(true).
		Select(colID, colExternalID, colGuestName, colGuestContact, colStartDate, colEndDate).
		Where(goqu.C(colExternalID).Eq(id.String()))
	if r.lock {
		stmt = stmt.ForUpdate(exp.Wait)
	}

	query, args, err := r.build(stmt)
	if err != nil {
		return booking.Reservation{}, err
	}

	var (
		res        booking.Reservation
		start, end time.Time
	)
	err = r.q.QueryRow(ctx, query, args...).
		Scan(&res.ID, &res.ExternalID, &res.GuestName, &res.GuestContact, &start, &end)
	if err != nil {
		return booking.Reservation{}, mapError(err)
	}
	res.Start, res.End = calendar.FromTime(start), calendar.FromTime(end)
	return res, nil
}

func (r *repo) UpdateReservation(ctx context.Context, res booking.Reservation) error {
	return r.exec(ctx, r.builder.
		Update(tableReservations).
		Prepared(true).
		Set(goqu.Record{
			colGuestName:    res.GuestName,
			colGuestContact: res.GuestContact,
			colStartDate:    res.Start.String(),
			colEndDate:      res.End.String(),
			colUpdatedAt:    goqu.L("now()"),
		}).
		Where(goqu.C(colID).Eq(res.ID)))
}

func (r *repo) DeleteReservation(ctx context.Context, id int64) error {
	return r.exec(ctx, r.builder.
		Delete(tableReservations).
		Prepared(true).
		Where(goqu.C(colID).Eq(id)))
}

func (r *repo) InsertDayClaims(ctx context.Context, claims []booking.DayClaim) error {
	if len(claims) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(claims))
	for _, c := range claims {
		rows = append(rows, goqu.Vals{c.ReservationID, c.Day.String()})
	}

	// A single multi-row statement, so a unique_violation on any day writes none of them.
	return r.exec(ctx, r.builder.
		Insert(tableDayClaims).
		Prepared(true).
		Cols(colReservationID, colDay).
		Vals(rows...))
}

func (r *repo) FindDayClaimsInRange(ctx context.Context, start, end calendar.Date) ([]booking.DayClaim, error) {
	return r.queryClaims(ctx, goqu.C(colDay).Between(goqu.Range(start.String(), end.String())))
}

func (r *repo) FindDayClaimsByReservation(ctx context.Context, reservationID int64) ([]booking.DayClaim, error) {
	return r.queryClaims(ctx, goqu.C(colReservationID).Eq(reservationID))
}

func (r *repo) DeleteDayClaimsByReservation(ctx context.Context, reservationID int64) error {
	return r.exec(ctx, r.builder.
		Delete(tableDayClaims).
		Prepared(true).
		Where(goqu.C(colReservationID).Eq(reservationID)))
}

func (r *repo) queryClaims(ctx context.Context, where exp.Expression) ([]booking.DayClaim, error) {
	query, args, err := r.build(r.builder.
		From(tableDayClaims).
		Prepared(true).
		Select(colReservationID, colDay).
		Where(where).
		Order(goqu.C(colDay).Asc()))
	if err != nil {
		return nil, err
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var claims []booking.DayClaim
	for rows.Next() {
		var (
			c   booking.DayClaim
			day time.Time
		)
		if err := rows.Scan(&c.ReservationID, &day); err != nil {
			return nil, mapError(err)
		}
		c.Day = calendar.FromTime(day)
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return claims, nil
}

// mapError translates driver errors into the booking error taxonomy.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err):
		switch db.ConstraintName(err) {
		case constraintDayClaimsDay:
			return errors.Join(fmt.Errorf("%w: day already claimed", booking.ErrConflict), err)
		case constraintExternalID:
			return errors.Join(fmt.Errorf("%w: reservation id already exists", booking.ErrConflict), err)
		default:
			return errors.Join(booking.ErrConflict, err)
		}
	case db.IsNotFound(err):
		return booking.ErrNotFound
	default:
		return db.WrapNotFound(err)
	}
}
