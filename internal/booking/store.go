package booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/example/campsite/internal/calendar"
)

// TxMode selects how a store transaction is opened.
type TxMode int

const (
	// ReadWrite transactions lock the reservations they look up.
	ReadWrite TxMode = iota
	// ReadOnly transactions see only committed data and may not write.
	ReadOnly
)

// Repository is the Calendar Store as seen from inside one transaction.
//
// Implementations report a duplicate day (or external id) as ErrConflict, a missing reservation as
// ErrNotFound, and anything else as a plain error which the engine treats as transient.
type Repository interface {
	InsertReservation(ctx context.Context, r *Reservation) error
	FindReservationByExternalID(ctx context.Context, id uuid.UUID) (Reservation, error)
	UpdateReservation(ctx context.Context, r Reservation) error
	DeleteReservation(ctx context.Context, id int64) error

	// InsertDayClaims is all-or-nothing: if any day is taken, no claim is written.
	InsertDayClaims(ctx context.Context, claims []DayClaim) error
	// FindDayClaimsInRange returns the claims in [start, end] ordered by day.
	FindDayClaimsInRange(ctx context.Context, start, end calendar.Date) ([]DayClaim, error)
	// FindDayClaimsByReservation returns a reservation's claims ordered by day.
	FindDayClaimsByReservation(ctx context.Context, reservationID int64) ([]DayClaim, error)
	DeleteDayClaimsByReservation(ctx context.Context, reservationID int64) error
}

// Store runs fn inside one transaction with at least read-committed isolation.
// The transaction commits when fn returns nil and rolls back otherwise.
type Store interface {
	InTx(ctx context.Context, mode TxMode, fn func(Repository) error) error
}
