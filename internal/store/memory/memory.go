// Package memory is an in-process Calendar Store.
//
// Transactions are serialized by a single mutex and work on a private copy of the state that replaces the
// shared state only on commit, so a failed transaction leaves nothing behind. It backs tests and the
// STORE_DRIVER=memory mode of the server; data does not survive a restart.
package memory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/example/campsite/internal/booking"
	"github.com/example/campsite/internal/calendar"
)

var errReadOnly = errors.New("write attempted in read-only transaction")

type state struct {
	nextID       int64
	reservations map[int64]booking.Reservation
	byExternalID map[uuid.UUID]int64
	claims       map[calendar.Date]int64
}

func (s state) clone() state {
	return state{
		nextID:       s.nextID,
		reservations: maps.Clone(s.reservations),
		byExternalID: maps.Clone(s.byExternalID),
		claims:       maps.Clone(s.claims),
	}
}

type Store struct {
	mu    sync.Mutex
	state state
}

func New() *Store {
	return &Store{state: state{
		nextID:       1,
		reservations: map[int64]booking.Reservation{},
		byExternalID: map[uuid.UUID]int64{},
		claims:       map[calendar.Date]int64{},
	}}
}

func (s *Store) InTx(ctx context.Context, mode booking.TxMode, fn func(booking.Repository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &repo{readOnly: mode == booking.ReadOnly}
	if tx.readOnly {
		tx.st = s.state
	} else {
		tx.st = s.state.clone()
	}

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !tx.readOnly {
		s.state = tx.st
	}
	return nil
}

// Len reports the number of reservations and claimed days. Tests use it to assert no partial writes.
func (s *Store) Len() (reservations, claims int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.reservations), len(s.state.claims)
}

type repo struct {
	st       state
	readOnly bool
}

func (r *repo) InsertReservation(_ context.Context, res *booking.Reservation) error {
	if r.readOnly {
		return errReadOnly
	}
	if _, ok := r.st.byExternalID[res.ExternalID]; ok {
		return fmt.Errorf("%w: reservation id already exists", booking.ErrConflict)
	}
	res.ID = r.st.nextID
	r.st.nextID++
	r.st.reservations[res.ID] = *res
	r.st.byExternalID[res.ExternalID] = res.ID
	return nil
}

func (r *repo) FindReservationByExternalID(_ context.Context, id uuid.UUID) (booking.Reservation, error) {
	internal, ok := r.st.byExternalID[id]
	if !ok {
		return booking.Reservation{}, booking.ErrNotFound
	}
	return r.st.reservations[internal], nil
}

func (r *repo) UpdateReservation(_ context.Context, res booking.Reservation) error {
	if r.readOnly {
		return errReadOnly
	}
	if _, ok := r.st.reservations[res.ID]; !ok {
		return booking.ErrNotFound
	}
	r.st.reservations[res.ID] = res
	return nil
}

func (r *repo) DeleteReservation(_ context.Context, id int64) error {
	if r.readOnly {
		return errReadOnly
	}
	res, ok := r.st.reservations[id]
	if !ok {
		return booking.ErrNotFound
	}
	delete(r.st.reservations, id)
	delete(r.st.byExternalID, res.ExternalID)
	maps.DeleteFunc(r.st.claims, func(_ calendar.Date, owner int64) bool { return owner == id })
	return nil
}

func (r *repo) InsertDayClaims(_ context.Context, claims []booking.DayClaim) error {
	if r.readOnly {
		return errReadOnly
	}
	seen := make(map[calendar.Date]struct{}, len(claims))
	for _, c := range claims {
		if _, ok := r.st.claims[c.Day]; ok {
			return fmt.Errorf("%w: day %s already claimed", booking.ErrConflict, c.Day)
		}
		if _, ok := seen[c.Day]; ok {
			return fmt.Errorf("%w: day %s claimed twice", booking.ErrConflict, c.Day)
		}
		seen[c.Day] = struct{}{}
	}
	for _, c := range claims {
		r.st.claims[c.Day] = c.ReservationID
	}
	return nil
}

func (r *repo) FindDayClaimsInRange(_ context.Context, start, end calendar.Date) ([]booking.DayClaim, error) {
	var out []booking.DayClaim
	for day, owner := range r.st.claims {
		if !day.Before(start) && !day.After(end) {
			out = append(out, booking.DayClaim{ReservationID: owner, Day: day})
		}
	}
	sortByDay(out)
	return out, nil
}

func (r *repo) FindDayClaimsByReservation(_ context.Context, reservationID int64) ([]booking.DayClaim, error) {
	var out []booking.DayClaim
	for day, owner := range r.st.claims {
		if owner == reservationID {
			out = append(out, booking.DayClaim{ReservationID: owner, Day: day})
		}
	}
	sortByDay(out)
	return out, nil
}

func (r *repo) DeleteDayClaimsByReservation(_ context.Context, reservationID int64) error {
	if r.readOnly {
		return errReadOnly
	}
	maps.DeleteFunc(r.st.claims, func(_ calendar.Date, owner int64) bool { return owner == reservationID })
	return nil
}

func sortByDay(claims []booking.DayClaim) {
	slices.SortFunc(claims, func(a, b booking.DayClaim) int {
		return a.Day.Time().Compare(b.Day.Time())
	})
}
