// Package booking is the reservation consistency engine for the campsite.
//
// A reservation holds one DayClaim per calendar day it covers. The Calendar Store enforces that a day has
// at most one claim, so overlapping requests are arbitrated by the store's uniqueness constraint at commit
// time and surface here as ErrConflict. The engine never checks availability before writing and keeps no
// state between calls.
package booking

import (
	"github.com/google/uuid"

	"github.com/example/campsite/internal/calendar"
)

// Reservation is a guest's hold over the inclusive range [Start, End].
type Reservation struct {
	// ID is assigned by the store and never leaves the engine.
	ID         int64
	ExternalID uuid.UUID

	GuestName    string
	GuestContact string

	// Start and End mirror the min/max of the reservation's day claims.
	Start calendar.Date
	End   calendar.Date
}

// DayClaim is one reservation's hold on one calendar day.
type DayClaim struct {
	ReservationID int64
	Day           calendar.Date
}

// ExpandClaims turns [start, end] into one claim per inclusive day.
func ExpandClaims(reservationID int64, start, end calendar.Date) []DayClaim {
	days := calendar.Range(start, end)
	claims := make([]DayClaim, 0, len(days))
	for _, d := range days {
		claims = append(claims, DayClaim{ReservationID: reservationID, Day: d})
	}
	return claims
}

// Changes carries the optional fields of an update. Nil means "leave as is".
type Changes struct {
	GuestName    *string
	GuestContact *string
	Start        *calendar.Date
	End          *calendar.Date
}

func (c Changes) touchesDates() bool {
	return c.Start != nil || c.End != nil
}
