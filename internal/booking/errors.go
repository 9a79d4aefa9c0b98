package booking

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/example/campsite/internal/calendar"
)

// The four failure kinds every operation reports. Callers branch with errors.Is.
var (
	ErrInvalidRange = errors.New("invalid range")
	ErrConflict     = errors.New("requested dates are not available")
	ErrNotFound     = errors.New("reservation not found")
	ErrTransient    = errors.New("calendar store unavailable")
)

var ErrNilStore = errors.New("nil calendar store supplied")
var ErrNilLocation = errors.New("nil time location supplied")

// Kind identifies which of the four failure classes an error belongs to.
type Kind int

const (
	KindNone Kind = iota
	KindInvalidRange
	KindConflict
	KindNotFound
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInvalidRange:
		return "invalid_range"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// KindOf classifies err. Errors that carry none of the sentinels are transient.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidRange):
		return KindInvalidRange
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindTransient
	}
}

// classify makes sure an error leaving the engine carries exactly one of the four sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidRange) || errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrTransient) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// Rule names a business rule a date range can violate.
type Rule string

const (
	RuleLeadTime Rule = "lead time"
	RuleHorizon  Rule = "horizon"
	RuleMaxSpan  Rule = "max span"
	RuleOrder    Rule = "start after end"
)

// RuleViolation reports the first business rule a requested range failed.
type RuleViolation struct {
	Rule  Rule
	Start calendar.Date
	End   calendar.Date
}

func (v *RuleViolation) Error() string {
	switch v.Rule {
	case RuleLeadTime:
		return fmt.Sprintf("%s: the campsite can be reserved minimum %d day(s) ahead of arrival, but the requested start is %s",
			v.Rule, LeadDays, v.Start)
	case RuleHorizon:
		return fmt.Sprintf("%s: the campsite can be reserved up to %d month(s) in advance, but the requested end is %s",
			v.Rule, HorizonMonths, v.End)
	case RuleMaxSpan:
		return fmt.Sprintf("%s: the campsite can be reserved for max %d days, but the requested range is %s to %s",
			v.Rule, MaxSpanDays, v.Start, v.End)
	default:
		return fmt.Sprintf("%s: start date %s must not be after end date %s", v.Rule, v.Start, v.End)
	}
}

func (v *RuleViolation) Unwrap() error { return ErrInvalidRange }

// ParseExternalID parses the canonical textual form of a reservation handle.
// A malformed value is a client error, never ErrNotFound.
func ParseExternalID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed reservation id %q", ErrInvalidRange, s)
	}
	return id, nil
}
