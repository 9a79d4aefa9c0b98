package booking

import "github.com/example/campsite/internal/calendar"

const (
	LeadDays      = 1
	HorizonMonths = 1
	MaxSpanDays   = 3
)

// ValidateRange applies the booking rules to [start, end] relative to today.
// Rules are evaluated in order and the first failure is returned.
func ValidateRange(start, end, today calendar.Date) error {
	if start.Before(today.AddDays(LeadDays)) {
		return &RuleViolation{Rule: RuleLeadTime, Start: start, End: end}
	}
	if end.After(today.AddMonths(HorizonMonths)) {
		return &RuleViolation{Rule: RuleHorizon, Start: start, End: end}
	}
	if start.After(end) || start.AddDays(MaxSpanDays-1).Before(end) {
		return &RuleViolation{Rule: RuleMaxSpan, Start: start, End: end}
	}
	return nil
}
