// Package schedule computes the exact UTC instant each (item, lead-day)
// pair should fire and decides whether "now" falls inside its dispatch
// window.
//
// All date arithmetic is done on pure calendar dates: the billing date is
// treated as a YMD triple and whole days are subtracted before any
// wall-clock or zone conversion happens. Subtracting elapsed time instead
// would drift across DST transitions and month boundaries.
package schedule

import (
	"time"
	// Embed the IANA database so zone conversion works on hosts without
	// a system zoneinfo directory (scratch containers, CI).
	_ "time/tzdata"
)

// YMD is a pure calendar date with no zone or time attached.
type YMD struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf extracts the UTC calendar date of an instant.
func DateOf(t time.Time) YMD {
	y, m, d := t.UTC().Date()
	return YMD{Year: y, Month: m, Day: d}
}

// ParseYMD parses a "YYYY-MM-DD" calendar date.
func ParseYMD(s string) (YMD, bool) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return YMD{}, false
	}
	return DateOf(t), true
}

// AddDays returns the date n whole days later (negative n goes back).
// time.Date normalizes out-of-range days, so month and year boundaries
// are handled by the calendar, not by 24h arithmetic.
func (d YMD) AddDays(n int) YMD {
	t := time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC)
	return DateOf(t)
}

// String renders the date back to its persisted "YYYY-MM-DD" form. This
// is the billing-date component of delivery-ledger keys.
func (d YMD) String() string {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}

// ParseTimeOfDay splits a strict "HH:MM" string. Anything unparseable
// falls back to 09:00, matching the settings default.
func ParseTimeOfDay(s string) (hour, minute int) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 9, 0
	}
	return t.Hour(), t.Minute()
}

// Instant computes the scheduled UTC instant for a billing date and lead:
// the target calendar date is billing minus lead whole days, and the
// wall-clock timeOfDay on that date is interpreted in the given IANA
// zone using the zone's actual offset on that date (DST-aware).
//
// If the zone cannot be loaded the calculation falls back to the legacy
// fixed-offset path kept for snapshots that predate zone-aware
// scheduling. The fallback is silent: a bad zone is a data problem, not
// a dispatch error.
func Instant(billing YMD, lead int, timeOfDay, zone string, tzOffsetMinutes int) time.Time {
	target := billing.AddDays(-lead)
	hour, minute := ParseTimeOfDay(timeOfDay)

	loc, err := time.LoadLocation(zone)
	if err != nil {
		return legacyInstant(billing, lead, hour, minute, tzOffsetMinutes)
	}

	return time.Date(target.Year, target.Month, target.Day, hour, minute, 0, 0, loc).UTC()
}

// legacyInstant is the pre-zone-aware calculation: interpret the billing
// wall-clock time as UTC, subtract the lead in whole calendar days, then
// subtract the stored fixed offset (minutes east of UTC, so Denver is
// -420). It knows nothing about DST and exists only for backward
// compatibility.
func legacyInstant(billing YMD, lead, hour, minute, tzOffsetMinutes int) time.Time {
	base := time.Date(billing.Year, billing.Month, billing.Day, hour, minute, 0, 0, time.UTC)
	return base.AddDate(0, 0, -lead).Add(-time.Duration(tzOffsetMinutes) * time.Minute)
}

// BillingDate resolves an item's calendar billing date: the explicit
// "YYYY-MM-DD" field wins, otherwise the UTC calendar date of the
// billing instant. ok=false means the item has no resolvable date and is
// skipped without error.
func BillingDate(nextBillingDate string, nextBillingAt *time.Time) (YMD, bool) {
	if nextBillingDate != "" {
		if d, ok := ParseYMD(nextBillingDate); ok {
			return d, true
		}
	}
	if nextBillingAt != nil {
		return DateOf(*nextBillingAt), true
	}
	return YMD{}, false
}
