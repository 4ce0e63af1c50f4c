// Package core holds the ledger domain: records, validation, the date-range
// predicate, and the filter/sort/aggregation pipeline.
//
// This file contains calendar-date and clock-time helpers. Dates travel
// through the system as zero-padded ISO strings (YYYY-MM-DD) so range checks
// and ordering reduce to lexicographic comparison.
package core

import (
	"fmt"
	"time"
)

const isoDate = "2006-01-02"

// DateRange is an inclusive whole-day interval. Either endpoint may be empty;
// a range with any empty endpoint is unrestricted and matches every date.
type DateRange struct {
	Start string `json:"start_date,omitempty"`
	End   string `json:"end_date,omitempty"`
}

// IsSet reports whether both endpoints are configured.
func (r DateRange) IsSet() bool {
	return r.Start != "" && r.End != ""
}

// Contains applies the inclusive-day predicate: the start day is floored and
// the end day ceiled, so any date equal to an endpoint passes. Unset ranges
// pass everything; an unparseable date never passes a set range.
func (r DateRange) Contains(date string) bool {
	if !r.IsSet() {
		return true
	}
	if !IsValidDate(date) {
		return false
	}
	return date >= r.Start && date <= r.End
}

// Label renders the range for the period-mismatch alert in localized
// month/day form, e.g. "1월 1일~1월 31일".
func (r DateRange) Label() string {
	if !r.IsSet() {
		return "설정된 기간 없음"
	}
	return koreanMonthDay(r.Start) + "~" + koreanMonthDay(r.End)
}

func koreanMonthDay(date string) string {
	t, err := time.Parse(isoDate, date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%d월 %d일", int(t.Month()), t.Day())
}

// ParseDate parses a zero-padded ISO date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(isoDate, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, ErrInvalidDate)
	}
	return t, nil
}

// IsValidDate reports whether s is a real calendar date in ISO form.
func IsValidDate(s string) bool {
	_, err := time.Parse(isoDate, s)
	return err == nil
}

// IsValidClock reports whether s is a valid HH:MM clock time.
func IsValidClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

// Today returns the current date as an ISO string.
func Today() string {
	return time.Now().Format(isoDate)
}

// FormatDateDots converts an ISO date to the yyyy.MM.dd display form used in
// lists and PDF rows. Unparseable input is returned unchanged.
func FormatDateDots(date string) string {
	t, err := time.Parse(isoDate, date)
	if err != nil {
		return date
	}
	return t.Format("2006.01.02")
}

// NormalizeClock trims HH:MM:SS times down to HH:MM.
func NormalizeClock(s string) string {
	if len(s) >= 5 && s[2] == ':' {
		return s[:5]
	}
	return s
}
