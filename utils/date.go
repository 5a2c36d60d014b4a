package utils

import (
	"fmt"
	"time"
)

// IndiaTZ is used when the configured zone cannot be loaded
var IndiaTZ = time.FixedZone("IST", 5*60*60+30*60)

const (
	DayLayout      = "02/01/2006"
	DateTimeLayout = "02/01/2006 15:04:05"
	DateLayout     = "2006-01-02"
)

func LoadLocation(name string) *time.Location {
	if name == "" {
		return IndiaTZ
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return IndiaTZ
	}
	return loc
}

// EndOfDay is the last representable millisecond of t's calendar day
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate reads a yyyy-mm-dd form value in loc
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}
