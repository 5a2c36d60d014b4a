package v1

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var dateMarker = regexp.MustCompile(`^Date\((\d+),(\d+),(\d+)(?:,(\d+),(\d+),(\d+)(?:,(\d+))?)?\)$`)

// layouts the sheet uses when a cell is returned as text
var cellLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func IsDateMarker(s string) bool {
	return dateMarker.MatchString(strings.TrimSpace(s))
}

// ParseDateMarker reads Date(Y,M,D[,h,m,s[,ms]]). The month is 0-based.
func ParseDateMarker(s string, loc *time.Location) (time.Time, error) {
	m := dateMarker.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, fmt.Errorf("not a date marker: %q", s)
	}

	parts := make([]int, 7)
	for i := 1; i < len(m); i++ {
		if m[i] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date marker %q: %w", s, err)
		}
		parts[i-1] = n
	}

	return time.Date(parts[0], time.Month(parts[1]+1), parts[2], parts[3], parts[4], parts[5], parts[6]*int(time.Millisecond), loc), nil
}

// ParseCellTime accepts either a Date(...) marker or one of the text layouts
func ParseCellTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time string")
	}
	if IsDateMarker(s) {
		return ParseDateMarker(s, loc)
	}
	for _, layout := range cellLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, fmt.Errorf("failed to parse time: %v", s)
}

// Time reads a date/time cell
func (r Row) Time(i int, loc *time.Location) (time.Time, bool) {
	t, err := ParseCellTime(r.String(i), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
