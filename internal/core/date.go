package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ISODateLayout is the calendar date format used for draft target dates
// and the session isoDate field.
const ISODateLayout = "2006-01-02"

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// MonthName returns the Indonesian name of m.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// ParseISODate parses a YYYY-MM-DD date at midnight in loc (UTC when loc is nil).
func ParseISODate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(ISODateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatISODate formats t as YYYY-MM-DD.
func FormatISODate(t time.Time) string {
	return t.Format(ISODateLayout)
}

// FormatDateLabel renders the long Indonesian date label, e.g. "1 Mei 2024".
func FormatDateLabel(t time.Time) string {
	return strconv.Itoa(t.Day()) + " " + MonthName(t.Month()) + " " + strconv.Itoa(t.Year())
}

// SessionTimestamp returns the epoch ms used for every history record of the
// session: its ISO date at midnight in loc, or CreatedAt when the ISO date is
// missing or malformed.
func SessionTimestamp(s Session, loc *time.Location) int64 {
	if s.ISODate != "" {
		if t, err := ParseISODate(s.ISODate, loc); err == nil {
			return t.UnixMilli()
		}
	}
	return s.CreatedAt
}

// MonthBounds returns [start, end) of the calendar month in loc.
func MonthBounds(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}
