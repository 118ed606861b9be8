package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
}

// CalendarDate is a day with no time-of-day component, always held as UTC
// midnight so that equality means "same calendar day".
type CalendarDate struct {
	time.Time
}

// NewCalendarDate builds a date from its parts.
func NewCalendarDate(year int, month time.Month, day int) CalendarDate {
	return CalendarDate{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day. The wall-clock date in t's own
// location is kept, so a vendor timestamp never shifts across midnight.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return NewCalendarDate(y, m, d)
}

// ParseCalendarDate parses the date formats vendors emit, keeping only the day.
func ParseCalendarDate(s string) (CalendarDate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CalendarDate{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return CalendarDate{}, fmt.Errorf("unrecognised date %q", s)
}

// Before reports whether d is an earlier day than o.
func (d CalendarDate) Before(o CalendarDate) bool { return d.Time.Before(o.Time) }

// After reports whether d is a later day than o.
func (d CalendarDate) After(o CalendarDate) bool { return d.Time.After(o.Time) }

// Equal reports whether d and o are the same day.
func (d CalendarDate) Equal(o CalendarDate) bool { return d.Time.Equal(o.Time) }

// Key is the map key form of the date.
func (d CalendarDate) Key() string { return d.Format(DateLayout) }

func (d CalendarDate) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d CalendarDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

// UnmarshalJSON accepts any layout ParseCalendarDate does.
func (d *CalendarDate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = CalendarDate{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCalendarDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
