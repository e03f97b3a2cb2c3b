package core

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Instant is a point in time in milliseconds since the Unix epoch.
type Instant int64

// Day is one day expressed in Instant units.
const Day = Instant(24 * time.Hour / time.Millisecond)

var calendarDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Layouts seen in the declaration dataset, tried before the general parser.
// Zone-less layouts are read as UTC.
var knownLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
}

// InstantOf converts t to an Instant.
func InstantOf(t time.Time) Instant {
	return Instant(t.UnixMilli())
}

// Time returns the instant as a UTC time.
func (i Instant) Time() time.Time {
	return time.UnixMilli(int64(i)).UTC()
}

// ParseInstant normalizes a date string. A calendar date (YYYY-MM-DD) is UTC
// midnight of that day regardless of the local zone. Blank or unparseable
// input yields false; it never panics.
func ParseInstant(s string) (Instant, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if calendarDate.MatchString(s) {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return 0, false
		}
		return InstantOf(t), true
	}
	for _, layout := range knownLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return InstantOf(t), true
		}
	}
	return parseGeneral(s)
}

// ParseInstantPtr is ParseInstant for an optional field.
func ParseInstantPtr(s *string) (Instant, bool) {
	if s == nil {
		return 0, false
	}
	return ParseInstant(*s)
}

func parseGeneral(s string) (inst Instant, ok bool) {
	// dateparse can panic on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			inst, ok = 0, false
		}
	}()
	t, err := dateparse.ParseIn(s, time.UTC, dateparse.PreferMonthFirst(false))
	if err != nil {
		return 0, false
	}
	return InstantOf(t), true
}
