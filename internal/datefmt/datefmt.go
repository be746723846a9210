// Package datefmt contains the date validation, normalization and
// rendering rules shared by the exercise log service and its storage
// backends. Stored dates are always UTC midnights of a calendar day.
package datefmt

import (
	"regexp"
	"time"
)

// StoredLayout is the only layout accepted for an exercise date on
// append.
const StoredLayout = "2006-01-02"

// displayLayout renders a date the way clients see it, e.g.
// "Sun Jan 15 2023".
const displayLayout = "Mon Jan 02 2006"

var storedDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// filterLayouts are tried in order when parsing the lenient from/to
// query parameters.
var filterLayouts = []string{
	StoredLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
}

// Today returns the current calendar date as a UTC midnight.
func Today() time.Time {
	year, month, day := time.Now().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Normalize turns a raw date string into the calendar date to store.
// Only the exact YYYY-MM-DD form is recognized; anything else - an
// absent value, a different layout, or a pattern-valid string naming a
// nonexistent day such as 2024-02-30 - falls back to the current date.
func Normalize(raw string) time.Time {
	if !storedDatePattern.MatchString(raw) {
		return Today()
	}

	parsed, err := time.Parse(StoredLayout, raw)
	if err != nil {
		return Today()
	}

	return parsed
}

// ParseFilterDate parses a from/to query parameter. Unlike Normalize it
// accepts several common layouts. The second return value reports
// whether parsing succeeded; on failure the caller imposes no bound.
func ParseFilterDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range filterLayouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			return time.Date(
				parsed.Year(),
				parsed.Month(),
				parsed.Day(),
				0, 0, 0, 0,
				time.UTC,
			), true
		}
	}

	return time.Time{}, false
}

// Display renders a stored date for a client response.
func Display(date time.Time) string {
	return date.Format(displayLayout)
}
