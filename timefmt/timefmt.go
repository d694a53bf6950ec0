// Package timefmt holds the date and time notations used on the plant
// floor: DD/MM/YYYY days, HH:MM clock times and shift labels such as
// "START: 27/11/2025 - 15:57".
package timefmt

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	DayLayout   = "02/01/2006"
	ClockLayout = "15:04"
	ISODate     = "2006-01-02"
)

func Day(t time.Time) string   { return t.Format(DayLayout) }
func Clock(t time.Time) string { return t.Format(ClockLayout) }

// Stamp is the "DD/MM/YYYY - HH:MM" notation used for logout times.
func Stamp(t time.Time) string { return Day(t) + " - " + Clock(t) }

func StartLabel(day, clock string) string { return fmt.Sprintf("START: %s - %s", day, clock) }
func EndLabel(day, clock string) string   { return fmt.Sprintf("END: %s - %s", day, clock) }

var labelRe = regexp.MustCompile(`:\s*(\d{2}/\d{2}/\d{4})\s*-\s*(\d{2}:\d{2})`)

// ParseLabel extracts the instant of a shift label, or of a bare
// "DD/MM/YYYY - HH:MM" stamp, in loc.
func ParseLabel(label string, loc *time.Location) (time.Time, bool) {
	m := labelRe.FindStringSubmatch(label)
	if m == nil {
		m = labelRe.FindStringSubmatch(": " + label)
	}
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DayLayout+" "+ClockLayout, m[1]+" "+m[2], loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseDate accepts ISO (YYYY-MM-DD, optionally followed by a time part)
// and DD/MM/YYYY dates.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) >= 10 {
		if t, err := time.ParseInLocation(ISODate, s[:10], loc); err == nil {
			return t, true
		}
		if t, err := time.ParseInLocation(DayLayout, s[:10], loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ExpiryCode is next year followed by the ISO week of t: "2026/48".
func ExpiryCode(t time.Time) string {
	_, week := t.ISOWeek()
	return fmt.Sprintf("%d/%02d", t.Year()+1, week)
}
