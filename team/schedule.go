// Package team runs the team pages: topics, the monthly shift schedule
// with absences and replacements, and working hours.
package team

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"fewr/model"
	"fewr/timefmt"
)

// Month is a calendar month picked on a team page.
type Month struct {
	Year  int
	Month time.Month
}

// MonthFrom reads month and year from the query, falling back to the
// month of now for a missing or unreadable value.
func MonthFrom(q url.Values, now time.Time) Month {
	m := Month{Year: now.Year(), Month: now.Month()}
	if v, err := strconv.Atoi(q.Get("month")); err == nil && v >= 1 && v <= 12 {
		m.Month = time.Month(v)
	}
	if v, err := strconv.Atoi(q.Get("year")); err == nil && v > 0 {
		m.Year = v
	}
	return m
}

// MM is the two digit month, "01".."12".
func (m Month) MM() string   { return fmt.Sprintf("%02d", int(m.Month)) }
func (m Month) YYYY() string { return strconv.Itoa(m.Year) }

type planned struct {
	shift, user, start, end string
	days                    []time.Weekday
}

// Fixed weekly pattern the schedule of an empty month starts from.
var rotation = []planned{
	{"05-13", "JFI", "05:00", "13:00", []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}},
	{"13-21", "FCO", "13:00", "21:00", []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}},
	{"21-05", "CVD", "21:00", "05:00", []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday}},
	{"21-09", "TDA", "21:00", "09:00", []time.Weekday{time.Friday}},
	{"21-05", "TDA", "21:00", "05:00", []time.Weekday{time.Saturday}},
	{"09-21", "DDS", "09:00", "21:00", []time.Weekday{time.Saturday, time.Sunday}},
}

func worksOn(p planned, d time.Weekday) bool {
	for _, w := range p.days {
		if w == d {
			return true
		}
	}
	return false
}

// Seed plans every day of the month from the weekly rotation. Every cell
// starts yellow with its planned operator.
func Seed(m Month) []model.ScheduleEntry {
	var out []model.ScheduleEntry
	first := time.Date(m.Year, m.Month, 1, 12, 0, 0, 0, time.UTC)
	for d := first; d.Month() == m.Month; d = d.AddDate(0, 0, 1) {
		for _, p := range rotation {
			if !worksOn(p, d.Weekday()) {
				continue
			}
			out = append(out, model.ScheduleEntry{
				Date:         d.Format(timefmt.ISODate),
				Shift:        p.shift,
				UserCode:     p.user,
				State:        model.ScheduleYellow,
				Start:        p.start,
				End:          p.end,
				OriginalUser: p.user,
			})
		}
	}
	return out
}

// AllOperators selects every operator on the working hours page.
const AllOperators = "-ALL-"

// OperatorFilter upper-cases the requested operator and falls back to
// AllOperators when it is not one of known.
func OperatorFilter(requested string, known []string) string {
	op := strings.ToUpper(strings.TrimSpace(requested))
	for _, k := range known {
		if k == op {
			return op
		}
	}
	return AllOperators
}

// WorkRow is one shift on the working hours page.
type WorkRow struct {
	model.Shift
	Minutes int
	HHMM    string
	start   time.Time
}

// WorkedTime is the time between the start label and the logout stamp,
// never negative. ok is false when either cannot be read.
func WorkedTime(s model.Shift, loc *time.Location) (minutes int, hhmm string, ok bool) {
	start, okStart := timefmt.ParseLabel(s.StartLabel, loc)
	logout, okLogout := timefmt.ParseLabel(s.LogoutAt, loc)
	if !okStart || !okLogout {
		return 0, "", false
	}
	minutes = int(math.Max(0, math.Round(logout.Sub(start).Minutes())))
	return minutes, fmt.Sprintf("%dh%02dmin", minutes/60, minutes%60), true
}

// WorkPerformance keeps the shifts started in the month, of one operator
// unless op is AllOperators, oldest first.
func WorkPerformance(shifts []model.Shift, m Month, op string, loc *time.Location) []WorkRow {
	var rows []WorkRow
	for _, s := range shifts {
		start, ok := timefmt.ParseLabel(s.StartLabel, loc)
		if !ok || start.Year() != m.Year || start.Month() != m.Month {
			continue
		}
		if op != AllOperators && strings.ToUpper(s.Operator) != op {
			continue
		}
		row := WorkRow{Shift: s, start: start}
		row.Minutes, row.HHMM, _ = WorkedTime(s, loc)
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].start.Before(rows[j].start) })
	return rows
}
