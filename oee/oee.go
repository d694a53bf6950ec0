// Package oee derives downtime, quality checks and the Overall Equipment
// Effectiveness of a shift from the time-ordered logbook.
package oee

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Event is the part of a logbook message the computation looks at.
type Event struct {
	Time       string // HH:MM
	Calc       string
	Label      string
	Domain     string
	Text       string
	QC         string
	InfoLabels []string
}

type Interval struct {
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Minutes int       `json:"minutes"`
}

type Downtime struct {
	Minutes   int        `json:"downtimeMin"`
	QCChecks  int        `json:"qcChecks"`
	QCPercent int        `json:"qcPercent"`
	Intervals []Interval `json:"intervals"`
}

// ProjectToShiftDay places an HH:MM clock time on the calendar day of the
// shift start. A time earlier than the start belongs to the next day, so
// night shifts crossing midnight keep their order.
func ProjectToShiftDay(start time.Time, hhmm string) (time.Time, bool) {
	if start.IsZero() {
		return time.Time{}, false
	}
	h, m, ok := ParseHHMM(hhmm)
	if !ok {
		return time.Time{}, false
	}
	t := time.Date(start.Year(), start.Month(), start.Day(), h, m, 0, 0, start.Location())
	if t.Before(start) {
		t = t.AddDate(0, 0, 1)
	}
	return t, true
}

// ParseHHMM accepts "H:MM" and "HH:MM".
func ParseHHMM(s string) (hour, minute int, ok bool) {
	hs, ms, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found || len(hs) < 1 || len(hs) > 2 || len(ms) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(ms)
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

type projected struct {
	ev Event
	at time.Time
}

// ComputeDowntime walks the events inside [start, end]. A STOP opens a
// downtime interval, the next START closes it and an interval still open
// at the end of the window is closed at end.
func ComputeDowntime(events []Event, start, end time.Time) Downtime {
	res := Downtime{Intervals: []Interval{}}
	if start.IsZero() || end.IsZero() {
		return res
	}

	within := make([]projected, 0, len(events))
	for _, ev := range events {
		at, ok := ProjectToShiftDay(start, ev.Time)
		if !ok || at.Before(start) || at.After(end) {
			continue
		}
		within = append(within, projected{ev: ev, at: at})
	}
	sort.SliceStable(within, func(i, j int) bool { return within[i].at.Before(within[j].at) })

	var (
		down      bool
		downStart time.Time
		total     time.Duration
	)
	closeInterval := func(to time.Time) {
		d := to.Sub(downStart)
		total += d
		res.Intervals = append(res.Intervals, Interval{From: downStart, To: to, Minutes: roundMinutes(d)})
		down = false
	}
	for _, p := range within {
		switch strings.ToUpper(p.ev.Calc) {
		case "STOP":
			if !down {
				down = true
				downStart = p.at
			}
		case "START":
			if down {
				closeInterval(p.at)
			}
		}
	}
	if down {
		closeInterval(end)
	}
	res.Minutes = roundMinutes(total)

	for _, p := range within {
		if IsQualityCheck(p.ev) {
			res.QCChecks++
		}
	}
	switch {
	case res.QCChecks >= 2:
		res.QCPercent = 100
	case res.QCChecks == 1:
		res.QCPercent = 50
	}
	return res
}

var qcMarkers = []string{"QC", "QUALITY", "QUALITY CHECK"}

func isMarker(s string) bool {
	s = strings.ToUpper(s)
	for _, m := range qcMarkers {
		if s == m {
			return true
		}
	}
	return false
}

// IsQualityCheck reports whether the event records a quality check.
func IsQualityCheck(ev Event) bool {
	if isMarker(ev.QC) || isMarker(ev.Calc) {
		return true
	}
	domain := strings.ToUpper(ev.Domain)
	if domain == "QUALITY" || domain == "QUALITY CHECK" {
		return true
	}
	label := strings.ToUpper(ev.Label)
	if label == "QC" || strings.Contains(label, "QUALITY") {
		return true
	}
	text := strings.ToUpper(ev.Text)
	if strings.Contains(text, "QUALITY CHECK") || strings.Contains(text, "[QC]") {
		return true
	}
	for _, l := range ev.InfoLabels {
		if isMarker(l) {
			return true
		}
	}
	return false
}

// MinutesBetween is the rounded number of minutes from a to b, never
// negative. Zero times yield 0.
func MinutesBetween(a, b time.Time) int {
	if a.IsZero() || b.IsZero() {
		return 0
	}
	return roundMinutes(b.Sub(a))
}

func roundMinutes(d time.Duration) int {
	m := int(math.Round(float64(d) / float64(time.Minute)))
	if m < 0 {
		return 0
	}
	return m
}

type Input struct {
	Start         time.Time
	End           time.Time
	Produced      float64
	TargetPerHour float64
	QCTarget      int
	Downtime      Downtime
}

type Metrics struct {
	ProducedTotal      float64    `json:"producedTotal"`
	ShiftTimeMin       int        `json:"shiftTimeMin"`
	DowntimeMin        int        `json:"downtimeMin"`
	UptimePercent      float64    `json:"uptimePercent"`
	ProducedPerHour    float64    `json:"producedPerHour"`
	TargetPerHour      float64    `json:"targetPerHour"`
	PerformancePercent float64    `json:"performancePercent"`
	QCChecks           int        `json:"qcChecks"`
	QCTarget           int        `json:"qcTarget"`
	QualityPercent     float64    `json:"qualityPercent"`
	OEEPercent         float64    `json:"oeePercent"`
	Intervals          []Interval `json:"intervals"`
}

// Compute combines availability, performance and quality. Quality is
// reported as 100% regardless of the number of checks found.
func Compute(in Input) Metrics {
	m := Metrics{
		ProducedTotal:  in.Produced,
		ShiftTimeMin:   MinutesBetween(in.Start, in.End),
		DowntimeMin:    in.Downtime.Minutes,
		TargetPerHour:  in.TargetPerHour,
		QCChecks:       in.Downtime.QCChecks,
		QCTarget:       in.QCTarget,
		QualityPercent: 100,
		Intervals:      in.Downtime.Intervals,
	}
	if m.Intervals == nil {
		m.Intervals = []Interval{}
	}
	if m.ShiftTimeMin > 0 {
		shift := float64(m.ShiftTimeMin)
		m.UptimePercent = 100 * (1 - float64(m.DowntimeMin)/shift)
		m.ProducedPerHour = in.Produced * 60 / shift
	}
	if in.TargetPerHour > 0 {
		m.PerformancePercent = 100 * m.ProducedPerHour / in.TargetPerHour
	}
	m.OEEPercent = m.UptimePercent * m.PerformancePercent * m.QualityPercent / 1e4
	return m
}

// Record is a kg movement out of a silo, either a big bag discharge or a
// bulk delivery.
type Record struct {
	Silo      string
	Kg        float64
	CreatedAt time.Time
}

// SiloKg sums the kg of the records of silo created inside [start, end].
func SiloKg(records []Record, silo string, start, end time.Time) float64 {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	var sum float64
	for _, r := range records {
		if !strings.EqualFold(r.Silo, silo) {
			continue
		}
		if r.CreatedAt.Before(start) || r.CreatedAt.After(end) {
			continue
		}
		sum += r.Kg
	}
	return sum
}

// Unconfirmed keeps availability and quality but drops everything derived
// from the produced kg, for display before the silo weights are entered.
func (m Metrics) Unconfirmed() Metrics {
	m.ProducedTotal = 0
	m.ProducedPerHour = 0
	m.PerformancePercent = 0
	m.OEEPercent = 0
	return m
}
