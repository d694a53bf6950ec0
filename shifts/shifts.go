// Package shifts starts and stops production shifts and computes their
// produced kg, downtime and OEE from the logbook and the silo movements.
package shifts

import (
	"fmt"
	"time"

	"fewr/config"
	"fewr/database"
	"fewr/model"
	"fewr/oee"
	"fewr/timefmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Silo names as written on big bag discharges and bulk deliveries.
const (
	BBSilo710   = "SILO 710"
	BBSilo720   = "SILO 720"
	BulkSilo710 = "710"
	BulkSilo720 = "720"
)

// AutoStopText is logged when a shift is started while the line is down.
const AutoStopText = "Auto STOP (shift started DOWN)"

// messageMargin widens the message query around the shift window. Messages
// only carry a clock time, so the ones written a little before the start
// or after the end can still project into the window.
const messageMargin = 24 * time.Hour

// StartRequest opens a shift.
type StartRequest struct {
	Operator string
	Day      string
	Time     string
	Down     bool
}

// Start registers a shift and the live shift state. A shift started DOWN
// also logs a STOP marker so downtime counts from the start.
func Start(db *sqlx.DB, req StartRequest, now time.Time) (int64, error) {
	tx, err := db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := database.InsertShift(tx, model.Shift{
		Operator:   req.Operator,
		StartLabel: timefmt.StartLabel(req.Day, req.Time),
		CreatedAt:  now,
	})
	if err != nil {
		return 0, err
	}

	state := model.ShiftState{UserCode: req.Operator, StartHHMM: req.Time, Status: model.StatusUp}
	if req.Down {
		state.Status = model.StatusDown
		state.LastStopHHMM = req.Time
	}
	if err := database.SetShiftState(tx, state); err != nil {
		return 0, err
	}

	if req.Down {
		stop := model.Message{
			ID:        uuid.NewString(),
			UserCode:  req.Operator,
			Time:      req.Time,
			Day:       req.Day,
			Label:     model.CalcStop,
			Message:   AutoStopText,
			Calc:      model.CalcStop,
			CreatedAt: now,
		}
		if err := database.InsertMessage(tx, stop); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit shift start: %w", err)
	}
	return id, nil
}

// Window returns the start and end instants of a shift. ok is false while
// either label is missing or unreadable.
func Window(s model.Shift, loc *time.Location) (start, end time.Time, ok bool) {
	start, okStart := timefmt.ParseLabel(s.StartLabel, loc)
	end, okEnd := timefmt.ParseLabel(s.EndLabel, loc)
	return start, end, okStart && okEnd
}

// Events converts logbook messages for the downtime computation.
func Events(msgs []model.Message) []oee.Event {
	events := make([]oee.Event, 0, len(msgs))
	for _, m := range msgs {
		events = append(events, oee.Event{
			Time:       m.Time,
			Calc:       m.Calc,
			Label:      m.Label,
			Text:       m.Message,
			QC:         m.QC,
			InfoLabels: m.InfoLabels,
		})
	}
	return events
}

func dischargeRecords(items []model.Discharge) []oee.Record {
	recs := make([]oee.Record, 0, len(items))
	for _, d := range items {
		recs = append(recs, oee.Record{Silo: d.OriginSilo, Kg: d.QuantityKg, CreatedAt: d.CreatedAt})
	}
	return recs
}

func bulkRecords(items []model.BulkDelivery) []oee.Record {
	recs := make([]oee.Record, 0, len(items))
	for _, b := range items {
		recs = append(recs, oee.Record{Silo: b.Silo, Kg: b.Kg, CreatedAt: b.CreatedAt})
	}
	return recs
}

// Production holds the silo weights and the kg moved out of the silos
// during a shift.
type Production struct {
	Start710 float64
	Start720 float64
	Stop710  float64
	Stop720  float64
	D710BB   float64
	D720BB   float64
	D710Bulk float64
	D720Bulk float64
}

// Total is the silo weight difference plus everything moved out.
func (p Production) Total() float64 {
	return (p.Stop710 - p.Start710) + (p.Stop720 - p.Start720) +
		p.D710BB + p.D720BB + p.D710Bulk + p.D720Bulk
}

// Movements are the records inside a shift window.
type Movements struct {
	Discharges []model.Discharge
	Bulk       []model.BulkDelivery
	Messages   []model.Message
}

// LoadMovements reads the discharges, bulk deliveries and messages
// relevant for the window.
func LoadMovements(db *sqlx.DB, start, end time.Time) (Movements, error) {
	var mv Movements
	var err error
	if mv.Discharges, err = database.GetDischargesCreatedBetween(db, start, end); err != nil {
		return mv, err
	}
	if mv.Bulk, err = database.GetBulkDeliveriesCreatedBetween(db, start, end); err != nil {
		return mv, err
	}
	if mv.Messages, err = database.GetMessagesCreatedBetween(db, start.Add(-messageMargin), end.Add(messageMargin)); err != nil {
		return mv, err
	}
	return mv, nil
}

// SiloKg sums the big bag and bulk kg per silo.
func (mv Movements) SiloKg(start, end time.Time) (bb710, bb720, bulk710, bulk720 float64) {
	bb := dischargeRecords(mv.Discharges)
	bulk := bulkRecords(mv.Bulk)
	return oee.SiloKg(bb, BBSilo710, start, end),
		oee.SiloKg(bb, BBSilo720, start, end),
		oee.SiloKg(bulk, BulkSilo710, start, end),
		oee.SiloKg(bulk, BulkSilo720, start, end)
}

// Evaluation is what the stop page shows for a shift.
type Evaluation struct {
	Shift      model.Shift
	Production Production
	Metrics    oee.Metrics
	HasResult  bool
}

// Prefill returns the weights to show for s: stored ones first, else the
// previous shift's stop weights as start weights.
func Prefill(s model.Shift, prev *model.Shift) Production {
	var p Production
	switch {
	case s.Start710 != nil:
		p.Start710 = *s.Start710
	case prev != nil && prev.Stop710 != nil:
		p.Start710 = *prev.Stop710
	}
	switch {
	case s.Start720 != nil:
		p.Start720 = *s.Start720
	case prev != nil && prev.Stop720 != nil:
		p.Start720 = *prev.Stop720
	}
	if s.Stop710 != nil {
		p.Stop710 = *s.Stop710
	}
	if s.Stop720 != nil {
		p.Stop720 = *s.Stop720
	}
	return p
}

// Evaluate computes silo movements, downtime and OEE of a stopped shift
// with the given weights.
func Evaluate(db *sqlx.DB, s model.Shift, p Production, plant config.PlantConfig, loc *time.Location) (Evaluation, error) {
	start, end, ok := Window(s, loc)
	if !ok {
		return Evaluation{}, fmt.Errorf("shift %d has no complete window", s.ID)
	}
	mv, err := LoadMovements(db, start, end)
	if err != nil {
		return Evaluation{}, err
	}
	p.D710BB, p.D720BB, p.D710Bulk, p.D720Bulk = mv.SiloKg(start, end)

	down := oee.ComputeDowntime(Events(mv.Messages), start, end)
	m := oee.Compute(oee.Input{
		Start:         start,
		End:           end,
		Produced:      p.Total(),
		TargetPerHour: plant.TargetPerHour,
		QCTarget:      plant.QCTarget,
		Downtime:      down,
	})
	return Evaluation{Shift: s, Production: p, Metrics: m}, nil
}

// Save stores the weights and results on the shift.
func Save(db *sqlx.DB, ev Evaluation) (model.Shift, error) {
	s := ev.Shift
	p := ev.Production
	produced := p.Total()
	downtime := float64(ev.Metrics.DowntimeMin)
	quality := ev.Metrics.QualityPercent
	oeePct := ev.Metrics.OEEPercent

	s.Start710, s.Start720 = &p.Start710, &p.Start720
	s.Stop710, s.Stop720 = &p.Stop710, &p.Stop720
	s.D710BB, s.D720BB = &p.D710BB, &p.D720BB
	s.D710Bulk, s.D720Bulk = &p.D710Bulk, &p.D720Bulk
	s.Produced = &produced
	s.Downtime = &downtime
	s.QC = &quality
	s.OEE = &oeePct
	if err := database.SaveShiftProduction(db, s); err != nil {
		return s, err
	}
	return s, nil
}
