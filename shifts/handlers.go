package shifts

import (
	"net/http"
	"time"

	"fewr/app"
	"fewr/database"
	"fewr/model"
	"fewr/timefmt"

	"go.uber.org/zap"
)

type clockDefaults struct {
	Day  string
	Time string
}

type startData struct {
	Defaults clockDefaults
	Current  *model.Shift
}

func defaults(env *app.Env) clockDefaults {
	now := env.Clock()
	return clockDefaults{Day: timefmt.Day(now), Time: timefmt.Clock(now)}
}

// readClock reads the day and time fields, falling back to now, and checks
// they form a valid stamp.
func readClock(env *app.Env, r *http.Request) (clockDefaults, bool) {
	c := defaults(env)
	if v := app.FormValue(r, "day"); v != "" {
		c.Day = v
	}
	if v := app.FormValue(r, "time"); v != "" {
		c.Time = v
	}
	_, ok := timefmt.ParseLabel(c.Day+" - "+c.Time, env.Loc)
	return c, ok
}

func StartPageHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		open, err := database.GetOpenShift(env.DB, app.UserCode(r))
		if err != nil {
			env.ServerError(w, r, "could not load open shift", err)
			return
		}
		env.Render(w, r, http.StatusOK, "shifts/start", "NEW SHIFT", startData{Defaults: defaults(env), Current: open})
	}
}

// StartHandler opens a shift for the operator unless one is still open.
func StartHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := app.UserCode(r)
		open, err := database.GetOpenShift(env.DB, code)
		if err != nil {
			env.ServerError(w, r, "could not load open shift", err)
			return
		}
		if open != nil {
			app.Redirect(w, r, "/shifts/stop/step1")
			return
		}

		c, ok := readClock(env, r)
		if !ok {
			env.RenderError(w, r, http.StatusBadRequest, "shifts/start", "NEW SHIFT", "Day must be DD/MM/YYYY and time HH:MM", startData{Defaults: c})
			return
		}
		req := StartRequest{
			Operator: code,
			Day:      c.Day,
			Time:     c.Time,
			Down:     app.FormValue(r, "status") == model.StatusDown || app.FormValue(r, "status") == "down",
		}
		id, err := Start(env.DB, req, env.Now())
		if err != nil {
			env.ServerError(w, r, "could not start shift", err)
			return
		}
		env.Log.Info("shift started",
			zap.Int64("id", id),
			zap.String("operator", code),
			zap.String("at", c.Day+" - "+c.Time),
			zap.Bool("down", req.Down))
		app.Redirect(w, r, "/shifts/overview")
	}
}

func Step1PageHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		open, err := database.GetOpenShift(env.DB, app.UserCode(r))
		if err != nil {
			env.ServerError(w, r, "could not load open shift", err)
			return
		}
		if open == nil {
			app.Redirect(w, r, "/shifts/start")
			return
		}
		env.Render(w, r, http.StatusOK, "shifts/stop-step1", "STOP SHIFT", startData{Defaults: defaults(env), Current: open})
	}
}

// Step1Handler sets the end label and ends the live shift state.
func Step1Handler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		open, err := database.GetOpenShift(env.DB, app.UserCode(r))
		if err != nil {
			env.ServerError(w, r, "could not load open shift", err)
			return
		}
		if open == nil {
			app.Redirect(w, r, "/shifts/start")
			return
		}
		c, ok := readClock(env, r)
		if !ok {
			env.RenderError(w, r, http.StatusBadRequest, "shifts/stop-step1", "STOP SHIFT", "Day must be DD/MM/YYYY and time HH:MM", startData{Defaults: c, Current: open})
			return
		}
		if err := database.SetShiftEnd(env.DB, open.ID, timefmt.EndLabel(c.Day, c.Time)); err != nil {
			env.ServerError(w, r, "could not stop shift", err)
			return
		}
		if err := database.ClearShiftState(env.DB); err != nil {
			env.ServerError(w, r, "could not clear shift state", err)
			return
		}
		env.Log.Info("shift stopped", zap.Int64("id", open.ID), zap.String("operator", open.Operator))
		app.Redirect(w, r, "/shifts/stop/step2-produced")
	}
}

// stopShift is the shift the stop pages work on: the operator's open shift,
// else the most recent one they stopped.
func stopShift(env *app.Env, r *http.Request) (*model.Shift, error) {
	code := app.UserCode(r)
	s, err := database.GetOpenShift(env.DB, code)
	if err != nil || s != nil {
		return s, err
	}
	return database.GetLatestEndedShift(env.DB, code)
}

// Step2PageHandler shows the silo weights and the downtime of the shift.
func Step2PageHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := stopShift(env, r)
		if err != nil {
			env.ServerError(w, r, "could not load shift", err)
			return
		}
		if s == nil || s.StartLabel == "" || s.EndLabel == "" {
			app.Redirect(w, r, "/shifts/start")
			return
		}
		prev, err := database.GetPreviousShift(env.DB, s.ID)
		if err != nil {
			env.ServerError(w, r, "could not load previous shift", err)
			return
		}
		ev, err := Evaluate(env.DB, *s, Prefill(*s, prev), env.Cfg.Plant, env.Loc)
		if err != nil {
			env.ServerError(w, r, "could not evaluate shift", err)
			return
		}
		ev.Metrics = ev.Metrics.Unconfirmed()
		env.Render(w, r, http.StatusOK, "shifts/stop-step2-produced", "STOP SHIFT", step2Data(ev, env.Loc))
	}
}

// Step2Handler stores the weights and the computed results. mode=finish
// returns to the overview, anything else shows the results.
func Step2Handler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := stopShift(env, r)
		if err != nil {
			env.ServerError(w, r, "could not load shift", err)
			return
		}
		if s == nil || s.EndLabel == "" {
			app.Redirect(w, r, "/shifts/start")
			return
		}

		p := Production{
			Start710: formKg(r, "start710"),
			Start720: formKg(r, "start720"),
			Stop710:  formKg(r, "stop710"),
			Stop720:  formKg(r, "stop720"),
		}
		ev, err := Evaluate(env.DB, *s, p, env.Cfg.Plant, env.Loc)
		if err != nil {
			env.ServerError(w, r, "could not evaluate shift", err)
			return
		}
		ev.HasResult = true
		saved, err := Save(env.DB, ev)
		if err != nil {
			env.ServerError(w, r, "could not save shift results", err)
			return
		}
		ev.Shift = saved
		env.Metrics.RecordShiftOEE(s.Operator, ev.Metrics.OEEPercent)
		env.Log.Info("shift evaluated",
			zap.Int64("id", s.ID),
			zap.String("operator", s.Operator),
			zap.Float64("produced", ev.Production.Total()),
			zap.Int("downtime", ev.Metrics.DowntimeMin),
			zap.Float64("oee", ev.Metrics.OEEPercent))

		if r.FormValue("mode") == "finish" {
			if err := database.ClearShiftState(env.DB); err != nil {
				env.ServerError(w, r, "could not clear shift state", err)
				return
			}
			app.Redirect(w, r, "/shifts/overview")
			return
		}
		env.Render(w, r, http.StatusOK, "shifts/stop-step2-produced", "STOP SHIFT", step2Data(ev, env.Loc))
	}
}

func formKg(r *http.Request, key string) float64 {
	if f := app.FormNumber(r, key); f != nil {
		return *f
	}
	return 0
}

type intervalRow struct {
	From    string
	To      string
	Minutes int
}

type step2View struct {
	Evaluation
	Intervals []intervalRow
}

func step2Data(ev Evaluation, loc *time.Location) step2View {
	v := step2View{Evaluation: ev}
	for _, iv := range ev.Metrics.Intervals {
		v.Intervals = append(v.Intervals, intervalRow{
			From:    timefmt.Clock(iv.From.In(loc)),
			To:      timefmt.Clock(iv.To.In(loc)),
			Minutes: iv.Minutes,
		})
	}
	return v
}

// Step3Handler serves the retired third stop step.
func Step3Handler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app.Redirect(w, r, "/shifts/stop/step2-produced")
	}
}

func ConfirmOEEHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := database.ClearShiftState(env.DB); err != nil {
			env.ServerError(w, r, "could not clear shift state", err)
			return
		}
		app.Redirect(w, r, "/shifts/overview")
	}
}

type debugData struct {
	Shift       *model.Shift
	Start       time.Time
	End         time.Time
	BulkAll     []model.BulkDelivery
	BBAll       []model.Discharge
	BulkInShift []model.BulkDelivery
	BBInShift   []model.Discharge
	Bulk710     float64
	Bulk720     float64
	BB710       float64
	BB720       float64
}

// DebugHandler lists the bulk and big bag records that fall inside the
// operator's current or latest shift.
func DebugHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := app.UserCode(r)
		s, err := database.GetOpenShift(env.DB, code)
		if err == nil && s == nil {
			s, err = database.GetLatestShiftOf(env.DB, code)
		}
		if err != nil {
			env.ServerError(w, r, "could not load shift", err)
			return
		}

		var d debugData
		d.Shift = s
		if d.BulkAll, err = database.GetBulkDeliveries(env.DB); err != nil {
			env.ServerError(w, r, "could not load bulk deliveries", err)
			return
		}
		if d.BBAll, err = database.GetDischarges(env.DB); err != nil {
			env.ServerError(w, r, "could not load discharges", err)
			return
		}
		if s != nil {
			if start, end, ok := Window(*s, env.Loc); ok {
				d.Start, d.End = start, end
				mv, err := LoadMovements(env.DB, start, end)
				if err != nil {
					env.ServerError(w, r, "could not load shift movements", err)
					return
				}
				d.BulkInShift, d.BBInShift = mv.Bulk, mv.Discharges
				d.BB710, d.BB720, d.Bulk710, d.Bulk720 = mv.SiloKg(start, end)
			}
		}
		env.Render(w, r, http.StatusOK, "shifts/debug-bulk-bb", "BULK & BB PER SHIFT", d)
	}
}

func OverviewHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := database.GetAllShifts(env.DB)
		if err != nil {
			env.ServerError(w, r, "could not load shifts", err)
			return
		}
		env.Render(w, r, http.StatusOK, "shifts/overview", "SHIFTS OVERVIEW", items)
	}
}
