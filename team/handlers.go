package team

import (
	"fmt"
	"net/http"
	"strconv"

	"fewr/app"
	"fewr/database"
	"fewr/model"
	"fewr/render"

	"go.uber.org/zap"
)

// loadMonth seeds an empty month before reading it back.
func loadMonth(env *app.Env, m Month) ([]model.ScheduleEntry, error) {
	seeded, err := database.SeedScheduleMonth(env.DB, m.Year, m.Month, Seed(m))
	if err != nil {
		return nil, err
	}
	if seeded {
		env.Log.Info("schedule month seeded", zap.Int("year", m.Year), zap.Int("month", int(m.Month)))
	}
	return database.GetScheduleMonth(env.DB, m.Year, m.Month)
}

type scheduleData struct {
	Month     string
	Year      string
	Rows      []model.ScheduleEntry
	Operators []string
}

func ScheduleHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := MonthFrom(r.URL.Query(), env.Clock())
		rows, err := loadMonth(env, m)
		if err != nil {
			env.ServerError(w, r, "could not load schedule", err)
			return
		}
		data := scheduleData{Month: m.MM(), Year: m.YYYY(), Rows: rows, Operators: env.Catalog.Get().WorkOperators}
		env.Render(w, r, http.StatusOK, "team/schedule", "TEAM - SCHEDULE", data)
	}
}

// cellAction reads date and shift from the form and runs fn; without both
// it only returns to the previous page.
func cellAction(env *app.Env, fallback, what string, fn func(r *http.Request, date, shift string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, shift := app.FormValue(r, "date"), app.FormValue(r, "shift")
		if date != "" && shift != "" {
			if err := fn(r, date, shift); err != nil {
				env.ServerError(w, r, "could not "+what, err)
				return
			}
			env.Log.Info("schedule changed", zap.String("action", what), zap.String("date", date), zap.String("shift", shift), zap.String("user", app.UserCode(r)))
		}
		app.RedirectBack(w, r, fallback)
	}
}

// MarkAbsentHandler empties a cell and opens an unapproved absence.
func MarkAbsentHandler(env *app.Env) http.HandlerFunc {
	return cellAction(env, "/team/schedule", "mark absent", func(_ *http.Request, date, shift string) error {
		return database.MarkAbsent(env.DB, date, shift)
	})
}

// FillCoverHandler puts a cover operator in a cell. A request without a
// cover operator changes nothing.
func FillCoverHandler(env *app.Env) http.HandlerFunc {
	return cellAction(env, "/team/absences", "fill cover", func(r *http.Request, date, shift string) error {
		cover := app.FormValue(r, "coverUser")
		if cover == "" {
			return nil
		}
		return database.FillCover(env.DB, date, shift, cover, env.Now())
	})
}

func UndoReplacementHandler(env *app.Env) http.HandlerFunc {
	return cellAction(env, "/team/replacements", "undo replacement", func(_ *http.Request, date, shift string) error {
		return database.UndoReplacement(env.DB, date, shift)
	})
}

type absencesData struct {
	Rows      []model.Absence
	Operators []string
}

func AbsencesHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := database.GetAbsences(env.DB)
		if err != nil {
			env.ServerError(w, r, "could not load absences", err)
			return
		}
		env.Render(w, r, http.StatusOK, "team/absences", "TEAM - ABSENCES", absencesData{Rows: rows, Operators: env.Catalog.Get().WorkOperators})
	}
}

func ReplacementsHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := database.GetReplacements(env.DB)
		if err != nil {
			env.ServerError(w, r, "could not load replacements", err)
			return
		}
		env.Render(w, r, http.StatusOK, "team/replacements", "TEAM - REPLACEMENTS", rows)
	}
}

type workData struct {
	Month     string
	Year      string
	Operator  string
	Operators []string
	Rows      []WorkRow
}

func loadWork(env *app.Env, r *http.Request) (workData, error) {
	m := MonthFrom(r.URL.Query(), env.Clock())
	known := env.Catalog.Get().WorkOperators
	data := workData{
		Month:     m.MM(),
		Year:      m.YYYY(),
		Operator:  OperatorFilter(r.URL.Query().Get("operator"), known),
		Operators: known,
	}
	all, err := database.GetAllShifts(env.DB)
	if err != nil {
		return data, err
	}
	data.Rows = WorkPerformance(all, m, data.Operator, env.Loc)
	return data, nil
}

func WorkPerformanceHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := loadWork(env, r)
		if err != nil {
			env.ServerError(w, r, "could not load shifts", err)
			return
		}
		env.Render(w, r, http.StatusOK, "team/work-performance", "TEAM - WORKING HOURS", data)
	}
}

// Sheet is a table offered as an Excel download.
type Sheet struct {
	Filename string
	Headers  []string
	Rows     [][]string
}

func absenceSheet(rows []model.Absence) Sheet {
	s := Sheet{Filename: "TEAM_ABSENCES_ALL.xls", Headers: []string{"date", "shift", "originalUser", "status", "approved"}}
	for _, a := range rows {
		approved := "0"
		if a.Approved {
			approved = "1"
		}
		s.Rows = append(s.Rows, []string{a.Date, a.Shift, a.OriginalUser, "absent", approved})
	}
	return s
}

func replacementSheet(rows []model.Replacement) Sheet {
	s := Sheet{Filename: "TEAM_REPLACEMENTS_ALL.xls", Headers: []string{"date", "shift", "originalUser", "coverUser"}}
	for _, rp := range rows {
		s.Rows = append(s.Rows, []string{rp.Date, rp.Shift, rp.OriginalUser, rp.CoverUser})
	}
	return s
}

func workSheet(d workData) Sheet {
	s := Sheet{
		Filename: fmt.Sprintf("TEAM_WORK-PERFORMANCE_%s-%s_%s.xls", d.Year, d.Month, d.Operator),
		Headers:  []string{"operator", "startLabel", "endLabel", "logoutAt", "totalMinutes", "totalHHMM"},
	}
	for _, row := range d.Rows {
		s.Rows = append(s.Rows, []string{row.Operator, row.StartLabel, row.EndLabel, row.LogoutAt, strconv.Itoa(row.Minutes), row.HHMM})
	}
	return s
}

func scheduleSheet(m Month, rows []model.ScheduleEntry) Sheet {
	s := Sheet{
		Filename: fmt.Sprintf("TEAM_SCHEDULE_%s-%s.xls", m.YYYY(), m.MM()),
		Headers:  []string{"date", "shift", "user", "state", "start", "end"},
	}
	for _, e := range rows {
		s.Rows = append(s.Rows, []string{e.Date, e.Shift, e.UserCode, e.State, e.Start, e.End})
	}
	return s
}

func buildSheet(env *app.Env, r *http.Request) (Sheet, error) {
	switch r.URL.Query().Get("page") {
	case "absences":
		rows, err := database.GetAbsences(env.DB)
		return absenceSheet(rows), err
	case "replacements":
		rows, err := database.GetReplacements(env.DB)
		return replacementSheet(rows), err
	case "work-performance":
		d, err := loadWork(env, r)
		return workSheet(d), err
	default:
		m := MonthFrom(r.URL.Query(), env.Clock())
		rows, err := loadMonth(env, m)
		return scheduleSheet(m, rows), err
	}
}

// ExportHandler downloads a team page as an HTML table Excel can open.
func ExportHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sheet, err := buildSheet(env, r)
		if err != nil {
			env.ServerError(w, r, "could not build export", err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.ms-excel")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sheet.Filename))
		w.Write([]byte(render.TableHTML(sheet.Headers, sheet.Rows)))
	}
}
