// Package raw registers raw material receipts and their lab analysis.
package raw

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"fewr/app"
	"fewr/database"
	"fewr/model"
	"fewr/timefmt"

	"go.uber.org/zap"
)

// Choices of the segmented lab fields.
var (
	AddedSapOptions = []string{"NONE", "FRESH", "B1070", "B1070+FRESH"}
	SmellOptions    = []string{"A", "B", "C", "D"}
)

type inboundForm struct {
	Article      string `label:"Article" validate:"required"`
	Origin       string `label:"Origin" validate:"required"`
	Batch        string `label:"Batch" validate:"required"`
	Quantity     string
	ReceivedDate string `label:"Received date" validate:"required"`
	ReceivedTime string `label:"Received time" validate:"required"`
	StartLevel   string
	Operator     string
}

type inboundData struct {
	Old       inboundForm
	Materials []string
	Origins   []string
}

func newInboundData(env *app.Env, old inboundForm) inboundData {
	cat := env.Catalog.Get()
	return inboundData{Old: old, Materials: cat.RawMaterials, Origins: cat.RawOrigins}
}

func InboundPageHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := env.Clock()
		old := inboundForm{
			ReceivedDate: now.Format(timefmt.ISODate),
			ReceivedTime: timefmt.Clock(now),
			Operator:     app.UserCode(r),
		}
		env.Render(w, r, http.StatusOK, "raw/inbound", "RAW INBOUND", newInboundData(env, old))
	}
}

// InboundHandler registers a BASIC receipt awaiting its lab values.
func InboundHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := inboundForm{
			Article:      app.FormValue(r, "article"),
			Origin:       app.FormValue(r, "origin"),
			Batch:        app.FormValue(r, "batch"),
			Quantity:     app.FormValue(r, "quantity"),
			ReceivedDate: app.FormValue(r, "received_date"),
			ReceivedTime: app.FormValue(r, "received_time"),
			StartLevel:   app.FormValue(r, "startlevel"),
			Operator:     app.FormValue(r, "operator"),
		}
		if errs := app.Validate(f); len(errs) > 0 {
			env.RenderError(w, r, http.StatusBadRequest, "raw/inbound", "RAW INBOUND", strings.Join(errs, " "), newInboundData(env, f))
			return
		}
		if f.Operator == "" {
			f.Operator = app.UserCode(r)
		}

		rec := model.RawReceipt{
			Article:      f.Article,
			Origin:       f.Origin,
			Batch:        f.Batch,
			Quantity:     optionalNumber(f.Quantity),
			ReceivedDate: f.ReceivedDate,
			ReceivedTime: f.ReceivedTime,
			StartLevel:   optionalNumber(f.StartLevel),
			Operator:     f.Operator,
			Status:       model.RawStatusBasic,
		}
		id, err := database.InsertRawReceipt(env.DB, rec)
		if err != nil {
			env.ServerError(w, r, "could not register raw receipt", err)
			return
		}
		env.Log.Info("raw receipt registered", zap.Int64("id", id), zap.String("batch", rec.Batch), zap.String("article", rec.Article))
		app.Redirect(w, r, "/raw/overview")
	}
}

func optionalNumber(s string) *float64 {
	f, ok := app.ParseNumber(s)
	if !ok {
		return nil
	}
	return &f
}

// InboundAliasHandler keeps the short navigation path working.
func InboundAliasHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app.Redirect(w, r, "/raw/inbound-raw")
	}
}

// ReceivedAt is the receipt instant. Dates are ISO or DD/MM/YYYY.
func ReceivedAt(rec model.RawReceipt, loc *time.Location) (time.Time, bool) {
	day, ok := timefmt.ParseDate(rec.ReceivedDate, loc)
	if !ok {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation(timefmt.ClockLayout, strings.TrimSpace(rec.ReceivedTime), loc); err == nil {
		day = day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
	}
	return day, true
}

// SortByReceived orders receipts most recently received first. Receipts
// with an unreadable date go last.
func SortByReceived(items []model.RawReceipt, loc *time.Location) {
	sort.SliceStable(items, func(i, j int) bool {
		a, okA := ReceivedAt(items[i], loc)
		b, okB := ReceivedAt(items[j], loc)
		if okA != okB {
			return okA
		}
		return a.After(b)
	})
}

func OverviewHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := database.GetRawReceipts(env.DB)
		if err != nil {
			env.ServerError(w, r, "could not load raw receipts", err)
			return
		}
		SortByReceived(items, env.Loc)
		env.Render(w, r, http.StatusOK, "raw/overview", "RAW OVERVIEW", items)
	}
}

type laboData struct {
	Receipt  model.RawReceipt
	AddedSap []string
	Smell    []string
}

func loadReceipt(env *app.Env, w http.ResponseWriter, r *http.Request) *model.RawReceipt {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		env.NotFound(w, r)
		return nil
	}
	rec, err := database.GetRawReceipt(env.DB, id)
	if err != nil {
		env.ServerError(w, r, "could not load raw receipt", err)
		return nil
	}
	if rec == nil {
		env.NotFound(w, r)
		return nil
	}
	return rec
}

func LaboPageHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := loadReceipt(env, w, r)
		if rec == nil {
			return
		}
		env.Render(w, r, http.StatusOK, "raw/labo", "RAW LABO", laboData{Receipt: *rec, AddedSap: AddedSapOptions, Smell: SmellOptions})
	}
}

// LaboHandler stores the lab values and completes the receipt.
func LaboHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := loadReceipt(env, w, r)
		if rec == nil {
			return
		}
		value := func(key string) *string {
			v := app.FormValue(r, key)
			if v == "" {
				return nil
			}
			return &v
		}
		rec.AddedSap = value("added_sap")
		rec.Smell = value("smell")
		rec.MealTemperature = value("meal_temperature")
		rec.Duration = value("duration")
		rec.PressureBar = value("pressure_bar")
		rec.AddedAF = value("added_af")
		rec.PH = value("ph")
		rec.DS = value("ds")
		if err := database.CompleteRawReceipt(env.DB, *rec); err != nil {
			env.ServerError(w, r, "could not store lab values", err)
			return
		}
		env.Log.Info("raw receipt completed", zap.Int64("id", rec.ID), zap.String("batch", rec.Batch))
		app.Redirect(w, r, "/raw/overview")
	}
}

// FilterRedirectHandler forwards the old filter path to the analyses page
// with the same query.
func FilterRedirectHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := "/analyses/filter"
		if q := r.URL.RawQuery; q != "" {
			target += "?" + q
		}
		app.Redirect(w, r, target)
	}
}
