// Package analyses reports on finished shifts, raw material lab values and
// logbook messages.
package analyses

import (
	"encoding/csv"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"fewr/app"
	"fewr/database"
	"fewr/model"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultField is the lab field the raw filter opens on.
const DefaultField = "ph"

func IndexHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app.Redirect(w, r, "/analyses/messages-filter")
	}
}

// Average is the mean of the non-nil values, or 0 when there are none.
func Average(values []*float64) float64 {
	var sum float64
	n := 0
	for _, v := range values {
		if v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

type shiftReport struct {
	Rows    []model.Shift
	Average float64
}

func shiftReportHandler(env *app.Env, page, title string, value func(model.Shift) *float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := database.GetAllShifts(env.DB)
		if err != nil {
			env.ServerError(w, r, "could not load shifts", err)
			return
		}
		values := make([]*float64, len(rows))
		for i, s := range rows {
			values[i] = value(s)
		}
		env.Render(w, r, http.StatusOK, page, title, shiftReport{Rows: rows, Average: Average(values)})
	}
}

// OverviewOEEHandler lists the shifts newest first with the mean OEE of
// the shifts that have one.
func OverviewOEEHandler(env *app.Env) http.HandlerFunc {
	return shiftReportHandler(env, "analyses/overview-oee", "OVERVIEW OEE", func(s model.Shift) *float64 { return s.OEE })
}

func ProductionHandler(env *app.Env) http.HandlerFunc {
	return shiftReportHandler(env, "analyses/production", "PRODUCTION", func(s model.Shift) *float64 { return s.Produced })
}

func numeric(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.Replace(s, ",", ".", 1)), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FilterReceipts keeps the receipts with a value for field. Numeric values
// come first in ascending order, the rest follow alphabetically.
func FilterReceipts(items []model.RawReceipt, field string) []model.RawReceipt {
	var out []model.RawReceipt
	for _, rec := range items {
		if _, ok := rec.LaboValue(field); ok {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := out[i].LaboValue(field)
		b, _ := out[j].LaboValue(field)
		an, aok := numeric(a)
		bn, bok := numeric(b)
		switch {
		case aok && bok:
			return an < bn
		case aok != bok:
			return aok
		}
		return strings.ToUpper(a) < strings.ToUpper(b)
	})
	return out
}

// WriteCSV writes the receipts as a semicolon separated file with a UTF-8
// byte order mark so spreadsheet programs pick the right encoding.
func WriteCSV(w http.ResponseWriter, items []model.RawReceipt, field string) error {
	bw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(bw)
	cw.Comma = ';'
	header := []string{"ID", "Batch", "Article", "Origin", "Received date", "Received time", "Status", strings.ToUpper(field)}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, rec := range items {
		v, _ := rec.LaboValue(field)
		row := []string{strconv.FormatInt(rec.ID, 10), rec.Batch, rec.Article, rec.Origin, rec.ReceivedDate, rec.ReceivedTime, rec.Status, v}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Close()
}

type filterData struct {
	Field    string
	Fields   []string
	Receipts []model.RawReceipt
}

// RawFilterHandler shows the receipts sorted on one lab field, or
// downloads them as CSV with mode=excel.
func RawFilterHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		field := q.Get("field")
		if field == "" {
			field = DefaultField
		}
		items, err := database.GetRawReceipts(env.DB)
		if err != nil {
			env.ServerError(w, r, "could not load raw receipts", err)
			return
		}
		filtered := FilterReceipts(items, field)

		if q.Get("mode") == "excel" {
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "raw-filter-"+field+".csv"))
			if err := WriteCSV(w, filtered, field); err != nil {
				env.ServerError(w, r, "could not write raw filter csv", err)
			}
			return
		}
		env.Render(w, r, http.StatusOK, "analyses/filter", "RAW FILTER", filterData{Field: field, Fields: model.LaboFields, Receipts: filtered})
	}
}

type messagesData struct {
	Labels   []string
	Selected string
	Results  []model.Message
}

func MessagesFilterHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := messagesData{Labels: env.Catalog.Get().InfoLabels, Selected: r.URL.Query().Get("label")}
		if data.Selected != "" {
			var err error
			if data.Results, err = database.GetMessagesByInfoLabel(env.DB, data.Selected); err != nil {
				env.ServerError(w, r, "could not filter messages", err)
				return
			}
		}
		env.Render(w, r, http.StatusOK, "analyses/messages-filter", "MESSAGES FILTER", data)
	}
}
