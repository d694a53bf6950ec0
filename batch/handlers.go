package batch

import (
	"net/http"
	"strconv"

	"fewr/app"
	"fewr/database"

	"go.uber.org/zap"
)

type creationData struct {
	StartDate string
	EndDate   string
	Preview   *Preview
}

func renderPreview(env *app.Env, w http.ResponseWriter, r *http.Request, startDate, endDate string, required bool) {
	data := creationData{StartDate: startDate, EndDate: endDate}
	p, ok := ParsePeriod(startDate, endDate, env.Loc)
	if !ok {
		if required {
			env.RenderError(w, r, http.StatusBadRequest, "bb/batch-creation", "BATCH CREATION", "Please choose both a start and an end date.", data)
			return
		}
		env.Render(w, r, http.StatusOK, "bb/batch-creation", "BATCH CREATION", data)
		return
	}
	pv, err := BuildPreview(env.DB, p, env.Clock())
	if err != nil {
		env.ServerError(w, r, "could not build batch preview", err)
		return
	}
	data.Preview = &pv
	env.Render(w, r, http.StatusOK, "bb/batch-creation", "BATCH CREATION", data)
}

// CreationPageHandler shows the period picker, and the preview once both
// dates are in the query.
func CreationPageHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		renderPreview(env, w, r, q.Get("startDate"), q.Get("endDate"), false)
	}
}

func PreviewHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderPreview(env, w, r, app.FormValue(r, "startDate", "fromDate"), app.FormValue(r, "endDate", "toDate"), true)
	}
}

func SaveHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startDate := app.FormValue(r, "startDate", "fromDate")
		endDate := app.FormValue(r, "endDate", "toDate")
		p, ok := ParsePeriod(startDate, endDate, env.Loc)
		if !ok {
			env.RenderError(w, r, http.StatusBadRequest, "bb/batch-creation", "BATCH CREATION",
				"Please choose both a start and an end date.", creationData{StartDate: startDate, EndDate: endDate})
			return
		}
		rec, err := Save(env.DB, p, app.FormValue(r, "batchCode", "batch_code"), app.FormValue(r, "expiryCode", "expiry_code"), env.Clock())
		if err != nil {
			env.ServerError(w, r, "could not save batch", err)
			return
		}
		env.Log.Info("batch saved",
			zap.Int64("id", rec.ID),
			zap.String("code", rec.BatchCode),
			zap.Float64("produced_kg", rec.TotalProducedKg),
			zap.String("user", app.UserCode(r)))
		app.Redirect(w, r, "/bb/batch-overview")
	}
}

func OverviewHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := database.GetBatches(env.DB)
		if err != nil {
			env.ServerError(w, r, "could not load batches", err)
			return
		}
		env.Render(w, r, http.StatusOK, "bb/batch-overview", "BATCH OVERVIEW", items)
	}
}

func DetailHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			env.NotFound(w, r)
			return
		}
		b, err := database.GetBatch(env.DB, id)
		if err != nil {
			env.ServerError(w, r, "could not load batch", err)
			return
		}
		if b == nil {
			env.NotFound(w, r)
			return
		}
		env.Render(w, r, http.StatusOK, "bb/batch-detail", "BATCH "+b.BatchCode, b)
	}
}
