package bb

import (
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"fewr/app"
	"fewr/database"
	"fewr/labels"
	"fewr/model"
	"fewr/shifts"
	"fewr/timefmt"

	"go.uber.org/zap"
)

var (
	Silos   = []string{shifts.BBSilo710, shifts.BBSilo720}
	Weights = []int{1000, 1100, 1200}
)

type dischargeForm struct {
	OriginSilo    string
	LotNumber     string  `label:"Lot" validate:"required"`
	LocationCode  string  `label:"Location" validate:"required"`
	QuantityKg    float64 `label:"Quantity" validate:"gt=0"`
	DischargeDate string
	DischargeTime string
	Remarks       string
}

func readDischarge(env *app.Env, r *http.Request) (dischargeForm, []string) {
	now := env.Clock()
	f := dischargeForm{
		OriginSilo:    app.FormValue(r, "originSilo"),
		LotNumber:     app.FormValue(r, "lotNumber", "bbLot"),
		LocationCode:  strings.ToUpper(app.FormValue(r, "locationCode", "destination")),
		DischargeDate: app.FormValue(r, "dischargeDate"),
		DischargeTime: app.FormValue(r, "dischargeTime"),
		Remarks:       app.FormValue(r, "remarks"),
	}
	f.QuantityKg, _ = app.ParseNumber(r.FormValue("quantityKg"))
	if f.DischargeDate == "" {
		f.DischargeDate = now.Format(timefmt.ISODate)
	}
	if f.DischargeTime == "" {
		f.DischargeTime = timefmt.Clock(now)
	}
	errs := app.Validate(f)
	if f.LocationCode != "" && !isSlot(f.LocationCode) {
		errs = append(errs, fmt.Sprintf("Location %s is not a warehouse slot.", f.LocationCode))
	}
	return f, errs
}

func isSlot(code string) bool {
	for row := 1; row <= Rows; row++ {
		for _, col := range Columns {
			if SlotCode(row, col) == code {
				return true
			}
		}
	}
	return false
}

// register stores the discharge of a validated form.
func register(env *app.Env, r *http.Request, f dischargeForm) (model.Discharge, error) {
	d := model.Discharge{
		DischargeDate: f.DischargeDate,
		DischargeTime: f.DischargeTime,
		Operator:      app.UserCode(r),
		Remarks:       f.Remarks,
		OriginSilo:    f.OriginSilo,
		LotNumber:     f.LotNumber,
		LocationCode:  f.LocationCode,
		QuantityKg:    f.QuantityKg,
		Status:        model.DischargeOccupied,
		CreatedAt:     env.Now(),
	}
	id, err := database.InsertDischarge(env.DB, d)
	if err != nil {
		return d, err
	}
	d.ID = id
	env.Metrics.RecordDischarge(d.OriginSilo)
	env.Log.Info("big bag discharged",
		zap.Int64("id", id),
		zap.String("location", d.LocationCode),
		zap.String("lot", d.LotNumber),
		zap.Float64("kg", d.QuantityKg),
		zap.String("user", d.Operator))
	return d, nil
}

type dischargeData struct {
	Old        dischargeForm
	Lots       []model.BatchRecord
	Grid       []GridRow
	Discharges []model.Discharge
	Silos      []string
	Weights    []int
	Languages  []string
}

func renderDischarge(env *app.Env, w http.ResponseWriter, r *http.Request, status int, errMsg string, old dischargeForm) {
	lots, err := database.GetBatches(env.DB)
	if err != nil {
		env.ServerError(w, r, "could not load batches", err)
		return
	}
	all, err := database.GetDischarges(env.DB)
	if err != nil {
		env.ServerError(w, r, "could not load discharges", err)
		return
	}
	data := dischargeData{
		Old:        old,
		Lots:       lots,
		Grid:       Grid(BuildSlots(all)),
		Discharges: all,
		Silos:      Silos,
		Weights:    Weights,
		Languages:  labels.Languages(),
	}
	env.RenderError(w, r, status, "bb/discharge", "BB DISCHARGE", errMsg, data)
}

func DischargePageHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderDischarge(env, w, r, http.StatusOK, "", dischargeForm{OriginSilo: shifts.BBSilo710, QuantityKg: 1000})
	}
}

func SaveDischargeHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, errs := readDischarge(env, r)
		if len(errs) > 0 {
			renderDischarge(env, w, r, http.StatusBadRequest, strings.Join(errs, " "), f)
			return
		}
		if _, err := register(env, r, f); err != nil {
			env.ServerError(w, r, "could not register discharge", err)
			return
		}
		app.Redirect(w, r, "/bb/discharge")
	}
}

// PrintLabelHandler registers the discharge and answers its label, as a PDF
// when a printer is configured and as HTML otherwise.
func PrintLabelHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, errs := readDischarge(env, r)
		if len(errs) > 0 {
			renderDischarge(env, w, r, http.StatusBadRequest, strings.Join(errs, " "), f)
			return
		}
		d, err := register(env, r, f)
		if err != nil {
			env.ServerError(w, r, "could not register discharge", err)
			return
		}

		l := labels.New(app.FormValue(r, "labelLang"))
		l.LocationCode = d.LocationCode
		l.QuantityKg = d.QuantityKg
		l.OriginSilo = d.OriginSilo
		l.LotNumber = d.LotNumber
		l.ProductionDate = timefmt.Day(env.Clock())
		l.OperatorCode = d.Operator
		if logo := app.FormValue(r, "logoChoice"); logo != "" {
			l.LogoFile = filepath.Base(logo)
		}
		html, err := l.HTML()
		if err != nil {
			env.ServerError(w, r, "could not render label", err)
			return
		}

		if env.Labels != nil {
			pdf, err := env.Labels.PDF(r.Context(), html)
			if err == nil {
				w.Header().Set("Content-Type", "application/pdf")
				w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "label-"+d.LocationCode+".pdf"))
				w.Write(pdf)
				return
			}
			env.Log.Warn("label pdf failed, answering html", zap.Int64("discharge", d.ID), zap.Error(err))
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(html)
	}
}

func DischargeOverviewHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := database.GetDischarges(env.DB)
		if err != nil {
			env.ServerError(w, r, "could not load discharges", err)
			return
		}
		env.Render(w, r, http.StatusOK, "bb/discharge-overview", "BB DISCHARGE OVERVIEW", all)
	}
}

type allocationData struct {
	Customer     string
	ShippingDate string
	Reference    string
	Remarks      string
	Customers    []string
	Available    []Slot
	Allocations  []model.Discharge
}

func AllocationPageHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		data := allocationData{
			Customer:     q.Get("customer"),
			ShippingDate: q.Get("shippingDate"),
			Reference:    q.Get("reference"),
			Remarks:      q.Get("remarks"),
			Customers:    env.Catalog.Get().BulkCustomers,
		}
		all, err := database.GetDischarges(env.DB)
		if err != nil {
			env.ServerError(w, r, "could not load discharges", err)
			return
		}
		batches, err := database.GetBatches(env.DB)
		if err != nil {
			env.ServerError(w, r, "could not load batches", err)
			return
		}
		data.Available = Allocatable(BuildSlots(all), batches, env.Loc)
		data.Allocations, err = database.GetAllocatedDischarges(env.DB, data.Customer, data.ShippingDate)
		if err != nil {
			env.ServerError(w, r, "could not load allocations", err)
			return
		}
		env.Render(w, r, http.StatusOK, "bb/allocation", "BB ALLOCATION", data)
	}
}

// AllocateHandler reserves the newest bag of every chosen location for a
// customer and returns to the allocation page with the same filters.
func AllocateHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a := database.Allocation{
			Customer:     app.FormValue(r, "customer"),
			ShippingDate: app.FormValue(r, "shippingDate"),
			Reference:    app.FormValue(r, "reference"),
			Remarks:      app.FormValue(r, "remarks"),
		}
		locations := append(app.FormList(r, "locations"), app.FormList(r, "locations[]")...)
		n, err := database.AllocateLocations(env.DB, locations, a)
		if err != nil {
			env.ServerError(w, r, "could not allocate big bags", err)
			return
		}
		env.Log.Info("big bags allocated", zap.Int("count", n), zap.String("customer", a.Customer), zap.String("shipping_date", a.ShippingDate))
		app.RedirectWith(w, r, "/bb/allocation", url.Values{
			"customer":     {a.Customer},
			"shippingDate": {a.ShippingDate},
			"reference":    {a.Reference},
			"remarks":      {a.Remarks},
		})
	}
}

type loadingData struct {
	ShippingDate string
	Customer     string
	Reference    string
	List         []model.Discharge
}

func LoadingHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		data := loadingData{ShippingDate: q.Get("shippingDate"), Customer: q.Get("customer"), Reference: q.Get("reference")}
		allocated, err := database.GetAllocatedDischarges(env.DB, data.Customer, data.ShippingDate)
		if err != nil {
			env.ServerError(w, r, "could not load loading list", err)
			return
		}
		data.List = LoadingList(allocated)
		env.Render(w, r, http.StatusOK, "bb/loading", "BB LOADING", data)
	}
}

// ConfirmLoadingHandler marks the loaded bags shipped, which frees their
// slots.
func ConfirmLoadingHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ids []int64
		for _, v := range app.FormList(r, "ids") {
			if id, err := strconv.ParseInt(v, 10, 64); err == nil {
				ids = append(ids, id)
			}
		}
		n, err := database.MarkShipped(env.DB, ids)
		if err != nil {
			env.ServerError(w, r, "could not confirm loading", err)
			return
		}
		env.Log.Info("big bags shipped", zap.Int64("count", n), zap.String("user", app.UserCode(r)))
		q := url.Values{"msg": {fmt.Sprintf("%d big bag(s) shipped.", n)}}
		if c := app.FormValue(r, "customer"); c != "" {
			q.Set("customer", c)
		}
		if d := app.FormValue(r, "shippingDate"); d != "" {
			q.Set("shippingDate", d)
		}
		app.RedirectWith(w, r, "/bb/loading", q)
	}
}

func StockHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := database.GetDischarges(env.DB)
		if err != nil {
			env.ServerError(w, r, "could not load discharges", err)
			return
		}
		batches, err := database.GetBatches(env.DB)
		if err != nil {
			env.ServerError(w, r, "could not load batches", err)
			return
		}
		env.Render(w, r, http.StatusOK, "bb/stock", "BB STOCK", StockSummary(all, batches))
	}
}

// DebugHandler dumps every discharge as JSON.
func DebugHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := database.GetDischarges(env.DB)
		if err != nil {
			env.Log.Error("could not load discharges", zap.Error(err))
			app.WriteJSONError(w, "could not load discharges", http.StatusInternalServerError)
			return
		}
		if all == nil {
			all = []model.Discharge{}
		}
		app.WriteJSON(w, http.StatusOK, all)
	}
}
