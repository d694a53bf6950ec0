// Package bulk registers bulk deliveries loaded out of the product silos.
package bulk

import (
	"net/http"
	"strings"

	"fewr/app"
	"fewr/database"
	"fewr/model"
	"fewr/timefmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var Silos = []string{"710", "720"}

type deliveryForm struct {
	Customer      string  `label:"Customer" validate:"required"`
	Silo          string  `label:"Silo" validate:"oneof=710 720"`
	Kg            float64 `label:"Weight (kg)" validate:"gt=0"`
	KgText        string
	CMR           string
	PurchaseOrder string
	DeliveryNote  string
	Remark        string
	Date          string `label:"Date" validate:"required"`
	Time          string `label:"Time" validate:"required"`
}

type formData struct {
	Old       deliveryForm
	Customers []string
	Silos     []string
}

func render(env *app.Env, w http.ResponseWriter, r *http.Request, status int, errMsg string, old deliveryForm) {
	data := formData{Old: old, Customers: env.Catalog.Get().BulkCustomers, Silos: Silos}
	env.RenderError(w, r, status, "bulk/registratie", "BULK REGISTRATION", errMsg, data)
}

func FormPageHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := env.Clock()
		render(env, w, r, http.StatusOK, "", deliveryForm{Date: timefmt.Day(now), Time: timefmt.Clock(now)})
	}
}

// RegisterHandler stores a delivery. Every failed field is reported at
// once and the form keeps what was typed.
func RegisterHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := deliveryForm{
			Customer:      app.FormValue(r, "customer"),
			Silo:          app.FormValue(r, "silo"),
			KgText:        app.FormValue(r, "kg"),
			CMR:           app.FormValue(r, "cmr"),
			PurchaseOrder: app.FormValue(r, "purchase_order"),
			DeliveryNote:  app.FormValue(r, "delivery_note"),
			Remark:        app.FormValue(r, "remark"),
			Date:          app.FormValue(r, "date"),
			Time:          app.FormValue(r, "time"),
		}
		f.Kg, _ = app.ParseNumber(f.KgText)
		if errs := app.Validate(f); len(errs) > 0 {
			render(env, w, r, http.StatusBadRequest, strings.Join(errs, " "), f)
			return
		}

		d := model.BulkDelivery{
			ID:            uuid.NewString(),
			CreatedAt:     env.Now(),
			DateLabel:     f.Date,
			TimeLabel:     f.Time,
			Silo:          f.Silo,
			Kg:            f.Kg,
			Customer:      f.Customer,
			CMR:           f.CMR,
			PurchaseOrder: f.PurchaseOrder,
			DeliveryNote:  f.DeliveryNote,
			Remark:        f.Remark,
		}
		if err := database.InsertBulkDelivery(env.DB, d); err != nil {
			env.ServerError(w, r, "could not register bulk delivery", err)
			return
		}
		env.Log.Info("bulk delivery registered",
			zap.String("id", d.ID),
			zap.String("customer", d.Customer),
			zap.String("silo", d.Silo),
			zap.Float64("kg", d.Kg))
		app.Redirect(w, r, "/bulk/all")
	}
}

func OverviewHandler(env *app.Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := database.GetBulkDeliveries(env.DB)
		if err != nil {
			env.ServerError(w, r, "could not load bulk deliveries", err)
			return
		}
		env.Render(w, r, http.StatusOK, "bulk/all", "BULK OVERVIEW", items)
	}
}
