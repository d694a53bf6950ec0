package model

import "time"

// Shift status values kept in the shift state.
const (
	StatusUp   = "UP"
	StatusDown = "DOWN"
)

type Shift struct {
	ID         int64    `db:"id" json:"id"`
	Operator   string   `db:"operator" json:"operator"`
	StartLabel string   `db:"start_label" json:"startLabel"`
	EndLabel   string   `db:"end_label" json:"endLabel"`
	LogoutAt   string   `db:"logout_at" json:"logoutAt"`
	Start710   *float64 `db:"start_710" json:"start710"`
	Start720   *float64 `db:"start_720" json:"start720"`
	Stop710    *float64 `db:"stop_710" json:"stop710"`
	Stop720    *float64 `db:"stop_720" json:"stop720"`
	D710BB     *float64 `db:"d_710_bb" json:"d_710_bb"`
	D720BB     *float64 `db:"d_720_bb" json:"d_720_bb"`
	D710Bulk   *float64 `db:"d_710_bulk" json:"d_710_bulk"`
	D720Bulk   *float64 `db:"d_720_bulk" json:"d_720_bulk"`
	Produced   *float64 `db:"produced" json:"produced"`
	Downtime   *float64 `db:"downtime" json:"downtime"`
	QC         *float64 `db:"qc" json:"qc"`
	OEE        *float64 `db:"oee" json:"oee"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Open reports whether the shift has not been stopped yet.
func (s Shift) Open() bool { return s.EndLabel == "" }

// ShiftState is the live production status shown on every page while a
// shift is running.
type ShiftState struct {
	UserCode     string `db:"user_code" json:"user"`
	StartHHMM    string `db:"start_hhmm" json:"startHHMM"`
	Status       string `db:"status" json:"status"`
	Downtime     int    `db:"downtime" json:"downtime"`
	LastStopHHMM string `db:"last_stop_hhmm" json:"lastStopHHMM"`
}

// Raw receipt status values.
const (
	RawStatusBasic     = "BASIC"
	RawStatusCompleted = "COMPLETED"
)

type RawReceipt struct {
	ID              int64    `db:"id" json:"id"`
	Article         string   `db:"article" json:"article"`
	Origin          string   `db:"origin" json:"origin"`
	Batch           string   `db:"batch" json:"batch"`
	Quantity        *float64 `db:"quantity" json:"quantity"`
	ReceivedDate    string   `db:"received_date" json:"received_date"`
	ReceivedTime    string   `db:"received_time" json:"received_time"`
	StartLevel      *float64 `db:"startlevel" json:"startlevel"`
	Operator        string   `db:"operator" json:"operator"`
	Status          string   `db:"status" json:"status"`
	AddedSap        *string  `db:"added_sap" json:"added_sap"`
	Smell           *string  `db:"smell" json:"smell"`
	MealTemperature *string  `db:"meal_temperature" json:"meal_temperature"`
	Duration        *string  `db:"duration" json:"duration"`
	PressureBar     *string  `db:"pressure_bar" json:"pressure_bar"`
	AddedAF         *string  `db:"added_af" json:"added_af"`
	PH              *string  `db:"ph" json:"ph"`
	DS              *string  `db:"ds" json:"ds"`
}

// LaboFields lists the lab columns in form order.
var LaboFields = []string{"added_sap", "smell", "meal_temperature", "duration", "pressure_bar", "added_af", "ph", "ds"}

// LaboValue returns the lab value stored for field; ok is false when the
// field is unknown or empty.
func (r RawReceipt) LaboValue(field string) (string, bool) {
	var p *string
	switch field {
	case "added_sap":
		p = r.AddedSap
	case "smell":
		p = r.Smell
	case "meal_temperature":
		p = r.MealTemperature
	case "duration":
		p = r.Duration
	case "pressure_bar":
		p = r.PressureBar
	case "added_af":
		p = r.AddedAF
	case "ph":
		p = r.PH
	case "ds":
		p = r.DS
	}
	if p == nil || *p == "" {
		return "", false
	}
	return *p, true
}

type BulkDelivery struct {
	ID            string    `db:"id" json:"id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	DateLabel     string    `db:"date_label" json:"date_label"`
	TimeLabel     string    `db:"time_label" json:"time_label"`
	Silo          string    `db:"silo" json:"silo"`
	Kg            float64   `db:"kg" json:"kg"`
	Customer      string    `db:"customer" json:"customer"`
	CMR           string    `db:"cmr" json:"cmr"`
	PurchaseOrder string    `db:"purchase_order" json:"purchase_order"`
	DeliveryNote  string    `db:"delivery_note" json:"delivery_note"`
	Remark        string    `db:"remark" json:"remark"`
}
