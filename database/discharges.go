package database

import (
	"fmt"
	"strings"
	"time"

	"fewr/model"

	"github.com/jmoiron/sqlx"
)

const dischargeColumns = `id, discharge_date, discharge_time, operator, remarks, origin_silo, lot_number, location_code,
	quantity_kg, status, customer, shipping_date, reference, allocation_remarks, created_at`

func InsertDischarge(db *sqlx.DB, d model.Discharge) (int64, error) {
	d.CreatedAt = Stamp(d.CreatedAt)
	d.LocationCode = strings.ToUpper(strings.TrimSpace(d.LocationCode))
	const q = `
		INSERT INTO discharges (discharge_date, discharge_time, operator, remarks, origin_silo, lot_number,
			location_code, quantity_kg, status, created_at)
		VALUES (:discharge_date, :discharge_time, :operator, :remarks, :origin_silo, :lot_number,
			:location_code, :quantity_kg, :status, :created_at)`
	res, err := db.NamedExec(q, d)
	if err != nil {
		return 0, fmt.Errorf("InsertDischarge (Location: %s) failed: %w", d.LocationCode, err)
	}
	return res.LastInsertId()
}

// GetDischarges returns every discharge, newest first.
func GetDischarges(db *sqlx.DB) ([]model.Discharge, error) {
	var items []model.Discharge
	if err := db.Select(&items, "SELECT "+dischargeColumns+" FROM discharges ORDER BY created_at DESC, id DESC"); err != nil {
		return nil, fmt.Errorf("failed to get discharges: %w", err)
	}
	return items, nil
}

// GetAllocatedDischarges filters the allocated discharges on customer and
// shipping date; empty filters match everything.
func GetAllocatedDischarges(db *sqlx.DB, customer, shippingDate string) ([]model.Discharge, error) {
	var items []model.Discharge
	q := "SELECT " + dischargeColumns + ` FROM discharges
		WHERE status = ? AND (? = '' OR customer = ?) AND (? = '' OR shipping_date = ?)
		ORDER BY created_at DESC, id DESC`
	err := db.Select(&items, q, model.DischargeAllocated, customer, customer, shippingDate, shippingDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get allocated discharges: %w", err)
	}
	return items, nil
}

type Allocation struct {
	Customer     string
	ShippingDate string
	Reference    string
	Remarks      string
}

// AllocateLocations marks the newest discharge of each location as
// allocated. Unknown locations are skipped. It returns the number of
// discharges allocated.
func AllocateLocations(db *sqlx.DB, locations []string, a Allocation) (int, error) {
	tx, err := db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const q = `
		UPDATE discharges SET status = ?, customer = ?, shipping_date = ?, reference = ?, allocation_remarks = ?
		WHERE id = (SELECT id FROM discharges WHERE location_code = ? ORDER BY created_at DESC, id DESC LIMIT 1)`
	allocated := 0
	for _, loc := range locations {
		code := strings.ToUpper(strings.TrimSpace(loc))
		if code == "" {
			continue
		}
		res, err := tx.Exec(q, model.DischargeAllocated, a.Customer, a.ShippingDate, a.Reference, a.Remarks, code)
		if err != nil {
			return 0, fmt.Errorf("failed to allocate %s: %w", code, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			allocated++
		}
	}
	return allocated, tx.Commit()
}

// MarkShipped sets the given allocated discharges to shipped.
func MarkShipped(db *sqlx.DB, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q, args, err := sqlx.In("UPDATE discharges SET status = ? WHERE status = ? AND id IN (?)", model.DischargeShipped, model.DischargeAllocated, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to build shipping query: %w", err)
	}
	res, err := db.Exec(db.Rebind(q), args...)
	if err != nil {
		return 0, fmt.Errorf("MarkShipped failed: %w", err)
	}
	return res.RowsAffected()
}

// GetDischargesCreatedBetween returns the discharges registered in
// [from, to], newest first.
func GetDischargesCreatedBetween(db *sqlx.DB, from, to time.Time) ([]model.Discharge, error) {
	var items []model.Discharge
	q := "SELECT " + dischargeColumns + " FROM discharges WHERE created_at >= ? AND created_at <= ? ORDER BY created_at DESC, id DESC"
	if err := db.Select(&items, q, Stamp(from), Stamp(to)); err != nil {
		return nil, fmt.Errorf("failed to get discharges between %s and %s: %w", from, to, err)
	}
	return items, nil
}
