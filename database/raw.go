package database

import (
	"database/sql"
	"errors"
	"fmt"

	"fewr/model"

	"github.com/jmoiron/sqlx"
)

const rawColumns = `id, article, origin, batch, quantity, received_date, received_time, startlevel, operator, status,
	added_sap, smell, meal_temperature, duration, pressure_bar, added_af, ph, ds`

func InsertRawReceipt(db *sqlx.DB, r model.RawReceipt) (int64, error) {
	const q = `
		INSERT INTO raw_receipts (article, origin, batch, quantity, received_date, received_time, startlevel, operator, status)
		VALUES (:article, :origin, :batch, :quantity, :received_date, :received_time, :startlevel, :operator, :status)`
	res, err := db.NamedExec(q, r)
	if err != nil {
		return 0, fmt.Errorf("InsertRawReceipt (Batch: %s) failed: %w", r.Batch, err)
	}
	return res.LastInsertId()
}

// GetRawReceipts returns every receipt, most recently received first.
func GetRawReceipts(db *sqlx.DB) ([]model.RawReceipt, error) {
	var items []model.RawReceipt
	q := "SELECT " + rawColumns + " FROM raw_receipts ORDER BY received_date DESC, received_time DESC, id DESC"
	if err := db.Select(&items, q); err != nil {
		return nil, fmt.Errorf("failed to get raw receipts: %w", err)
	}
	return items, nil
}

func GetRawReceipt(db *sqlx.DB, id int64) (*model.RawReceipt, error) {
	var r model.RawReceipt
	if err := db.Get(&r, "SELECT "+rawColumns+" FROM raw_receipts WHERE id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get raw receipt %d: %w", id, err)
	}
	return &r, nil
}

// CompleteRawReceipt stores the lab values and marks the receipt COMPLETED.
func CompleteRawReceipt(db *sqlx.DB, r model.RawReceipt) error {
	r.Status = model.RawStatusCompleted
	const q = `
		UPDATE raw_receipts SET
			added_sap = :added_sap, smell = :smell, meal_temperature = :meal_temperature,
			duration = :duration, pressure_bar = :pressure_bar, added_af = :added_af,
			ph = :ph, ds = :ds, status = :status
		WHERE id = :id`
	if _, err := db.NamedExec(q, r); err != nil {
		return fmt.Errorf("CompleteRawReceipt (ID: %d) failed: %w", r.ID, err)
	}
	return nil
}
