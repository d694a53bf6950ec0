package database

import (
	"fmt"
	"time"

	"fewr/model"

	"github.com/jmoiron/sqlx"
)

const bulkColumns = `id, created_at, date_label, time_label, silo, kg, customer, cmr, purchase_order, delivery_note, remark`

func InsertBulkDelivery(db *sqlx.DB, b model.BulkDelivery) error {
	b.CreatedAt = Stamp(b.CreatedAt)
	const q = `
		INSERT INTO bulk_deliveries (` + bulkColumns + `)
		VALUES (:id, :created_at, :date_label, :time_label, :silo, :kg, :customer, :cmr, :purchase_order, :delivery_note, :remark)`
	if _, err := db.NamedExec(q, b); err != nil {
		return fmt.Errorf("InsertBulkDelivery (ID: %s) failed: %w", b.ID, err)
	}
	return nil
}

// GetBulkDeliveries returns every delivery, newest first.
func GetBulkDeliveries(db *sqlx.DB) ([]model.BulkDelivery, error) {
	var items []model.BulkDelivery
	if err := db.Select(&items, "SELECT "+bulkColumns+" FROM bulk_deliveries ORDER BY created_at DESC, rowid DESC"); err != nil {
		return nil, fmt.Errorf("failed to get bulk deliveries: %w", err)
	}
	return items, nil
}

// GetBulkDeliveriesCreatedBetween returns the deliveries registered in
// [from, to], newest first.
func GetBulkDeliveriesCreatedBetween(db *sqlx.DB, from, to time.Time) ([]model.BulkDelivery, error) {
	var items []model.BulkDelivery
	q := "SELECT " + bulkColumns + " FROM bulk_deliveries WHERE created_at >= ? AND created_at <= ? ORDER BY created_at DESC, rowid DESC"
	if err := db.Select(&items, q, Stamp(from), Stamp(to)); err != nil {
		return nil, fmt.Errorf("failed to get bulk deliveries between %s and %s: %w", from, to, err)
	}
	return items, nil
}
