package database

import (
	"database/sql"
	"errors"
	"fmt"

	"fewr/model"

	"github.com/jmoiron/sqlx"
)

const batchColumns = `id, batch_code, expiry_code, start_date, end_date, period_label, created_at,
	produced_lots, raw_lots, chemical_lots, total_produced_kg, total_raw_kg, total_chemicals_kg`

func InsertBatchInTx(tx *sqlx.Tx, b model.BatchRecord) (int64, error) {
	b.CreatedAt = Stamp(b.CreatedAt)
	const q = `
		INSERT INTO batches (batch_code, expiry_code, start_date, end_date, period_label, created_at,
			produced_lots, raw_lots, chemical_lots, total_produced_kg, total_raw_kg, total_chemicals_kg)
		VALUES (:batch_code, :expiry_code, :start_date, :end_date, :period_label, :created_at,
			:produced_lots, :raw_lots, :chemical_lots, :total_produced_kg, :total_raw_kg, :total_chemicals_kg)`
	res, err := tx.NamedExec(q, b)
	if err != nil {
		return 0, fmt.Errorf("InsertBatchInTx (Code: %s) failed: %w", b.BatchCode, err)
	}
	return res.LastInsertId()
}

// GetBatches returns every batch, newest first.
func GetBatches(db *sqlx.DB) ([]model.BatchRecord, error) {
	var items []model.BatchRecord
	if err := db.Select(&items, "SELECT "+batchColumns+" FROM batches ORDER BY created_at DESC, id DESC"); err != nil {
		return nil, fmt.Errorf("failed to get batches: %w", err)
	}
	return items, nil
}

func GetBatch(db *sqlx.DB, id int64) (*model.BatchRecord, error) {
	var b model.BatchRecord
	if err := db.Get(&b, "SELECT "+batchColumns+" FROM batches WHERE id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get batch %d: %w", id, err)
	}
	return &b, nil
}

func BatchCodeExists(q sqlx.Queryer, code string) (bool, error) {
	var n int
	if err := sqlx.Get(q, &n, "SELECT COUNT(*) FROM batches WHERE batch_code = ?", code); err != nil {
		return false, fmt.Errorf("failed to check batch code %s: %w", code, err)
	}
	return n > 0, nil
}
