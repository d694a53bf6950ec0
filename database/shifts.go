package database

import (
	"database/sql"
	"errors"
	"fmt"

	"fewr/model"

	"github.com/jmoiron/sqlx"
)

// GetShiftState returns the live shift state, or nil when no shift runs.
func GetShiftState(db sqlx.Queryer) (*model.ShiftState, error) {
	var s model.ShiftState
	err := sqlx.Get(db, &s, "SELECT user_code, start_hhmm, status, downtime, last_stop_hhmm FROM shift_state WHERE singleton = 1")
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get shift state: %w", err)
	}
	return &s, nil
}

func SetShiftState(db sqlx.Ext, s model.ShiftState) error {
	const q = `
		INSERT INTO shift_state (singleton, user_code, start_hhmm, status, downtime, last_stop_hhmm)
		VALUES (1, :user_code, :start_hhmm, :status, :downtime, :last_stop_hhmm)
		ON CONFLICT(singleton) DO UPDATE SET
			user_code = excluded.user_code,
			start_hhmm = excluded.start_hhmm,
			status = excluded.status,
			downtime = excluded.downtime,
			last_stop_hhmm = excluded.last_stop_hhmm`
	if _, err := sqlx.NamedExec(db, q, s); err != nil {
		return fmt.Errorf("SetShiftState failed: %w", err)
	}
	return nil
}

func ClearShiftState(db sqlx.Execer) error {
	if _, err := db.Exec("DELETE FROM shift_state"); err != nil {
		return fmt.Errorf("ClearShiftState failed: %w", err)
	}
	return nil
}

const shiftColumns = `id, operator, start_label, end_label, logout_at, start_710, start_720, stop_710, stop_720,
	d_710_bb, d_720_bb, d_710_bulk, d_720_bulk, produced, downtime, qc, oee, created_at`

func InsertShift(db sqlx.Ext, s model.Shift) (int64, error) {
	s.CreatedAt = Stamp(s.CreatedAt)
	const q = `INSERT INTO shifts (operator, start_label, created_at) VALUES (:operator, :start_label, :created_at)`
	res, err := sqlx.NamedExec(db, q, s)
	if err != nil {
		return 0, fmt.Errorf("InsertShift failed: %w", err)
	}
	return res.LastInsertId()
}

func getShift(db sqlx.Queryer, where string, args ...any) (*model.Shift, error) {
	var s model.Shift
	err := sqlx.Get(db, &s, "SELECT "+shiftColumns+" FROM shifts "+where+" ORDER BY id DESC LIMIT 1", args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get shift: %w", err)
	}
	return &s, nil
}

func GetShift(db *sqlx.DB, id int64) (*model.Shift, error) {
	return getShift(db, "WHERE id = ?", id)
}

// GetOpenShift returns the operator's shift without an end label.
func GetOpenShift(db sqlx.Queryer, operator string) (*model.Shift, error) {
	return getShift(db, "WHERE operator = ? AND end_label = ''", operator)
}

// GetLatestEndedShift returns the operator's most recent stopped shift.
func GetLatestEndedShift(db *sqlx.DB, operator string) (*model.Shift, error) {
	return getShift(db, "WHERE operator = ? AND end_label <> ''", operator)
}

// GetLatestShiftOf returns the operator's most recent shift, open or not.
func GetLatestShiftOf(db *sqlx.DB, operator string) (*model.Shift, error) {
	return getShift(db, "WHERE operator = ?", operator)
}

// GetPreviousShift returns the shift registered right before id, whoever
// ran it. Its stop weights are the next shift's start weights.
func GetPreviousShift(db *sqlx.DB, id int64) (*model.Shift, error) {
	return getShift(db, "WHERE id < ?", id)
}

func GetAllShifts(db *sqlx.DB) ([]model.Shift, error) {
	var items []model.Shift
	if err := db.Select(&items, "SELECT "+shiftColumns+" FROM shifts ORDER BY id DESC"); err != nil {
		return nil, fmt.Errorf("failed to get shifts: %w", err)
	}
	return items, nil
}

func SetShiftEnd(db *sqlx.DB, id int64, endLabel string) error {
	if _, err := db.Exec("UPDATE shifts SET end_label = ? WHERE id = ?", endLabel, id); err != nil {
		return fmt.Errorf("SetShiftEnd (ID: %d) failed: %w", id, err)
	}
	return nil
}

// SaveShiftProduction stores the silo weights, the kg moved out of the
// silos and the computed results of a stopped shift.
func SaveShiftProduction(db *sqlx.DB, s model.Shift) error {
	const q = `
		UPDATE shifts SET
			start_710 = :start_710, start_720 = :start_720,
			stop_710 = :stop_710, stop_720 = :stop_720,
			d_710_bb = :d_710_bb, d_720_bb = :d_720_bb,
			d_710_bulk = :d_710_bulk, d_720_bulk = :d_720_bulk,
			produced = :produced, downtime = :downtime, qc = :qc, oee = :oee
		WHERE id = :id`
	if _, err := db.NamedExec(q, s); err != nil {
		return fmt.Errorf("SaveShiftProduction (ID: %d) failed: %w", s.ID, err)
	}
	return nil
}

// StampLogout writes the logout stamp on the operator's most recent shift.
// It is a no-op when the operator never ran a shift.
func StampLogout(db *sqlx.DB, operator, stamp string) error {
	const q = `UPDATE shifts SET logout_at = ? WHERE id = (SELECT MAX(id) FROM shifts WHERE operator = ?)`
	if _, err := db.Exec(q, stamp, operator); err != nil {
		return fmt.Errorf("StampLogout (Operator: %s) failed: %w", operator, err)
	}
	return nil
}
