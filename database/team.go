package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fewr/model"

	"github.com/jmoiron/sqlx"
)

const topicColumns = `id, created_at, user_code, info_labels, topic_type, message, attachments, ack_by`

func InsertTopic(db *sqlx.DB, t model.Topic) error {
	t.CreatedAt = Stamp(t.CreatedAt)
	const q = `
		INSERT INTO topics (` + topicColumns + `)
		VALUES (:id, :created_at, :user_code, :info_labels, :topic_type, :message, :attachments, :ack_by)`
	if _, err := db.NamedExec(q, t); err != nil {
		return fmt.Errorf("InsertTopic (ID: %s) failed: %w", t.ID, err)
	}
	return nil
}

// GetTopics returns every topic, newest first.
func GetTopics(db *sqlx.DB) ([]model.Topic, error) {
	var items []model.Topic
	if err := db.Select(&items, "SELECT "+topicColumns+" FROM topics ORDER BY created_at DESC, rowid DESC"); err != nil {
		return nil, fmt.Errorf("failed to get topics: %w", err)
	}
	return items, nil
}

func GetTopic(db *sqlx.DB, id string) (*model.Topic, error) {
	var t model.Topic
	if err := db.Get(&t, "SELECT "+topicColumns+" FROM topics WHERE id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get topic %s: %w", id, err)
	}
	return &t, nil
}

// AcknowledgeTopics adds userCode to the readers of each topic once.
func AcknowledgeTopics(db *sqlx.DB, ids []string, userCode string) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		var ackBy model.StringList
		if err := tx.Get(&ackBy, "SELECT ack_by FROM topics WHERE id = ?", id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return fmt.Errorf("failed to read readers of topic %s: %w", id, err)
		}
		if ackBy.Contains(userCode) {
			continue
		}
		ackBy = append(ackBy, userCode)
		if _, err := tx.Exec("UPDATE topics SET ack_by = ? WHERE id = ?", ackBy, id); err != nil {
			return fmt.Errorf("failed to acknowledge topic %s: %w", id, err)
		}
	}
	return tx.Commit()
}

const scheduleColumns = `id, date, shift, user_code, state, start_hhmm, end_hhmm, original_user, cover_user`

// GetScheduleMonth returns the entries of YYYY-MM sorted by date, shift and
// user.
func GetScheduleMonth(db sqlx.Queryer, year int, month time.Month) ([]model.ScheduleEntry, error) {
	var items []model.ScheduleEntry
	q := "SELECT " + scheduleColumns + " FROM schedule_entries WHERE date LIKE ? ORDER BY date, shift, user_code"
	if err := sqlx.Select(db, &items, q, fmt.Sprintf("%04d-%02d-%%", year, month)); err != nil {
		return nil, fmt.Errorf("failed to get schedule %04d-%02d: %w", year, month, err)
	}
	return items, nil
}

// SeedScheduleMonth inserts entries in one transaction unless the month
// already has entries. It reports whether anything was inserted.
func SeedScheduleMonth(db *sqlx.DB, year int, month time.Month, entries []model.ScheduleEntry) (bool, error) {
	tx, err := db.Beginx()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := GetScheduleMonth(tx, year, month)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}
	const q = `
		INSERT INTO schedule_entries (date, shift, user_code, state, start_hhmm, end_hhmm, original_user, cover_user)
		VALUES (:date, :shift, :user_code, :state, :start_hhmm, :end_hhmm, :original_user, :cover_user)`
	for _, e := range entries {
		if _, err := tx.NamedExec(q, e); err != nil {
			return false, fmt.Errorf("failed to seed %s %s: %w", e.Date, e.Shift, err)
		}
	}
	return true, tx.Commit()
}

func getScheduleCell(tx *sqlx.Tx, date, shift string) (*model.ScheduleEntry, error) {
	var e model.ScheduleEntry
	err := tx.Get(&e, "SELECT "+scheduleColumns+" FROM schedule_entries WHERE date = ? AND shift = ? ORDER BY id LIMIT 1", date, shift)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get schedule cell %s %s: %w", date, shift, err)
	}
	return &e, nil
}

func setAbsence(tx *sqlx.Tx, date, shift, originalUser string, approved bool) error {
	const q = `
		INSERT INTO absences (date, shift, original_user, approved) VALUES (?, ?, ?, ?)
		ON CONFLICT(date, shift, original_user) DO UPDATE SET approved = excluded.approved`
	if _, err := tx.Exec(q, date, shift, originalUser, approved); err != nil {
		return fmt.Errorf("failed to record absence %s %s: %w", date, shift, err)
	}
	return nil
}

// MarkAbsent empties the cell and records an unapproved absence of the
// planned operator. Unknown cells are ignored.
func MarkAbsent(db *sqlx.DB, date, shift string) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	cell, err := getScheduleCell(tx, date, shift)
	if err != nil || cell == nil {
		return err
	}
	if _, err := tx.Exec("UPDATE schedule_entries SET state = ?, user_code = '' WHERE id = ?", model.ScheduleWhiteEmpty, cell.ID); err != nil {
		return fmt.Errorf("failed to mark %s %s absent: %w", date, shift, err)
	}
	if err := setAbsence(tx, date, shift, cell.OriginalUser, false); err != nil {
		return err
	}
	return tx.Commit()
}

// FillCover puts coverUser in the cell, approves the absence and records
// the replacement. A missing cell is created empty first.
func FillCover(db *sqlx.DB, date, shift, coverUser string, now time.Time) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	cell, err := getScheduleCell(tx, date, shift)
	if err != nil {
		return err
	}
	if cell == nil {
		const ins = `INSERT INTO schedule_entries (date, shift, user_code, state, start_hhmm, end_hhmm) VALUES (?, ?, '', ?, '', '')`
		res, err := tx.Exec(ins, date, shift, model.ScheduleWhiteEmpty)
		if err != nil {
			return fmt.Errorf("failed to create schedule cell %s %s: %w", date, shift, err)
		}
		id, _ := res.LastInsertId()
		cell = &model.ScheduleEntry{ID: id, Date: date, Shift: shift}
	}
	const upd = `UPDATE schedule_entries SET state = ?, user_code = ?, cover_user = ? WHERE id = ?`
	if _, err := tx.Exec(upd, model.ScheduleWhiteCode, coverUser, coverUser, cell.ID); err != nil {
		return fmt.Errorf("failed to fill %s %s: %w", date, shift, err)
	}
	if err := setAbsence(tx, date, shift, cell.OriginalUser, true); err != nil {
		return err
	}
	const rep = `
		INSERT INTO replacements (date, shift, original_user, cover_user, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date, shift, original_user) DO UPDATE SET
			cover_user = excluded.cover_user, created_at = excluded.created_at`
	if _, err := tx.Exec("DELETE FROM replacements WHERE date = ? AND shift = ? AND original_user <> ?", date, shift, cell.OriginalUser); err != nil {
		return fmt.Errorf("failed to replace cover of %s %s: %w", date, shift, err)
	}
	if _, err := tx.Exec(rep, date, shift, cell.OriginalUser, coverUser, Stamp(now)); err != nil {
		return fmt.Errorf("failed to record replacement %s %s: %w", date, shift, err)
	}
	return tx.Commit()
}

// UndoReplacement empties the cell again, drops the replacement and puts the
// absence back to unapproved.
func UndoReplacement(db *sqlx.DB, date, shift string) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const upd = `UPDATE schedule_entries SET state = ?, user_code = '', cover_user = '' WHERE id = (
		SELECT id FROM schedule_entries WHERE date = ? AND shift = ? ORDER BY id LIMIT 1)`
	if _, err := tx.Exec(upd, model.ScheduleWhiteEmpty, date, shift); err != nil {
		return fmt.Errorf("failed to clear %s %s: %w", date, shift, err)
	}
	if _, err := tx.Exec("DELETE FROM replacements WHERE date = ? AND shift = ?", date, shift); err != nil {
		return fmt.Errorf("failed to drop replacement %s %s: %w", date, shift, err)
	}
	if _, err := tx.Exec("UPDATE absences SET approved = 0 WHERE date = ? AND shift = ?", date, shift); err != nil {
		return fmt.Errorf("failed to reopen absence %s %s: %w", date, shift, err)
	}
	return tx.Commit()
}

// GetAbsences returns every absence, latest date and shift first.
func GetAbsences(db *sqlx.DB) ([]model.Absence, error) {
	var items []model.Absence
	if err := db.Select(&items, "SELECT date, shift, original_user, approved FROM absences ORDER BY date DESC, shift DESC"); err != nil {
		return nil, fmt.Errorf("failed to get absences: %w", err)
	}
	return items, nil
}

// GetReplacements returns every replacement, latest date and shift first.
func GetReplacements(db *sqlx.DB) ([]model.Replacement, error) {
	var items []model.Replacement
	q := "SELECT date, shift, original_user, cover_user, created_at FROM replacements ORDER BY date DESC, shift DESC"
	if err := db.Select(&items, q); err != nil {
		return nil, fmt.Errorf("failed to get replacements: %w", err)
	}
	return items, nil
}
