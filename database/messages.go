package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fewr/model"

	"github.com/jmoiron/sqlx"
)

const messageColumns = `id, user_code, time_hhmm, day, label, message, info_labels, software, calc, push,
	wms, chemswitch, qc, maintenance, chemib, bulkob, delta_min, attachments, must_read, archived, created_at`

func InsertMessage(db sqlx.Ext, m model.Message) error {
	m.CreatedAt = Stamp(m.CreatedAt)
	const q = `
		INSERT INTO messages (` + messageColumns + `)
		VALUES (:id, :user_code, :time_hhmm, :day, :label, :message, :info_labels, :software, :calc, :push,
			:wms, :chemswitch, :qc, :maintenance, :chemib, :bulkob, :delta_min, :attachments, :must_read, :archived, :created_at)`
	if _, err := sqlx.NamedExec(db, q, m); err != nil {
		return fmt.Errorf("InsertMessage (ID: %s) failed: %w", m.ID, err)
	}
	return nil
}

func selectMessages(db sqlx.Queryer, where string, args ...any) ([]model.Message, error) {
	return selectMessagesLimit(db, 0, where, args...)
}

// selectMessagesLimit returns at most limit rows, all of them when limit is 0.
func selectMessagesLimit(db sqlx.Queryer, limit int, where string, args ...any) ([]model.Message, error) {
	var items []model.Message
	q := "SELECT " + messageColumns + " FROM messages " + where + " ORDER BY created_at DESC, rowid DESC"
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	if err := sqlx.Select(db, &items, q, args...); err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	return items, nil
}

// GetMessages returns the log, newest first.
func GetMessages(db *sqlx.DB) ([]model.Message, error) {
	return selectMessages(db, "")
}

func GetMustReadMessages(db *sqlx.DB) ([]model.Message, error) {
	return selectMessages(db, "WHERE must_read = 1")
}

func GetArchivedMessages(db *sqlx.DB) ([]model.Message, error) {
	return selectMessages(db, "WHERE archived = 1")
}

// GetMessagesCreatedBetween returns the messages written in [from, to],
// newest first.
func GetMessagesCreatedBetween(db *sqlx.DB, from, to time.Time) ([]model.Message, error) {
	return selectMessages(db, "WHERE created_at >= ? AND created_at <= ?", Stamp(from), Stamp(to))
}

// GetMessagesByInfoLabel filters on one info label; an empty label returns
// every message.
func GetMessagesByInfoLabel(db *sqlx.DB, label string) ([]model.Message, error) {
	if label == "" {
		return GetMessages(db)
	}
	return selectMessages(db, "WHERE EXISTS (SELECT 1 FROM json_each(messages.info_labels) WHERE json_each.value = ?)", label)
}

func GetMessageByID(db *sqlx.DB, id string) (*model.Message, error) {
	var m model.Message
	err := db.Get(&m, "SELECT "+messageColumns+" FROM messages WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return &m, nil
}

// GetLatestStopMessage returns the most recent STOP marker, or nil.
func GetLatestStopMessage(db sqlx.Queryer) (*model.Message, error) {
	items, err := selectMessagesLimit(db, 1, "WHERE calc = ?", model.CalcStop)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// DeleteMessageEverywhere removes the message from the log, the must-read
// list, the archive and every notebook.
func DeleteMessageEverywhere(db *sqlx.DB, id string) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete message %s: %w", id, err)
	}
	if _, err := tx.Exec("DELETE FROM notebook_entries WHERE id = ? OR from_id = ?", id, id); err != nil {
		return fmt.Errorf("failed to delete notebook copies of %s: %w", id, err)
	}
	return tx.Commit()
}

// AcknowledgeMustRead drops the ids from the must-read list. The messages
// stay in the log and the archive.
func AcknowledgeMustRead(db *sqlx.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In("UPDATE messages SET must_read = 0 WHERE id IN (?)", ids)
	if err != nil {
		return fmt.Errorf("failed to build acknowledge query: %w", err)
	}
	if _, err := db.Exec(db.Rebind(q), args...); err != nil {
		return fmt.Errorf("AcknowledgeMustRead failed: %w", err)
	}
	return nil
}

const notebookColumns = `user_code, id, from_id, author, message, time_hhmm, info_labels, software, calc, push,
	wms, chemswitch, qc, maintenance, chemib, bulkob, topic_type, attachments, created_at, saved_at`

// SaveNotebookEntry stores the entry in the user's notebook. Saving the same
// id twice keeps the first copy.
func SaveNotebookEntry(db sqlx.Ext, e model.NotebookEntry) error {
	e.SavedAt = Stamp(e.SavedAt)
	if e.CreatedAt != nil {
		t := Stamp(*e.CreatedAt)
		e.CreatedAt = &t
	}
	const q = `
		INSERT INTO notebook_entries (` + notebookColumns + `)
		VALUES (:user_code, :id, :from_id, :author, :message, :time_hhmm, :info_labels, :software, :calc, :push,
			:wms, :chemswitch, :qc, :maintenance, :chemib, :bulkob, :topic_type, :attachments, :created_at, :saved_at)
		ON CONFLICT(user_code, id) DO NOTHING`
	if _, err := sqlx.NamedExec(db, q, e); err != nil {
		return fmt.Errorf("SaveNotebookEntry (User: %s, ID: %s) failed: %w", e.UserCode, e.ID, err)
	}
	return nil
}

func GetNotebook(db *sqlx.DB, userCode string) ([]model.NotebookEntry, error) {
	var items []model.NotebookEntry
	q := "SELECT " + notebookColumns + " FROM notebook_entries WHERE user_code = ? ORDER BY saved_at DESC, rowid DESC"
	if err := db.Select(&items, q, userCode); err != nil {
		return nil, fmt.Errorf("failed to get notebook of %s: %w", userCode, err)
	}
	return items, nil
}

// GetNotebookSourceIDs returns the ids of the messages and topics already in
// the user's notebook.
func GetNotebookSourceIDs(db *sqlx.DB, userCode string) (map[string]bool, error) {
	var ids []string
	q := "SELECT CASE WHEN from_id <> '' THEN from_id ELSE id END FROM notebook_entries WHERE user_code = ?"
	if err := db.Select(&ids, q, userCode); err != nil {
		return nil, fmt.Errorf("failed to get notebook ids of %s: %w", userCode, err)
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// RemoveNotebookEntry deletes the entry matching id either as its own id or
// as the source it was copied from.
func RemoveNotebookEntry(db *sqlx.DB, userCode, id string) error {
	_, err := db.Exec("DELETE FROM notebook_entries WHERE user_code = ? AND (id = ? OR from_id = ?)", userCode, id, id)
	if err != nil {
		return fmt.Errorf("RemoveNotebookEntry failed: %w", err)
	}
	return nil
}

func InsertTodo(db sqlx.Ext, t model.Todo) error {
	t.CreatedAt = Stamp(t.CreatedAt)
	const q = `INSERT INTO todos (id, user_code, label, link, created_at) VALUES (:id, :user_code, :label, :link, :created_at)`
	if _, err := sqlx.NamedExec(db, q, t); err != nil {
		return fmt.Errorf("InsertTodo (ID: %s) failed: %w", t.ID, err)
	}
	return nil
}

func GetTodos(db *sqlx.DB) ([]model.Todo, error) {
	var items []model.Todo
	if err := db.Select(&items, "SELECT id, user_code, label, link, created_at FROM todos ORDER BY created_at DESC, rowid DESC"); err != nil {
		return nil, fmt.Errorf("failed to get todos: %w", err)
	}
	return items, nil
}

// DeleteTodo reports whether a todo was removed.
func DeleteTodo(db *sqlx.DB, id string) (bool, error) {
	res, err := db.Exec("DELETE FROM todos WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("DeleteTodo failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
