package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// PeekSequence formats the code the next NextSequenceInTx call on name would
// hand out, without claiming it.
func PeekSequence(db sqlx.Queryer, name, prefix string, padding int) (string, error) {
	var lastNo int
	err := sqlx.Get(db, &lastNo, "SELECT last_no FROM code_sequences WHERE name = ?", name)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to get sequence '%s': %w", name, err)
	}
	return formatSequence(prefix, padding, lastNo+1), nil
}

// NextSequenceInTx claims the next number of the named sequence. A sequence
// seen for the first time starts at 1.
func NextSequenceInTx(tx *sqlx.Tx, name, prefix string, padding int) (string, error) {
	if _, err := tx.Exec("INSERT OR IGNORE INTO code_sequences (name, last_no) VALUES (?, 0)", name); err != nil {
		return "", fmt.Errorf("failed to create sequence '%s': %w", name, err)
	}
	var lastNo int
	if err := tx.Get(&lastNo, "SELECT last_no FROM code_sequences WHERE name = ?", name); err != nil {
		return "", fmt.Errorf("failed to get sequence '%s': %w", name, err)
	}

	newNo := lastNo + 1
	if _, err := tx.Exec(`UPDATE code_sequences SET last_no = ? WHERE name = ?`, newNo, name); err != nil {
		return "", fmt.Errorf("failed to update sequence '%s': %w", name, err)
	}
	return formatSequence(prefix, padding, newNo), nil
}

// ClaimSequenceCodeInTx moves the sequence past a code that was handed out
// elsewhere, for example a code shown in a preview and saved later. Codes
// that do not carry prefix are ignored.
func ClaimSequenceCodeInTx(tx *sqlx.Tx, name, prefix, code string) error {
	if !strings.HasPrefix(code, prefix) {
		return nil
	}
	no, err := strconv.Atoi(strings.TrimPrefix(code, prefix))
	if err != nil {
		return nil
	}
	const q = `
		INSERT INTO code_sequences (name, last_no) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET last_no = MAX(last_no, excluded.last_no)`
	if _, err := tx.Exec(q, name, no); err != nil {
		return fmt.Errorf("failed to claim '%s' in sequence '%s': %w", code, name, err)
	}
	return nil
}

func formatSequence(prefix string, padding, no int) string {
	return fmt.Sprintf("%s%0*d", prefix, padding, no)
}
