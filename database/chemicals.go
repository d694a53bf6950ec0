package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fewr/model"

	"github.com/jmoiron/sqlx"
)

// UpsertChemicalArticleInTx registers a catalog article. An alert value
// already changed on the stock page is kept.
func UpsertChemicalArticleInTx(tx *sqlx.Tx, a model.ChemicalArticle) error {
	const q = `
		INSERT INTO chemical_articles (id, name, stock_alert_value)
		VALUES (:id, :name, :stock_alert_value)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`
	if _, err := tx.NamedExec(q, a); err != nil {
		return fmt.Errorf("UpsertChemicalArticleInTx (ID: %s) failed: %w", a.ID, err)
	}
	return nil
}

func GetChemicalArticles(db *sqlx.DB) ([]model.ChemicalArticle, error) {
	var items []model.ChemicalArticle
	if err := db.Select(&items, "SELECT id, name, stock_alert_value FROM chemical_articles ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to get chemical articles: %w", err)
	}
	return items, nil
}

// SetStockAlert reports whether the article exists.
func SetStockAlert(db *sqlx.DB, articleID string, value int) (bool, error) {
	res, err := db.Exec("UPDATE chemical_articles SET stock_alert_value = ? WHERE id = ?", value, articleID)
	if err != nil {
		return false, fmt.Errorf("SetStockAlert (ID: %s) failed: %w", articleID, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func AddInboundLine(db *sqlx.DB, l model.InboundLine) error {
	const q = `INSERT INTO chemical_inbound_lines (session_id, article_id, lot_number, quantity) VALUES (:session_id, :article_id, :lot_number, :quantity)`
	if _, err := db.NamedExec(q, l); err != nil {
		return fmt.Errorf("AddInboundLine failed: %w", err)
	}
	return nil
}

func GetInboundLines(db sqlx.Queryer, sessionID string) ([]model.InboundLine, error) {
	var items []model.InboundLine
	q := "SELECT id, session_id, article_id, lot_number, quantity FROM chemical_inbound_lines WHERE session_id = ? ORDER BY id"
	if err := sqlx.Select(db, &items, q, sessionID); err != nil {
		return nil, fmt.Errorf("failed to get inbound lines: %w", err)
	}
	return items, nil
}

// CommitInbound moves the session's basket into lot stock and empties it.
// Lines without article or lot, or with a quantity below 1, are skipped.
// It returns the number of lines booked.
func CommitInbound(db *sqlx.DB, sessionID string) (int, error) {
	tx, err := db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	lines, err := GetInboundLines(tx, sessionID)
	if err != nil {
		return 0, err
	}
	booked := 0
	for _, l := range lines {
		if l.ArticleID == "" || l.LotNumber == "" || l.Quantity <= 0 {
			continue
		}
		const q = `
			INSERT INTO chemical_lots (article_id, lot_number, available_quantity) VALUES (?, ?, ?)
			ON CONFLICT(article_id, lot_number) DO UPDATE SET
				available_quantity = available_quantity + excluded.available_quantity`
		if _, err := tx.Exec(q, l.ArticleID, l.LotNumber, l.Quantity); err != nil {
			return 0, fmt.Errorf("failed to book lot %s/%s: %w", l.ArticleID, l.LotNumber, err)
		}
		booked++
	}
	if _, err := tx.Exec("DELETE FROM chemical_inbound_lines WHERE session_id = ?", sessionID); err != nil {
		return 0, fmt.Errorf("failed to clear inbound lines: %w", err)
	}
	return booked, tx.Commit()
}

func ClearInboundLines(db *sqlx.DB, sessionID string) error {
	if _, err := db.Exec("DELETE FROM chemical_inbound_lines WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("ClearInboundLines failed: %w", err)
	}
	return nil
}

// GetChemicalLots returns every lot sorted by article then lot number.
func GetChemicalLots(db *sqlx.DB) ([]model.ChemicalLot, error) {
	var items []model.ChemicalLot
	q := "SELECT article_id, lot_number, available_quantity FROM chemical_lots ORDER BY article_id, lot_number"
	if err := db.Select(&items, q); err != nil {
		return nil, fmt.Errorf("failed to get chemical lots: %w", err)
	}
	return items, nil
}

// ErrLotUnavailable is returned by SwitchLot when the lot does not exist or
// has nothing left.
var ErrLotUnavailable = errors.New("lot not available")

// SwitchLot closes the article's active usage block, opens a new one on the
// lot and takes one unit out of the lot.
func SwitchLot(db *sqlx.DB, articleID, lotNumber string, now time.Time) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var qty int
	err = tx.Get(&qty, "SELECT available_quantity FROM chemical_lots WHERE article_id = ? AND lot_number = ?", articleID, lotNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrLotUnavailable
		}
		return fmt.Errorf("failed to get lot %s/%s: %w", articleID, lotNumber, err)
	}
	if qty <= 0 {
		return ErrLotUnavailable
	}

	now = Stamp(now)
	if _, err := tx.Exec("UPDATE chemical_usage SET end_date = ? WHERE article_id = ? AND end_date IS NULL", now, articleID); err != nil {
		return fmt.Errorf("failed to close usage of %s: %w", articleID, err)
	}
	if _, err := tx.Exec("INSERT INTO chemical_usage (article_id, lot_number, start_date) VALUES (?, ?, ?)", articleID, lotNumber, now); err != nil {
		return fmt.Errorf("failed to open usage of %s: %w", articleID, err)
	}
	if _, err := tx.Exec("UPDATE chemical_lots SET available_quantity = available_quantity - 1 WHERE article_id = ? AND lot_number = ?", articleID, lotNumber); err != nil {
		return fmt.Errorf("failed to decrement lot %s/%s: %w", articleID, lotNumber, err)
	}
	return tx.Commit()
}

// GetChemicalUsage returns the usage blocks with article names, newest start
// first.
func GetChemicalUsage(db *sqlx.DB) ([]model.ChemicalUsage, error) {
	var items []model.ChemicalUsage
	const q = `
		SELECT u.id, u.article_id, COALESCE(a.name, u.article_id) AS article_name, u.lot_number, u.start_date, u.end_date
		FROM chemical_usage u LEFT JOIN chemical_articles a ON a.id = u.article_id
		ORDER BY u.start_date DESC, u.id DESC`
	if err := db.Select(&items, q); err != nil {
		return nil, fmt.Errorf("failed to get chemical usage: %w", err)
	}
	return items, nil
}
