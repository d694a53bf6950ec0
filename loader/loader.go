package loader

import (
	"fmt"

	"fewr/catalog"
	"fewr/database"
	"fewr/model"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// InitDatabase applies the schema and seeds the catalog master data.
func InitDatabase(db *sqlx.DB, cat *catalog.Catalog, logger *zap.Logger, bcryptCost int) error {
	logger.Info("applying database schema")
	if err := database.ApplySchema(db); err != nil {
		return err
	}
	if err := SyncCatalog(db, cat, logger, bcryptCost); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	logger.Info("database initialization complete")
	return nil
}

// SyncCatalog upserts the catalog users and chemical articles in one
// transaction. A PIN is only re-hashed when it no longer matches the stored
// hash.
func SyncCatalog(db *sqlx.DB, cat *catalog.Catalog, logger *zap.Logger, bcryptCost int) error {
	existing, err := database.GetAllUsers(db)
	if err != nil {
		return err
	}
	hashes := make(map[string]string, len(existing))
	for _, u := range existing {
		hashes[u.Code] = u.PasswordHash
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rehashed := 0
	for _, u := range cat.Users {
		hash := hashes[u.Code]
		if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(u.PIN)) != nil {
			b, err := bcrypt.GenerateFromPassword([]byte(u.PIN), bcryptCost)
			if err != nil {
				return fmt.Errorf("failed to hash pin of %s: %w", u.Code, err)
			}
			hash = string(b)
			rehashed++
		}
		if err := database.UpsertUserInTx(tx, model.User{Code: u.Code, Name: u.Name, PasswordHash: hash}); err != nil {
			return err
		}
	}

	for _, a := range cat.Chemicals {
		if err := database.UpsertChemicalArticleInTx(tx, a); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}
	logger.Info("catalog synchronized",
		zap.Int("users", len(cat.Users)),
		zap.Int("rehashed", rehashed),
		zap.Int("chemicals", len(cat.Chemicals)))
	return nil
}
