package commands

import (
	"database/sql"

	"github.com/riftwatch/riftwatch/config"
	"github.com/riftwatch/riftwatch/db"
	"github.com/riftwatch/riftwatch/errors"
	"github.com/riftwatch/riftwatch/logger"
)

// openDatabase opens the configured SQLite database with migrations applied
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	database, err := db.OpenWithMigrations(cfg.Database.Path, logger.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", cfg.Database.Path)
	}
	return database, nil
}
