package db

import (
	"context"
	"fmt"

	"log/slog"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// startupPragmas are applied to every connection we open. A pragma that
// fails is logged and skipped; none of them are required for correctness.
var startupPragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA temp_store=MEMORY",
}

// Open connects to the SQLite database at path. Both the client session
// store and the dev server open their databases through here.
func Open(path string, logger *slog.Logger) (*gorm.DB, error) {
	gormDB, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: newGormLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx := context.Background()
	for _, pragma := range startupPragmas {
		if err := gormDB.WithContext(ctx).Exec(pragma).Error; err != nil {
			logger.Warn("pragma failed", slog.String("pragma", pragma), slog.Any("error", err))
		}
	}

	return gormDB, nil
}
