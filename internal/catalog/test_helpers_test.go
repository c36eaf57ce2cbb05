package catalog

import (
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/logger"
)

// openTestDB builds an in-memory database with the catalog schema. The
// tables are created by hand because the postgres defaults in the models
// (gen_random_uuid, text[]) do not exist in sqlite; tests set IDs
// explicitly.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	silent := gormlogger.New(log.New(io.Discard, "", log.LstdFlags), gormlogger.Config{LogLevel: gormlogger.Silent})
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         silent,
		TranslateError: true,
	})
	require.NoError(t, err)

	for _, stmt := range []string{
		`CREATE TABLE products (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			brand TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			price NUMERIC NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 0,
			sold INTEGER NOT NULL DEFAULT 0,
			colors TEXT,
			total_rating INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE sale_products (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			brand TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			price NUMERIC NOT NULL,
			sale_price NUMERIC NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 0,
			sold INTEGER NOT NULL DEFAULT 0,
			colors TEXT,
			total_rating NUMERIC NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE ratings (
			id TEXT PRIMARY KEY,
			target_type TEXT NOT NULL,
			target_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			star INTEGER NOT NULL,
			comment TEXT,
			created_at DATETIME,
			updated_at DATETIME,
			UNIQUE (target_type, target_id, user_id)
		)`,
	} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard})
}
