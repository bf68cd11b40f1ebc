package database

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/redmonkez12/bookings-api/internal/database/migrations"
)

// Migrate applies all pending migrations. It uses a goose Provider rather
// than goose's package-level state so several databases can migrate
// concurrently.
func Migrate(ctx context.Context, db *bun.DB) (int, error) {
	var gooseDialect goose.Dialect
	switch db.Dialect().Name() {
	case dialect.PG:
		gooseDialect = goose.DialectPostgres
	case dialect.SQLite:
		gooseDialect = goose.DialectSQLite3
	default:
		return 0, fmt.Errorf("no migration dialect for %s", db.Dialect().Name())
	}

	provider, err := goose.NewProvider(gooseDialect, db.DB, migrations.FS)
	if err != nil {
		return 0, fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return len(results), nil
}
