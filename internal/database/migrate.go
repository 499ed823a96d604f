package database

import (
	"context"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	"dashboard-sync-service/internal/logger"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// goose keeps its dialect and filesystem in package globals.
var migrateMu sync.Mutex

type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	logger.Log.Sugar().Infof(format, v...)
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	logger.Log.Sugar().Fatalf(format, v...)
}

func (d *Database) gooseDialect() (string, string) {
	switch d.Dialect {
	case MySQL:
		return "mysql", "migrations/mysql"
	case Postgres:
		return "postgres", "migrations/postgres"
	default:
		return "sqlite3", "migrations/sqlite3"
	}
}

// Migrate brings the schema up to date for the configured dialect.
func (d *Database) Migrate(ctx context.Context) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	dialect, dir := d.gooseDialect()
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect %s: %w", dialect, err)
	}
	if err := goose.UpContext(ctx, d.Raw(), dir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
