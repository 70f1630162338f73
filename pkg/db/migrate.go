package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// gooseLogger forwards goose output to slog
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	slog.Debug(fmt.Sprintf(format, v...), "component", "migrate")
}

// Fatalf logs without exiting; the error is returned by Migrate instead
func (gooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error(fmt.Sprintf(format, v...), "component", "migrate")
}

// Migrate applies the embedded schema migrations
func (m *Manager) Migrate(ctx context.Context) error {
	sqlDB, err := m.gooseDB()
	if err != nil {
		return err
	}
	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// MigrationVersion reports the currently applied migration version
func (m *Manager) MigrationVersion(ctx context.Context) (int64, error) {
	sqlDB, err := m.gooseDB()
	if err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, sqlDB)
}

// gooseDB configures goose for the manager's driver
func (m *Manager) gooseDB() (*sql.DB, error) {
	dialect := "mysql"
	if m.Driver() == DriverSQLite {
		dialect = "sqlite3"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return nil, err
	}
	goose.SetLogger(gooseLogger{})
	goose.SetBaseFS(migrationsFS)
	return m.sqlDB, nil
}
