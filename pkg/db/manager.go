package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

// NewSQLiteManager opens a SQLite file with otherwise default settings
func NewSQLiteManager(path string) (*Manager, error) {
	config := DefaultConfig()
	config.Driver = DriverSQLite
	config.Path = path
	return NewManager(config)
}

// NewManager validates config, opens the database and sizes the pool
func NewManager(config *Config) (*Manager, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dialector, err := newDialector(config)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: config.SkipDefaultTransaction,
		PrepareStmt:            config.PrepareStmt,
		TranslateError:         true,
		Logger:                 newGormLogger(slog.Default(), config.Logging),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	configurePool(sqlDB, config)

	return &Manager{config: config, db: gdb, sqlDB: sqlDB}, nil
}

func newDialector(config *Config) (gorm.Dialector, error) {
	if config.driver() == DriverSQLite {
		// modernc.org/sqlite registers itself as "sqlite" and needs no cgo
		return sqlite.Dialector{DriverName: "sqlite", DSN: config.Path}, nil
	}

	dsn, err := config.GetDSN()
	if err != nil {
		return nil, fmt.Errorf("failed to build dsn: %w", err)
	}
	return mysql.Open(dsn), nil
}

func configurePool(sqlDB *sql.DB, config *Config) {
	maxOpen, maxIdle := config.MaxOpenConns, config.MaxIdleConns
	if config.driver() == DriverSQLite {
		// sqlite serializes writers; one connection avoids SQLITE_BUSY
		maxOpen, maxIdle = 1, 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(config.ConnMaxIdleTime)
}

// DB returns the GORM handle for building stores
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Driver returns the configured driver name
func (m *Manager) Driver() string {
	return m.config.driver()
}

// Ping checks that the database is reachable
func (m *Manager) Ping(ctx context.Context) error {
	if err := m.sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Stats returns connection pool statistics
func (m *Manager) Stats() sql.DBStats {
	return m.sqlDB.Stats()
}

// Close closes the connection pool
func (m *Manager) Close() error {
	if m.sqlDB == nil {
		return nil
	}
	return m.sqlDB.Close()
}
