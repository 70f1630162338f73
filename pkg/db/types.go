package db

import (
	"database/sql"
	"time"

	"gorm.io/gorm"
)

// Supported database drivers
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config selects and tunes the catalog database. Keys are decoded by viper
// under the "database" section.
type Config struct {
	Driver string `mapstructure:"driver"` // mysql when empty
	Path   string `mapstructure:"path"`   // sqlite file

	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Database  string `mapstructure:"database"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	Collation string `mapstructure:"collation"`
	TimeZone  string `mapstructure:"timezone"` // DSN loc, UTC when empty or unknown

	SSL SSLConfig `mapstructure:"ssl"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`

	SkipDefaultTransaction bool `mapstructure:"skip_default_transaction"`
	PrepareStmt            bool `mapstructure:"prepare_stmt"`

	// QueryTimeout bounds every repository call; zero disables it
	QueryTimeout time.Duration `mapstructure:"query_timeout"`

	Logging LoggingConfig `mapstructure:"logging"`
}

// SSLConfig enables TLS to mysql. SkipVerify wins over the certificate files.
type SSLConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	SkipVerify bool   `mapstructure:"skip_verify"`
	CAFile     string `mapstructure:"ca_file"`
	CertFile   string `mapstructure:"cert_file"`
	KeyFile    string `mapstructure:"key_file"`
	ServerName string `mapstructure:"server_name"`
}

// LoggingConfig controls the GORM query log
type LoggingConfig struct {
	Level              string        `mapstructure:"level"` // silent, error, warn or info
	SlowQueryThreshold time.Duration `mapstructure:"slow_query_threshold"`
}

// Manager owns the GORM handle and its connection pool
type Manager struct {
	config *Config
	db     *gorm.DB
	sqlDB  *sql.DB
}
