package db

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-sql-driver/mysql"
)

// DefaultConfig returns a MySQL configuration with sensible pool and timeout defaults
func DefaultConfig() *Config {
	return &Config{
		Driver:          DriverMySQL,
		Host:            "localhost",
		Port:            3306,
		Database:        "catalog",
		Collation:       "utf8mb4_unicode_ci",
		TimeZone:        "UTC",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
		QueryTimeout:    30 * time.Second,
		Logging: LoggingConfig{
			Level:              "error",
			SlowQueryThreshold: 200 * time.Millisecond,
		},
	}
}

// Validate reports every problem with the configuration at once
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...interface{}) { errs = append(errs, fmt.Errorf(format, args...)) }

	switch c.driver() {
	case DriverSQLite:
		if c.Path == "" {
			fail("database path is required for the sqlite driver")
		}
	case DriverMySQL:
		if c.Host == "" {
			fail("database host is required")
		}
		if c.Port < 1 || c.Port > 65535 {
			fail("database port must be between 1 and 65535, got %d", c.Port)
		}
		if c.Database == "" {
			fail("database name is required")
		}
		if c.Username == "" {
			fail("database username is required")
		}
		if c.SSL.Enabled && !c.SSL.SkipVerify {
			if err := c.SSL.checkFiles(); err != nil {
				fail("TLS configuration error: %w", err)
			}
		}
	default:
		fail("unsupported database driver %q", c.Driver)
	}

	if c.MaxOpenConns < 1 {
		fail("max_open_conns must be at least 1")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		fail("max_idle_conns (%d) exceeds max_open_conns (%d)", c.MaxIdleConns, c.MaxOpenConns)
	}
	if c.QueryTimeout < 0 {
		fail("query_timeout cannot be negative")
	}
	return errors.Join(errs...)
}

func (c *Config) driver() string {
	if c.Driver == "" {
		return DriverMySQL
	}
	return c.Driver
}

// checkFiles stats every configured file; cert and key come as a pair
func (s SSLConfig) checkFiles() error {
	if (s.CertFile == "") != (s.KeyFile == "") {
		return fmt.Errorf("both CertFile and KeyFile must be provided together")
	}
	files := []struct{ label, path string }{
		{"CA file", s.CAFile},
		{"client certificate file", s.CertFile},
		{"client key file", s.KeyFile},
	}
	for _, f := range files {
		if f.path == "" {
			continue
		}
		if _, err := os.Stat(f.path); err != nil {
			return fmt.Errorf("%s not accessible: %w", f.label, err)
		}
	}
	return nil
}

// GetDSN builds a MySQL DSN with the driver's own config type
func (c *Config) GetDSN() (string, error) {
	dsn := mysql.NewConfig()
	dsn.User = c.Username
	dsn.Passwd = c.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	dsn.DBName = c.Database
	dsn.Collation = c.Collation
	dsn.Loc = parseLocation(c.TimeZone)
	dsn.ParseTime = true

	switch {
	case !c.SSL.Enabled:
	case c.SSL.SkipVerify:
		dsn.TLSConfig = "skip-verify"
	default:
		name, err := c.SSL.register()
		if err != nil {
			return "", err
		}
		dsn.TLSConfig = name
	}
	return dsn.FormatDSN(), nil
}

// register loads the certificates and registers them with the MySQL driver
// under a name derived from the file paths, so equal settings share one entry
func (s SSLConfig) register() (string, error) {
	cfg := &tls.Config{ServerName: s.ServerName}

	if s.CAFile != "" {
		pem, err := os.ReadFile(s.CAFile)
		if err != nil {
			return "", fmt.Errorf("failed to read CA file: %w", err)
		}
		cfg.RootCAs = x509.NewCertPool()
		if !cfg.RootCAs.AppendCertsFromPEM(pem) {
			return "", fmt.Errorf("invalid CA certificate in %s", s.CAFile)
		}
	}
	if s.CertFile != "" && s.KeyFile != "" {
		pair, err := tls.LoadX509KeyPair(s.CertFile, s.KeyFile)
		if err != nil {
			return "", fmt.Errorf("failed to load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{pair}
	}

	name := fmt.Sprintf("catalog4go_%016x",
		xxhash.Sum64String(strings.Join([]string{s.CAFile, s.CertFile, s.KeyFile, s.ServerName}, "\x00")))
	if err := mysql.RegisterTLSConfig(name, cfg); err != nil {
		return "", fmt.Errorf("failed to register TLS config: %w", err)
	}
	return name, nil
}

// parseLocation falls back to UTC for empty or unknown zones
func parseLocation(tz string) *time.Location {
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}
