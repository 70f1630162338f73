// Package config loads and validates catalogd configuration.
package config

import (
	"fmt"
	"time"

	"github.com/ammar0144/catalog4go/pkg/cache"
	"github.com/ammar0144/catalog4go/pkg/db"
	"github.com/ammar0144/catalog4go/pkg/query"
	"github.com/ammar0144/catalog4go/pkg/redis"

	"github.com/go-playground/validator/v10"
)

// Config holds all application configuration, grouped by concern
type Config struct {
	Server   ServerConfig `mapstructure:"server"`
	Database db.Config    `mapstructure:"database"`
	Redis    redis.Config `mapstructure:"redis"`
	Cache    cache.Config `mapstructure:"cache"`
	Query    QueryConfig  `mapstructure:"query"`
}

// ServerConfig contains the HTTP server and logging settings
type ServerConfig struct {
	Addr              string        `mapstructure:"addr" validate:"required"`
	LogLevel          string        `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat         string        `mapstructure:"log_format" validate:"omitempty,oneof=json text"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" validate:"gte=0"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// QueryConfig bounds list requests
type QueryConfig struct {
	DefaultLimit int `mapstructure:"default_limit" validate:"gte=1"`
	MaxLimit     int `mapstructure:"max_limit" validate:"gtefield=DefaultLimit"`

	// Operators is the allow-list of filter operators; empty allows all of them
	Operators []string `mapstructure:"operators"`
}

// Options converts the section into translator options
func (q QueryConfig) Options() (query.Options, error) {
	opts := query.Options{
		DefaultLimit: q.DefaultLimit,
		MaxLimit:     q.MaxLimit,
	}
	if len(q.Operators) == 0 {
		return opts, nil
	}

	ops := make([]query.Operator, 0, len(q.Operators))
	for _, token := range q.Operators {
		op, ok := query.ParseOperator(token)
		if !ok {
			return query.Options{}, fmt.Errorf("unknown query operator %q", token)
		}
		ops = append(ops, op)
	}
	opts.AllowedOps = query.NewOperatorSet(ops...)
	return opts, nil
}

// Validate checks struct tags and then each section's own rules
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("invalid database config: %w", err)
	}
	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("invalid redis config: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("invalid cache config: %w", err)
	}
	if c.Cache.Backend == cache.BackendRedis && !c.Redis.Enabled {
		return fmt.Errorf("invalid cache config: backend %q requires redis.enabled", c.Cache.Backend)
	}
	if _, err := c.Query.Options(); err != nil {
		return fmt.Errorf("invalid query config: %w", err)
	}
	return nil
}
