package config

import (
	"fmt"
	"strings"

	"github.com/ammar0144/catalog4go/pkg/cache"
	"github.com/ammar0144/catalog4go/pkg/db"
	"github.com/ammar0144/catalog4go/pkg/query"
	"github.com/ammar0144/catalog4go/pkg/redis"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CATALOG_SERVER_ADDR
const EnvPrefix = "CATALOG"

// Load reads configuration from defaults, an optional YAML file and the environment.
// Environment variables take precedence over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so environment overrides resolve without a file
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")
	v.SetDefault("server.read_header_timeout", "5s")
	v.SetDefault("server.shutdown_timeout", "10s")

	d := db.DefaultConfig()
	v.SetDefault("database.driver", db.DriverSQLite)
	v.SetDefault("database.path", "catalog.db")
	v.SetDefault("database.host", d.Host)
	v.SetDefault("database.port", d.Port)
	v.SetDefault("database.database", d.Database)
	v.SetDefault("database.username", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.max_open_conns", d.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", d.ConnMaxLifetime)
	v.SetDefault("database.conn_max_idle_time", d.ConnMaxIdleTime)
	v.SetDefault("database.collation", d.Collation)
	v.SetDefault("database.timezone", d.TimeZone)
	v.SetDefault("database.query_timeout", d.QueryTimeout)
	v.SetDefault("database.ssl.enabled", false)
	v.SetDefault("database.logging.level", d.Logging.Level)
	v.SetDefault("database.logging.slow_query_threshold", d.Logging.SlowQueryThreshold)

	r := redis.DefaultConfig()
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.key_prefix", r.KeyPrefix)
	v.SetDefault("redis.host", r.Host)
	v.SetDefault("redis.port", r.Port)
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", r.Database)
	v.SetDefault("redis.pool_size", r.PoolSize)
	v.SetDefault("redis.min_idle_conns", r.MinIdleConns)
	v.SetDefault("redis.max_conn_age", r.MaxConnAge)
	v.SetDefault("redis.pool_timeout", r.PoolTimeout)
	v.SetDefault("redis.idle_timeout", r.IdleTimeout)
	v.SetDefault("redis.dial_timeout", r.DialTimeout)
	v.SetDefault("redis.read_timeout", r.ReadTimeout)
	v.SetDefault("redis.write_timeout", r.WriteTimeout)
	v.SetDefault("redis.scan_batch_size", r.ScanBatchSize)

	c := cache.DefaultConfig()
	v.SetDefault("cache.backend", cache.BackendMemory)
	v.SetDefault("cache.entity_ttl", c.EntityTTL)
	v.SetDefault("cache.collection_ttl", c.CollectionTTL)
	v.SetDefault("cache.key_mode", c.KeyMode)
	v.SetDefault("cache.memory.capacity", c.Memory.Capacity)
	v.SetDefault("cache.memory.num_shards", c.Memory.NumShards)
	v.SetDefault("cache.memory.eviction_percentage", c.Memory.EvictionPercentage)

	v.SetDefault("query.default_limit", query.DefaultLimit)
	v.SetDefault("query.max_limit", query.MaxLimit)
}
