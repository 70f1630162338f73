package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ammar0144/catalog4go/pkg/cache"
	"github.com/ammar0144/catalog4go/pkg/db"
	"github.com/ammar0144/catalog4go/pkg/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalogd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, db.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "catalog.db", cfg.Database.Path)
	assert.Equal(t, 30*time.Second, cfg.Database.QueryTimeout)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, cache.BackendMemory, cfg.Cache.Backend)
	assert.Equal(t, cache.KeyModeFlat, cfg.Cache.KeyMode)
	assert.Equal(t, time.Hour, cfg.Cache.EntityTTL)
	assert.Equal(t, query.DefaultLimit, cfg.Query.DefaultLimit)
	assert.Equal(t, query.MaxLimit, cfg.Query.MaxLimit)
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
  log_format: text
database:
  driver: sqlite
  path: /var/lib/catalog/catalog.db
cache:
  key_mode: per_view
  collection_ttl: 5m
query:
  max_limit: 50
  operators: [eq, gte, lte]
`)
	t.Setenv("CATALOG_SERVER_ADDR", ":9100")
	t.Setenv("CATALOG_CACHE_ENTITY_TTL", "90s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Server.Addr, "environment wins over the file")
	assert.Equal(t, "text", cfg.Server.LogFormat)
	assert.Equal(t, "/var/lib/catalog/catalog.db", cfg.Database.Path)
	assert.Equal(t, cache.KeyModePerView, cfg.Cache.KeyMode)
	assert.Equal(t, 5*time.Minute, cfg.Cache.CollectionTTL)
	assert.Equal(t, 90*time.Second, cfg.Cache.EntityTTL)

	opts, err := cfg.Query.Options()
	require.NoError(t, err)
	assert.Equal(t, 50, opts.MaxLimit)
	assert.True(t, opts.AllowedOps.Allows(query.Gte))
	assert.False(t, opts.AllowedOps.Allows(query.In))
}

func TestLoadMySQLSection(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: mysql
  host: db.internal
  port: 3307
  username: catalog
  password: secret
  prepare_stmt: true
  ssl:
    enabled: true
    skip_verify: true
    server_name: db.internal
  logging:
    level: warn
    slow_query_threshold: 1s
cache:
  memory:
    capacity: 500
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	d := cfg.Database
	assert.Equal(t, "db.internal", d.Host)
	assert.Equal(t, 3307, d.Port)
	assert.True(t, d.PrepareStmt)
	assert.True(t, d.SSL.SkipVerify)
	assert.Equal(t, "db.internal", d.SSL.ServerName)
	assert.Equal(t, "warn", d.Logging.Level)
	assert.Equal(t, time.Second, d.Logging.SlowQueryThreshold)
	assert.Equal(t, 500, cfg.Cache.Memory.Capacity)

	dsn, err := d.GetDSN()
	require.NoError(t, err)
	assert.Contains(t, dsn, "catalog:secret@tcp(db.internal:3307)/catalog")
	assert.Contains(t, dsn, "tls=skip-verify")
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "unknown log level",
			body: "server:\n  log_level: loud\n",
		},
		{
			name: "sqlite without path",
			body: "database:\n  driver: sqlite\n  path: \"\"\n",
		},
		{
			name: "redis backend while redis disabled",
			body: "cache:\n  backend: redis\n",
		},
		{
			name: "unknown key mode",
			body: "cache:\n  key_mode: sharded\n",
		},
		{
			name: "max limit below default",
			body: "query:\n  default_limit: 30\n  max_limit: 10\n",
		},
		{
			name: "unknown operator",
			body: "query:\n  operators: [eq, like]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
