package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Nieuwkoop.Timeout)
	assert.Equal(t, 100, cfg.Sync.BatchSize)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 100, cfg.Catalog.MaxPageSize)
	assert.Equal(t, 2.5, cfg.Pricing.MarkupFactor)
	assert.Equal(t, "stock_items", cfg.Nieuwkoop.VisibilityPolicy)
}

func TestLoadConfig_VisibilityPolicy(t *testing.T) {
	t.Setenv("BLOOM_NIEUWKOOP_VISIBILITY_POLICY", "webshop")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "webshop", cfg.Nieuwkoop.VisibilityPolicy)

	t.Setenv("BLOOM_NIEUWKOOP_VISIBILITY_POLICY", "everything")
	_, err = LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfig_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
nieuwkoop:
  username: bloom
  password: from-file
  timeout: 10s
sync:
  batch_size: 25
  pause_between_batches: 250ms
postgres:
  host: db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("BLOOM_NIEUWKOOP_PASSWORD", "from-env")
	t.Setenv("BLOOM_CACHE_TTL", "1m")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "bloom", cfg.Nieuwkoop.Username)
	assert.Equal(t, "from-env", cfg.Nieuwkoop.Password)
	assert.Equal(t, 10*time.Second, cfg.Nieuwkoop.Timeout)
	assert.Equal(t, 25, cfg.Sync.BatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Sync.PauseBetweenBatches)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "db", cfg.Postgres.Host)
	assert.Equal(t, "5432", cfg.Postgres.Port)
}

func TestLoadConfig_InvalidBatchSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sync:\n  batch_size: 0\n"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestPostgresConfig_GetConnectionString(t *testing.T) {
	pc := PostgresConfig{Host: "h", Port: "1", User: "u", Password: "p", DBName: "d"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=d sslmode=disable", pc.GetConnectionString())
}
