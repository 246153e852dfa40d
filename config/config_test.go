package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "elca-cache", cfg.AppName)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "db/pg", cfg.DatabaseMigrationFolderPath)
	assert.Equal(t, 2*time.Minute, cfg.RefreshLockTTL)
	assert.False(t, cfg.RedisEnabled())
	assert.Empty(t, cfg.Brokers())
}

func TestLoadFromEnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(file, []byte("ELCA_TEST_UNUSED=1\nKAFKA_BROKERS=a:9092, b:9092\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("KAFKA_BROKERS") })

	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("DB_NAME", "elca_test")

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Brokers())
	assert.True(t, cfg.RedisEnabled())
	assert.Contains(t, cfg.DatabaseDSN(), "dbname=elca_test")
}
