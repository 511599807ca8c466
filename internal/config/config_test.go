package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_AppliesDefaults(t *testing.T) {
	p := writeFile(t, "goaltrack.yml", `
store:
  driver: sqlite
  data_dir: /var/lib/goaltrack
  retry_backoff: 250ms
clock:
  timezone: Europe/Berlin
log:
  development: true
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, filepath.Join("/var/lib/goaltrack", "goaltrack.db"), cfg.Store.SQLitePath)
	assert.Equal(t, 3, cfg.Store.WriteRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Store.RetryBackoff)
	assert.Equal(t, 30*time.Second, cfg.Clock.PollInterval)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.True(t, os.IsNotExist(err))

	p := writeFile(t, "bad.yml", "store: [unterminated")
	_, err = Load(p)
	assert.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, DriverFile, cfg.Store.Driver)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("GOALTRACK_STORE_DRIVER", "memory")
	t.Setenv("GOALTRACK_WRITE_RETRIES", "5")
	t.Setenv("GOALTRACK_RETRY_BACKOFF", "1s")
	t.Setenv("GOALTRACK_POLL_INTERVAL", "not-a-duration")
	t.Setenv("GOALTRACK_LOG_DEVELOPMENT", "true")
	t.Setenv("GOALTRACK_HTTP_ADDR", "127.0.0.1:9000")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 5, cfg.Store.WriteRetries)
	assert.Equal(t, time.Second, cfg.Store.RetryBackoff)
	assert.Equal(t, 30*time.Second, cfg.Clock.PollInterval)
	assert.True(t, cfg.Log.Development)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
}

func TestFromEnv_ConfigPathOverride(t *testing.T) {
	p := writeFile(t, "alt.yml", "http:\n  addr: \":7000\"\n")
	t.Setenv("GOALTRACK_CONFIG", p)

	cfg, err := FromEnv("ignored.yml")
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTP.Addr)
}

func TestLoadEnvFile(t *testing.T) {
	require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")))

	p := writeFile(t, ".env", "GOALTRACK_TEST_ONLY_KEY=from-file\n")
	t.Cleanup(func() { os.Unsetenv("GOALTRACK_TEST_ONLY_KEY") })
	require.NoError(t, LoadEnvFile(p))
	assert.Equal(t, "from-file", os.Getenv("GOALTRACK_TEST_ONLY_KEY"))
}

func TestClockLocation(t *testing.T) {
	loc, err := Clock{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = Clock{Timezone: "UTC"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	_, err = Clock{Timezone: "Mars/Olympus"}.Location()
	assert.Error(t, err)
}
