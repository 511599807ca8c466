package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "GOALTRACK_"

// LoadEnvFile loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv overrides c with GOALTRACK_* environment variables.
// Unset or unparsable values leave the field alone.
func (c *Config) ApplyEnv() {
	if v := getEnv("STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := getEnv("DATA_DIR"); v != "" {
		c.Store.DataDir = v
	}
	if v := getEnv("SQLITE_PATH"); v != "" {
		c.Store.SQLitePath = v
	}
	if val := getEnvInt("WRITE_RETRIES"); val > 0 {
		c.Store.WriteRetries = val
	}
	if val := getEnvDuration("RETRY_BACKOFF"); val > 0 {
		c.Store.RetryBackoff = val
	}
	if v := getEnv("TIMEZONE"); v != "" {
		c.Clock.Timezone = v
	}
	if val := getEnvDuration("POLL_INTERVAL"); val > 0 {
		c.Clock.PollInterval = val
	}
	if v := getEnv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getEnv("LOG_DEVELOPMENT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Log.Development = b
		}
	}
	if v := getEnv("HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
}

// FromEnv loads the file at path (defaults when absent) and applies the
// environment on top.
func FromEnv(path string) (*Config, error) {
	if p := getEnv("CONFIG"); p != "" {
		path = p
	}
	cfg, err := LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	cfg.ApplyDefaults()
	return cfg, nil
}

func getEnv(key string) string {
	return os.Getenv(envPrefix + key)
}

func getEnvInt(key string) int {
	val := getEnv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}

func getEnvDuration(key string) time.Duration {
	val := getEnv(key)
	if val == "" {
		return 0
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0
	}
	return d
}
