package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Store Store `yaml:"store" json:"store"`
	Clock Clock `yaml:"clock" json:"clock"`
	Log   Log   `yaml:"log" json:"log"`
	HTTP  HTTP  `yaml:"http" json:"http"`
}

// Store selects where goals and tasks are persisted.
type Store struct {
	// Driver is one of memory, file or sqlite.
	Driver     string `yaml:"driver" json:"driver"`
	DataDir    string `yaml:"data_dir" json:"data_dir"`
	SQLitePath string `yaml:"sqlite_path" json:"sqlite_path"`
	// WriteRetries is the number of attempts made for each save.
	WriteRetries int           `yaml:"write_retries" json:"write_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff" json:"retry_backoff"`
}

type Clock struct {
	// Timezone is an IANA name. Empty means the process's local zone.
	Timezone     string        `yaml:"timezone" json:"timezone"`
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
}

type Log struct {
	Level       string `yaml:"level" json:"level"`
	Development bool   `yaml:"development" json:"development"`
}

type HTTP struct {
	Addr string `yaml:"addr" json:"addr"`
}

const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

func (s *Store) ApplyDefaults() {
	if s.Driver == "" {
		s.Driver = DriverFile
	}
	if s.DataDir == "" {
		s.DataDir = "data"
	}
	if s.SQLitePath == "" {
		s.SQLitePath = filepath.Join(s.DataDir, "goaltrack.db")
	}
	if s.WriteRetries <= 0 {
		s.WriteRetries = 3
	}
	if s.RetryBackoff <= 0 {
		s.RetryBackoff = 100 * time.Millisecond
	}
}

func (c *Clock) ApplyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 30 * time.Second
	}
}

// Location resolves Timezone, falling back to time.Local.
func (c Clock) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("clock timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (l *Log) ApplyDefaults() {
	if l.Level == "" {
		l.Level = "info"
	}
}

func (h *HTTP) ApplyDefaults() {
	if h.Addr == "" {
		h.Addr = ":8080"
	}
}

func (c *Config) ApplyDefaults() {
	c.Store.ApplyDefaults()
	c.Clock.ApplyDefaults()
	c.Log.ApplyDefaults()
	c.HTTP.ApplyDefaults()
}

// Default returns a Config with every field at its default.
func Default() *Config {
	var c Config
	c.ApplyDefaults()
	return &c
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Config
	if err := yaml.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	r.ApplyDefaults()
	return &r, nil
}

// LoadOrDefault behaves like Load but returns defaults when path is empty or
// does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	return cfg, err
}
