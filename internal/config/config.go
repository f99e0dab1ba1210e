package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration loaded from mdu.yaml. Command-line flags
// override these values; see cmd/mdu.
type Config struct {
	Jobs             int    `yaml:"jobs"`
	LogLevel         string `yaml:"log_level"`
	Progress         bool   `yaml:"progress"`
	ProgressInterval string `yaml:"progress_interval"`
}

// applyDefaults fills zero/empty fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Jobs == 0 {
		c.Jobs = 1
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ProgressInterval == "" {
		c.ProgressInterval = "1s"
	}
}

// Interval returns the parsed progress interval. Load has already checked
// that it parses; a zero or negative interval falls back to one second.
func (c *Config) Interval() time.Duration {
	d, err := time.ParseDuration(c.ProgressInterval)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// Load reads and parses the YAML config file at path.
// If the file does not exist, Load returns a default Config so the tool
// runs without any config file present.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		var cfg Config
		cfg.applyDefaults()
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open config %q: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	cfg.applyDefaults()

	if _, err := time.ParseDuration(cfg.ProgressInterval); err != nil {
		return nil, fmt.Errorf("parse config %q: invalid progress_interval: %w", path, err)
	}
	return &cfg, nil
}
