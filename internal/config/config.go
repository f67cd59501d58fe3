// Package config loads server configuration: an optional YAML file,
// overridden by environment variables, falling back to defaults when
// neither is present (spec ambient stack — the core spec has no
// configuration surface of its own, so this stays deliberately small).
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the whole of the server's tunable surface.
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port string `yaml:"port"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Game struct {
		JobQueueDepth int `yaml:"job_queue_depth"`
	} `yaml:"game"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() *Config {
	c := &Config{}
	c.Server.Host = ""
	c.Server.Port = "8080"
	c.Logging.Level = "info"
	c.Logging.Format = "text"
	c.Game.JobQueueDepth = 128
	return c
}

// Load builds a Config starting from Default, layering in path (if
// non-empty and the file exists), then environment variables, which
// always win. path may be empty: a missing config file is not an error,
// since every field has a workable default.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("decode config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("JOB_QUEUE_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Game.JobQueueDepth = n
		}
	}
}

// Addr is the host:port pair to listen on.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}
