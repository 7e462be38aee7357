package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// HTTP Server
	Port string `yaml:"port"`

	// Transaction files live here (current_transactions.json, all_transactions.json)
	DataDir string `yaml:"data_dir"`

	// Audit history (optional; used by the worker)
	HistoryDBPath string `yaml:"history_db_path"`

	// AMQP (optional; empty URL disables event publishing)
	AMQPURL      string `yaml:"amqp_url"`
	AMQPExchange string `yaml:"amqp_exchange"`
	AMQPQueue    string `yaml:"amqp_queue"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Shutdown
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Load builds the configuration from defaults, an optional YAML file named
// by CONFIG_FILE, and environment variables, in that order (env wins).
func Load() *Config {
	cfg := &Config{
		Port:            "3030",
		DataDir:         "./data",
		HistoryDBPath:   "./data/history.db",
		AMQPURL:         "",
		AMQPExchange:    "movimenti",
		AMQPQueue:       "audit_events",
		LogLevel:        "info",
		ShutdownTimeout: 30 * time.Second,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		// A broken config file should not silently fall back to defaults;
		// Validate catches the resulting zero values, but report it here too.
		if err := cfg.applyFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "warning: config file %s: %v\n", path, err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.HistoryDBPath = getEnv("HISTORY_DB_PATH", cfg.HistoryDBPath)
	cfg.AMQPURL = getEnv("AMQP_URL", cfg.AMQPURL)
	cfg.AMQPExchange = getEnv("AMQP_EXCHANGE", cfg.AMQPExchange)
	cfg.AMQPQueue = getEnv("AMQP_QUEUE", cfg.AMQPQueue)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	return cfg
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// CurrentFile returns the path of the current-snapshot file.
func (c *Config) CurrentFile() string {
	return filepath.Join(c.DataDir, "current_transactions.json")
}

// AllFile returns the path of the historical-record file.
func (c *Config) AllFile() string {
	return filepath.Join(c.DataDir, "all_transactions.json")
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DataDir == "" {
		errors = append(errors, "data directory cannot be empty")
	} else if _, err := os.Stat(c.DataDir); os.IsNotExist(err) {
		if err := os.MkdirAll(c.DataDir, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create data directory '%s': %v", c.DataDir, err))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
