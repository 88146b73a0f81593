// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"nutrition-meter/internal/storage"
)

type Config struct {
	Transport  string `yaml:"transport"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	JournalDSN string `yaml:"journal_dsn"`
	LogLevel   string `yaml:"log_level"`
	LogFormat  string `yaml:"log_format"`
}

func Default() Config {
	return Config{
		Transport:  "http",
		Host:       "0.0.0.0",
		Port:       8011,
		JournalDSN: storage.MemoryDSN,
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

// Load builds the configuration from defaults, then the YAML file at path,
// then .env and the environment. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Transport = getEnvOrDefault("NUTRITION_TRANSPORT", c.Transport)
	c.Host = getEnvOrDefault("NUTRITION_HOST", c.Host)
	c.JournalDSN = getEnvOrDefault("NUTRITION_JOURNAL_DSN", c.JournalDSN)
	c.LogLevel = getEnvOrDefault("NUTRITION_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnvOrDefault("NUTRITION_LOG_FORMAT", c.LogFormat)

	if v := os.Getenv("NUTRITION_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid NUTRITION_PORT %q: %w", v, err)
		}
		c.Port = port
	}
	return nil
}

func (c Config) Validate() error {
	if c.Transport != "http" {
		return fmt.Errorf("unsupported transport %q", c.Transport)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port number %d is out of range: must be between 1 and 65535", c.Port)
	}
	if c.JournalDSN == "" {
		return fmt.Errorf("journal DSN cannot be empty")
	}
	return nil
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
