package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm/logger"
)

// Config holds all configuration for the application
type Config struct {
	// HTTP Server Configuration
	HTTPPort       int           `yaml:"http_port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Database Configuration
	DatabaseURL string `yaml:"database_url"`
	DBLogLevel  string `yaml:"db_log_level"`

	// Webhook authentication. Empty disables the check.
	APISecret string `yaml:"api_secret"`

	// CORS origins; empty allows all
	AllowedOrigins []string `yaml:"allowed_origins"`

	// Slack Configuration
	SlackBotToken      string        `yaml:"slack_bot_token"`
	SlackAppToken      string        `yaml:"slack_app_token"`
	SlackAlertsChannel string        `yaml:"slack_alerts_channel"`
	NotifyTimeout      time.Duration `yaml:"notify_timeout"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		HTTPPort:       3000,
		RequestTimeout: 30 * time.Second,
		DatabaseURL:    "sqlite://alerts.db",
		DBLogLevel:     "warn",
		NotifyTimeout:  10 * time.Second,
	}
}

// Load reads configuration from an optional YAML file named by CONFIG_FILE,
// then applies environment variables on top
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
		log.Printf("Loaded configuration file %s", path)
	}

	cfg.HTTPPort = getEnvAsIntOrDefault("HTTP_PORT", cfg.HTTPPort)
	cfg.RequestTimeout = getEnvAsDurationOrDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)

	cfg.DatabaseURL = getEnvOrDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.DBLogLevel = getEnvOrDefault("DB_LOG_LEVEL", cfg.DBLogLevel)

	cfg.APISecret = getEnvOrDefault("API_SECRET", cfg.APISecret)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}

	cfg.SlackBotToken = getEnvOrDefault("SLACK_BOT_TOKEN", cfg.SlackBotToken)
	cfg.SlackAppToken = getEnvOrDefault("SLACK_APP_TOKEN", cfg.SlackAppToken)
	cfg.SlackAlertsChannel = getEnvOrDefault("SLACK_ALERTS_CHANNEL", cfg.SlackAlertsChannel)
	cfg.NotifyTimeout = getEnvAsDurationOrDefault("NOTIFY_TIMEOUT", cfg.NotifyTimeout)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port %d", c.HTTPPort)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("notify timeout must be positive, got %s", c.NotifyTimeout)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("database URL is required")
	}
	return nil
}

// SlackEnabled reports whether alerts can be posted to Slack
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackAlertsChannel != ""
}

// GormLogLevel maps DBLogLevel onto the GORM logger level
func (c *Config) GormLogLevel() logger.LogLevel {
	switch strings.ToLower(c.DBLogLevel) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// getEnvOrDefault returns the value of an environment variable or a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault returns the value of an environment variable as an integer or a default value
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

// getEnvAsDurationOrDefault accepts Go durations ("15s") or plain seconds ("15")
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("Warning: ignoring invalid %s=%q", key, value)
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
