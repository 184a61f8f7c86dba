// Package config provides configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Config struct {
	RabbitMQ   RabbitMQConfig
	Logging    LoggingConfig
	Database   DatabaseConfig
	Server     ServerConfig
	Redis      RedisConfig
	ESP        ESPConfig
	Auth       AuthConfig
	Newsletter NewsletterConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

// DatabaseConfig contains database connection configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DatabaseConfig struct {
	Host           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	Port           int
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

// RabbitMQConfig contains RabbitMQ connection and exchange configuration.
// Lifecycle events are disabled when Host is empty.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RabbitMQConfig struct {
	Host       string
	User       string
	Password   string
	Exchange   string
	Queue      string
	RoutingKey string
	Port       int
}

// Enabled reports whether an event broker is configured.
func (c RabbitMQConfig) Enabled() bool {
	return c.Host != ""
}

// RedisConfig contains the task queue broker configuration.
// Campaign status sync is disabled when URL is empty.
type RedisConfig struct {
	URL         string
	Concurrency int
}

// Enabled reports whether a task broker is configured.
func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

// ESPConfig contains the email service provider API configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ESPConfig struct {
	BaseURL          string
	APIKey           string
	Timeout          time.Duration
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// Enabled reports whether an ESP is configured.
func (c ESPConfig) Enabled() bool {
	return c.BaseURL != ""
}

// AuthConfig contains API key authentication configuration.
type AuthConfig struct {
	APIKeys []string
}

// NewsletterConfig contains publication-level settings.
type NewsletterConfig struct {
	PublicationName string
	FavoritesLimit  int
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set defaults
	setDefaults()

	// Read environment variables, APP_DATABASE_HOST -> database.host
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Comma-separated keys from the environment arrive as a single element.
	cfg.Auth.APIKeys = splitKeys(cfg.Auth.APIKeys)

	return &cfg, nil
}

func splitKeys(raw []string) []string {
	var keys []string
	for _, entry := range raw {
		for _, k := range strings.Split(entry, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
	}
	return keys
}

func setDefaults() {
	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "newsletter_curator")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxconnections", 10)
	viper.SetDefault("database.minconnections", 2)
	viper.SetDefault("database.maxidletime", 10*time.Minute)
	viper.SetDefault("database.maxlifetime", 1*time.Hour)

	// RabbitMQ
	viper.SetDefault("rabbitmq.host", "")
	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.user", "guest")
	viper.SetDefault("rabbitmq.password", "guest")
	viper.SetDefault("rabbitmq.exchange", "newsletter.issues")
	viper.SetDefault("rabbitmq.queue", "newsletter.issues.status")
	viper.SetDefault("rabbitmq.routingkey", "issue.status_changed")

	// Redis
	viper.SetDefault("redis.url", "")
	viper.SetDefault("redis.concurrency", 2)

	// ESP
	viper.SetDefault("esp.baseurl", "")
	viper.SetDefault("esp.apikey", "")
	viper.SetDefault("esp.timeout", 30*time.Second)
	viper.SetDefault("esp.failurethreshold", 5)
	viper.SetDefault("esp.opentimeout", 60*time.Second)

	// Auth
	viper.SetDefault("auth.apikeys", []string{})

	// Newsletter
	viper.SetDefault("newsletter.publicationname", "The Podcast Brief")
	viper.SetDefault("newsletter.favoriteslimit", 200)

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
}
