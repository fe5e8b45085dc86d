package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// PathEnv names the environment variable holding an optional YAML file.
const PathEnv = "ACTIONPLAN_CONFIG_PATH"

const envPrefix = "ACTIONPLAN_"

// Transport modes.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envPrefix:"SERVER_"`
	DB        DBConfig        `yaml:"db" envPrefix:"DB_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Transport TransportConfig `yaml:"transport" envPrefix:"TRANSPORT_"`
	Auth      AuthConfig      `yaml:"auth" envPrefix:"AUTH_"`
	Session   SessionConfig   `yaml:"session" envPrefix:"SESSION_"`
	Uploads   UploadsConfig   `yaml:"uploads" envPrefix:"UPLOADS_"`
	Listing   ListingConfig   `yaml:"listing" envPrefix:"LISTING_"`
	Storage   StorageConfig   `yaml:"storage" envPrefix:"STORAGE_"`
	Telemetry TelemetryConfig `yaml:"telemetry" envPrefix:"TELEMETRY_"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"HOST"`
	Port int    `yaml:"port" env:"PORT"`
}

type DBConfig struct {
	Path        string        `yaml:"path" env:"PATH"`
	BusyTimeout time.Duration `yaml:"busy_timeout" env:"BUSY_TIMEOUT"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
	Path  string `yaml:"path" env:"PATH"`
}

type TransportConfig struct {
	Mode          string `yaml:"mode" env:"MODE"`
	WebhookSecret string `yaml:"webhook_secret" env:"WEBHOOK_SECRET"`
	// StdioHandle is the chat handle the stdio MCP client acts as.
	StdioHandle string `yaml:"stdio_handle" env:"STDIO_HANDLE"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
}

type SessionConfig struct {
	Timeout       time.Duration `yaml:"timeout" env:"TIMEOUT"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"SWEEP_INTERVAL"`
}

type UploadsConfig struct {
	MaxSizeMB    int64    `yaml:"max_size_mb" env:"MAX_SIZE_MB"`
	AllowedTypes []string `yaml:"allowed_types" env:"ALLOWED_TYPES" envSeparator:","`
}

// MaxSizeBytes returns the upload limit in bytes.
func (u UploadsConfig) MaxSizeBytes() int64 {
	return u.MaxSizeMB * 1024 * 1024
}

type ListingConfig struct {
	PageSize int `yaml:"page_size" env:"PAGE_SIZE"`
}

type StorageConfig struct {
	// OpTimeout bounds the handling of one chat event.
	OpTimeout time.Duration `yaml:"op_timeout" env:"OP_TIMEOUT"`
}

type TelemetryConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path:        "actionplan.db",
			BusyTimeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode:        TransportHTTP,
			StdioHandle: "local",
		},
		Session: SessionConfig{
			Timeout:       30 * time.Minute,
			SweepInterval: time.Minute,
		},
		Uploads: UploadsConfig{
			MaxSizeMB:    10,
			AllowedTypes: []string{"jpg", "jpeg", "png", "heic", "mp4", "mov", "avi", "pdf", "doc", "docx"},
		},
		Listing: ListingConfig{
			PageSize: 5,
		},
		Storage: StorageConfig{
			OpTimeout: 10 * time.Second,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(PathEnv); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	switch c.Transport.Mode {
	case TransportHTTP, TransportStdio:
	default:
		errs = append(errs, fmt.Errorf("transport.mode must be %q or %q, got %q", TransportHTTP, TransportStdio, c.Transport.Mode))
	}
	if c.Transport.Mode == TransportStdio && c.Transport.StdioHandle == "" {
		errs = append(errs, errors.New("transport.stdio_handle is required in stdio mode"))
	}
	if c.Session.Timeout <= 0 {
		errs = append(errs, errors.New("session.timeout must be positive"))
	}
	if c.Session.SweepInterval <= 0 {
		errs = append(errs, errors.New("session.sweep_interval must be positive"))
	}
	if c.Uploads.MaxSizeMB <= 0 {
		errs = append(errs, errors.New("uploads.max_size_mb must be positive"))
	}
	if len(c.Uploads.AllowedTypes) == 0 {
		errs = append(errs, errors.New("uploads.allowed_types must not be empty"))
	}
	if c.Listing.PageSize <= 0 {
		errs = append(errs, errors.New("listing.page_size must be positive"))
	}
	if c.Storage.OpTimeout <= 0 {
		errs = append(errs, errors.New("storage.op_timeout must be positive"))
	}
	return errors.Join(errs...)
}
