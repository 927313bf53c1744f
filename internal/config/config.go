package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the environment variable pointing at an optional YAML file.
const ConfigFileEnv = "JAN_CHAT_CONFIG"

// Config holds the client configuration.
//
// Loading order (lowest to highest priority):
// 1. Default values
// 2. YAML file (--config or JAN_CHAT_CONFIG)
// 3. Environment variables (.env files are loaded into the environment by main)
// 4. Command-line flags, applied by the caller
type Config struct {
	APIURL          string        `yaml:"api_url" env:"API_URL" validate:"required,url"`
	TokenFile       string        `yaml:"token_file" env:"TOKEN_FILE" validate:"required"`
	ServiceName     string        `yaml:"service_name" env:"SERVICE_NAME"`
	Environment     string        `yaml:"environment" env:"ENVIRONMENT"`
	LogLevel        string        `yaml:"log_level" env:"LOG_LEVEL" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	LogFile         string        `yaml:"log_file" env:"LOG_FILE"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" validate:"gte=0"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES" validate:"gt=0"`
	NoticeBuffer    int           `yaml:"notice_buffer" env:"NOTICE_BUFFER" validate:"gt=0"`
	EnableTracing   bool          `yaml:"enable_tracing" env:"ENABLE_TRACING"`
	OTLPEndpoint    string        `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" validate:"gte=0"`

	FakeBackendPort     int    `yaml:"fake_backend_port" env:"FAKE_BACKEND_PORT" validate:"gt=0,lte=65535"`
	FakeBackendSecret   string `yaml:"fake_backend_secret" env:"FAKE_BACKEND_SECRET"`
	FakeBackendShareURL string `yaml:"fake_backend_share_url" env:"FAKE_BACKEND_SHARE_URL" validate:"omitempty,url"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIURL:              "http://localhost:5000/api",
		TokenFile:           defaultTokenFile(),
		ServiceName:         "jan-chat",
		Environment:         "development",
		LogLevel:            "warn",
		MaxUploadBytes:      10 * 1024 * 1024,
		NoticeBuffer:        32,
		ShutdownTimeout:     10 * time.Second,
		FakeBackendPort:     5000,
		FakeBackendSecret:   "jan-chat-dev-secret",
		FakeBackendShareURL: "http://localhost:5173",
	}
}

// Load builds the configuration from defaults, the optional YAML file at path
// (or JAN_CHAT_CONFIG when path is empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(ConfigFileEnv)
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration after all sources have been applied.
func (c *Config) Validate() error {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.EnableTracing && strings.TrimSpace(c.OTLPEndpoint) == "" {
		return errors.New("OTEL_EXPORTER_OTLP_ENDPOINT is required when ENABLE_TRACING is true")
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// FakeBackendAddr returns the listen address of the development backend.
func (c *Config) FakeBackendAddr() string {
	return fmt.Sprintf(":%d", c.FakeBackendPort)
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".jan-chat-token.yaml"
	}
	return filepath.Join(dir, "jan-chat", "session.yaml")
}
