// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

// Package config loads the server configuration from three layers with
// increasing precedence: built-in defaults, an optional YAML file, and
// environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where a config file is searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/theaterpos/config.yaml",
	"/etc/theaterpos/config.yml",
}

// ConfigPathEnvVar overrides the config file search entirely.
const ConfigPathEnvVar = "CONFIG_PATH"

// Config is the full server configuration tree.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Logging  LoggingConfig  `koanf:"logging"`
	Stream   StreamConfig   `koanf:"stream"`
	Users    []SeedUser     `koanf:"users"`
}

// ServerConfig covers the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// DatabaseConfig covers the embedded Badger store.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// AuthConfig covers token issuance and login throttling.
type AuthConfig struct {
	JWTSecret        string        `koanf:"jwt_secret"`
	TokenTimeout     time.Duration `koanf:"token_timeout"`
	LoginRateLimit   int           `koanf:"login_rate_limit"`
	RequestRateLimit int           `koanf:"request_rate_limit"`
	RateWindow       time.Duration `koanf:"rate_window"`
}

// LoggingConfig mirrors logging.Config so the file and env layers can
// drive log output without importing the logging package here.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// StreamConfig covers the SSE gateway.
type StreamConfig struct {
	KeepaliveInterval time.Duration `koanf:"keepalive_interval"`
}

// SeedUser is an account created (or updated) at startup. Theater-role
// users carry the theater they are scoped to; admin users leave it empty.
type SeedUser struct {
	Username  string `koanf:"username"`
	Password  string `koanf:"password"`
	Role      string `koanf:"role"`
	TheaterID string `koanf:"theater_id"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            4000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    0, // SSE streams must not be cut by the writer deadline
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{
			Path: "/data/theaterpos",
		},
		Auth: AuthConfig{
			JWTSecret:        "",
			TokenTimeout:     24 * time.Hour,
			LoginRateLimit:   10,
			RequestRateLimit: 300,
			RateWindow:       time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Stream: StreamConfig{
			KeepaliveInterval: 25 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are paths whose env-var form is a comma-separated string.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransform maps environment variable names onto config paths.
// Unknown variables are dropped so unrelated process env never leaks
// into the tree.
func envTransform(key string) string {
	mappings := map[string]string{
		"HOST":               "server.host",
		"PORT":               "server.port",
		"READ_TIMEOUT":       "server.read_timeout",
		"SHUTDOWN_TIMEOUT":   "server.shutdown_timeout",
		"CORS_ORIGINS":       "server.cors_origins",
		"BADGER_PATH":        "database.path",
		"JWT_SECRET":         "auth.jwt_secret",
		"TOKEN_TIMEOUT":      "auth.token_timeout",
		"LOGIN_RATE_LIMIT":   "auth.login_rate_limit",
		"REQUEST_RATE_LIMIT": "auth.request_rate_limit",
		"LOG_LEVEL":          "logging.level",
		"LOG_FORMAT":         "logging.format",
		"LOG_CALLER":         "logging.caller",
		"SSE_KEEPALIVE":      "stream.keepalive_interval",
	}
	if path, ok := mappings[strings.ToUpper(key)]; ok {
		return path
	}
	return ""
}

// Validate rejects configurations the server cannot safely run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (set JWT_SECRET)")
	}
	if c.Auth.TokenTimeout <= 0 {
		return fmt.Errorf("auth.token_timeout must be positive")
	}
	if c.Stream.KeepaliveInterval <= 0 {
		return fmt.Errorf("stream.keepalive_interval must be positive")
	}
	seen := make(map[string]struct{}, len(c.Users))
	for i, u := range c.Users {
		if u.Username == "" || u.Password == "" {
			return fmt.Errorf("users[%d]: username and password are required", i)
		}
		if u.Role != "admin" && u.Role != "theater" {
			return fmt.Errorf("users[%d] %s: role must be admin or theater", i, u.Username)
		}
		if u.Role == "theater" && u.TheaterID == "" {
			return fmt.Errorf("users[%d] %s: theater-role users need theater_id", i, u.Username)
		}
		if _, dup := seen[u.Username]; dup {
			return fmt.Errorf("users[%d]: duplicate username %s", i, u.Username)
		}
		seen[u.Username] = struct{}{}
	}
	return nil
}

// Addr is the listen address in host:port form.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
