// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("default port = %d, want 4000", cfg.Server.Port)
	}
	if cfg.Stream.KeepaliveInterval != 25*time.Second {
		t.Errorf("default keepalive = %v, want 25s", cfg.Stream.KeepaliveInterval)
	}
	if cfg.Auth.TokenTimeout != 24*time.Hour {
		t.Errorf("default token timeout = %v, want 24h", cfg.Auth.TokenTimeout)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default log level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("Load() must fail without a JWT secret")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PORT", "8080")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://pos.example.com, https://admin.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
	want := []string{"https://pos.example.com", "https://admin.example.com"}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[0] != want[0] || cfg.Server.CORSOrigins[1] != want[1] {
		t.Errorf("cors origins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
}

func TestConfigFileLayer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9000
auth:
  jwt_secret: "` + testSecret + `"
users:
  - username: admin
    password: secret
    role: admin
  - username: pvr-kiosk
    password: secret
    role: theater
    theater_id: theater-a
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000 from file", cfg.Server.Port)
	}
	if len(cfg.Users) != 2 || cfg.Users[1].TheaterID != "theater-a" {
		t.Errorf("users = %+v, want two seeded users", cfg.Users)
	}

	// Env still outranks the file.
	t.Setenv("PORT", "9001")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("port = %d, want env override 9001", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c := defaultConfig()
		c.Auth.JWTSecret = testSecret
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, true},
		{"zero keepalive", func(c *Config) { c.Stream.KeepaliveInterval = 0 }, true},
		{"theater user without theater", func(c *Config) {
			c.Users = []SeedUser{{Username: "kiosk", Password: "pw", Role: "theater"}}
		}, true},
		{"bad role", func(c *Config) {
			c.Users = []SeedUser{{Username: "kiosk", Password: "pw", Role: "root"}}
		}, true},
		{"duplicate username", func(c *Config) {
			c.Users = []SeedUser{
				{Username: "kiosk", Password: "pw", Role: "admin"},
				{Username: "kiosk", Password: "pw2", Role: "admin"},
			}
		}, true},
		{"well-formed users", func(c *Config) {
			c.Users = []SeedUser{
				{Username: "admin", Password: "pw", Role: "admin"},
				{Username: "kiosk", Password: "pw", Role: "theater", TheaterID: "theater-a"},
			}
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddr(t *testing.T) {
	sc := ServerConfig{Host: "127.0.0.1", Port: 4000}
	if got := sc.Addr(); got != "127.0.0.1:4000" {
		t.Errorf("Addr() = %q", got)
	}
}
