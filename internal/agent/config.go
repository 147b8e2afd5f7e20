// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

// Package agent implements the print agent: it subscribes to a theater's
// order event stream, fetches each referenced order, renders a receipt
// and drives the configured printer.
package agent

import (
	"fmt"
	"os"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/yqpay/theaterpos/internal/logging"
)

// DefaultConfigPath is where the agent config lives unless AGENT_CONFIG
// points elsewhere.
const DefaultConfigPath = "agent.json"

// ConfigPathEnvVar overrides the agent config file path.
const ConfigPathEnvVar = "AGENT_CONFIG"

// Config is the agent.json shape: one backend, many theater agents.
type Config struct {
	BackendURL string  `koanf:"backendUrl"`
	Agents     []Entry `koanf:"agents"`
}

// Entry configures one theater agent. TheaterID is optional; when empty
// the theater scope embedded in the login token is used.
type Entry struct {
	Label     string `koanf:"label"`
	Username  string `koanf:"username"`
	Password  string `koanf:"password"`
	TheaterID string `koanf:"theaterId"`
}

// LoadConfig reads agent.json (or $AGENT_CONFIG). A missing file is
// fatal; entries without credentials are dropped with a warning so one
// bad entry does not take the whole agent down.
func LoadConfig() (*Config, error) {
	path := DefaultConfigPath
	if env := os.Getenv(ConfigPathEnvVar); env != "" {
		path = env
	}
	return loadConfigFile(path)
}

func loadConfigFile(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), kjson.Parser()); err != nil {
		return nil, fmt.Errorf("load agent config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("parse agent config %s: %w", path, err)
	}

	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("agent config %s: backendUrl is required", path)
	}
	if len(cfg.Agents) == 0 {
		return nil, fmt.Errorf("agent config %s: no agents configured", path)
	}

	valid := cfg.Agents[:0]
	for _, e := range cfg.Agents {
		if e.Username == "" || e.Password == "" {
			logging.Warn().
				Str("label", e.Label).
				Msg("skipping agent entry without credentials")
			continue
		}
		if e.Label == "" {
			e.Label = e.Username
		}
		valid = append(valid, e)
	}
	cfg.Agents = valid
	if len(cfg.Agents) == 0 {
		return nil, fmt.Errorf("agent config %s: every agent entry lacked credentials", path)
	}
	return cfg, nil
}
