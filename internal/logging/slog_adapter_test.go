// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogHandlerLevels(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	sl := NewSlogLogger()
	sl.Info("supervisor started")
	sl.Error("service failed", "service", "http-server")

	out := buf.String()
	if !strings.Contains(out, `"level":"info"`) {
		t.Errorf("expected info level in output: %q", out)
	}
	if !strings.Contains(out, `"level":"error"`) {
		t.Errorf("expected error level in output: %q", out)
	}
	if !strings.Contains(out, `"service":"http-server"`) {
		t.Errorf("expected attr in output: %q", out)
	}
}

func TestSlogHandlerWithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	sl := slog.New(NewSlogHandler().
		WithAttrs([]slog.Attr{slog.String("component", "agent")}).
		WithGroup("printer"))
	sl.Info("job done", "name", "EPSON")

	out := buf.String()
	if !strings.Contains(out, `"component":"agent"`) {
		t.Errorf("expected pre-configured attr: %q", out)
	}
	if !strings.Contains(out, `"printer.name":"EPSON"`) {
		t.Errorf("expected group-prefixed attr: %q", out)
	}
}
