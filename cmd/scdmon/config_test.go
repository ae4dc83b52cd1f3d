// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, content string) string {
	p := filepath.Join(t.TempDir(), "scdmon.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SCDMON_LOG_LEVEL", "")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("LoadConfig(\"\") mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("SCDMON_LOG_LEVEL", "")
	p := writeConfig(t, `
sensor: scd30
bus: "1"
interval: 2s
altitude: 350
pressure: 98000
log:
  level: debug
mqtt:
  broker: localhost
  topic: office/co2
`)
	cfg, err := LoadConfig(p)
	if err != nil {
		t.Fatal(err)
	}
	want := DefaultConfig()
	want.Sensor = "scd30"
	want.Bus = "1"
	want.Interval = 2 * time.Second
	want.Altitude = 350
	want.Pressure = 98000
	want.Log.Level = "debug"
	want.MQTT.Broker = "localhost"
	want.MQTT.Topic = "office/co2"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("LoadConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("SCDMON_LOG_LEVEL", "warning")
	cfg, err := LoadConfig(writeConfig(t, "log: {level: debug}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "warning" {
		t.Errorf("log level %q", cfg.Log.Level)
	}
	if l, _ := parseLogLevel(cfg.Log.Level); l != slog.LevelWarn {
		t.Errorf("parseLogLevel(%q)=%s", cfg.Log.Level, l)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Setenv("SCDMON_LOG_LEVEL", "")
	tests := []struct {
		content string
		msg     string
	}{
		{"sensor: scd42\n", "sensor"},
		{"interval: 0s\n", "interval"},
		{"altitude: 3001\n", "altitude"},
		{"pressure: -1\n", "pressure"},
		{"temperature_offset: -2\n", "temperature_offset"},
		{"log: {level: loud}\n", "log.level"},
		{"log: {format: xml}\n", "log.format"},
		{"snapshot: {path: a.png, width: 0}\n", "snapshot"},
		{"mqtt: {broker: localhost, port: 0}\n", "mqtt.port"},
		{"sensor: [\n", "parse config"},
	}
	for _, test := range tests {
		_, err := LoadConfig(writeConfig(t, test.content))
		if err == nil {
			t.Errorf("%q: expected error", test.content)
			continue
		}
		if !strings.Contains(err.Error(), test.msg) {
			t.Errorf("%q: error %q doesn't mention %q", test.content, err, test.msg)
		}
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
