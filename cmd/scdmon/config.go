// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the scdmon configuration file.
type Config struct {
	Sensor            string         `yaml:"sensor"`
	Bus               string         `yaml:"bus"`
	Interval          time.Duration  `yaml:"interval"`
	Altitude          int            `yaml:"altitude"`
	Pressure          int            `yaml:"pressure"`
	TemperatureOffset float64        `yaml:"temperature_offset"`
	Log               LogConfig      `yaml:"log"`
	Display           DisplayConfig  `yaml:"display"`
	Snapshot          SnapshotConfig `yaml:"snapshot"`
	MQTT              MQTTConfig     `yaml:"mqtt"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DisplayConfig is the terminal bar. A width of 0 disables it.
type DisplayConfig struct {
	Width int `yaml:"width"`
}

// SnapshotConfig is the PNG card. An empty path disables it.
type SnapshotConfig struct {
	Path   string `yaml:"path"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// MQTTConfig is the telemetry publisher. An empty broker disables it.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
}

// DefaultConfig returns the configuration used for keys missing from the
// file.
func DefaultConfig() *Config {
	return &Config{
		Sensor:            "scd41",
		Interval:          5 * time.Second,
		TemperatureOffset: 4,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Display: DisplayConfig{Width: 40},
		Snapshot: SnapshotConfig{
			Width:  250,
			Height: 122,
		},
		MQTT: MQTTConfig{
			Port:     1883,
			ClientID: "scdmon",
			Topic:    "sensors/co2",
		},
	}
}

// LoadConfig reads path over the defaults. An empty path returns the
// defaults. SCDMON_LOG_LEVEL overrides log.level.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if v := os.Getenv("SCDMON_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that can be checked without a sensor.
func (c *Config) Validate() error {
	var errs []error
	switch c.Sensor {
	case "scd30", "scd40", "scd41":
	default:
		errs = append(errs, fmt.Errorf("sensor: unknown %q", c.Sensor))
	}
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval: must be positive, got %s", c.Interval))
	}
	if c.Altitude < 0 || c.Altitude > 3000 {
		errs = append(errs, fmt.Errorf("altitude: %dm out of range 0..3000", c.Altitude))
	}
	if c.Pressure < 0 {
		errs = append(errs, fmt.Errorf("pressure: must not be negative, got %d", c.Pressure))
	}
	if c.TemperatureOffset < 0 {
		errs = append(errs, fmt.Errorf("temperature_offset: must not be negative, got %g", c.TemperatureOffset))
	}
	if _, err := parseLogLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown %q", c.Log.Format))
	}
	if c.Display.Width < 0 {
		errs = append(errs, fmt.Errorf("display.width: must not be negative"))
	}
	if c.Snapshot.Path != "" && (c.Snapshot.Width <= 0 || c.Snapshot.Height <= 0) {
		errs = append(errs, fmt.Errorf("snapshot: invalid size %dx%d", c.Snapshot.Width, c.Snapshot.Height))
	}
	if c.MQTT.Broker != "" {
		if c.MQTT.Port <= 0 || c.MQTT.Port > 65535 {
			errs = append(errs, fmt.Errorf("mqtt.port: %d out of range", c.MQTT.Port))
		}
		if c.MQTT.Topic == "" {
			errs = append(errs, errors.New("mqtt.topic: required"))
		}
	}
	return errors.Join(errs...)
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level: unknown %q", s)
	}
}
