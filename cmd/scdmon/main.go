// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// scdmon periodically reads a Sensirion SCD30, SCD40 or SCD41 CO2 sensor.
//
// Readings are logged, drawn as a colored bar on the terminal and optionally
// rendered to a PNG card and published to an MQTT broker.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

const appName = "scdmon"

func mainImpl() error {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg.Log)
	slog.SetDefault(logger)
	logger.Info("starting", "sensor", cfg.Sensor, "log_level", cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutting down")
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "scdmon: %s.\n", err)
		os.Exit(1)
	}
}
