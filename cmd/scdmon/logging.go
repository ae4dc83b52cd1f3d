// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// newLogger returns a colored text logger, or a JSON one for machines.
func newLogger(w io.Writer, cfg LogConfig) *slog.Logger {
	level, _ := parseLogLevel(cfg.Level)
	if cfg.Format == "json" {
		h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
		return slog.New(h).With("app", appName)
	}
	h := tint.NewHandler(w, &tint.Options{
		Level:      level,
		AddSource:  level == slog.LevelDebug,
		TimeFormat: time.Kitchen,
	})
	return slog.New(h).With("app", appName)
}
