// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/marron9999/sc3-mbitmart/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Configure installs the global logger described by cfg. With tui set the
// terminal belongs to the UI, so output goes only to cfg.File, or nowhere.
// The returned Closer releases the log file.
func Configure(cfg config.LoggingConfig, tui bool) (io.Closer, error) {
	return configure(cfg, tui, os.Stderr)
}

func configure(cfg config.LoggingConfig, tui bool, console io.Writer) (io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	if cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var (
		out    io.Writer
		closer io.Closer = nopCloser{}
	)
	switch {
	case cfg.File != "":
		f, err := os.OpenFile(filepath.Clean(cfg.File), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	case tui:
		out = io.Discard
	default:
		out = zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05.000"}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return closer, nil
}
