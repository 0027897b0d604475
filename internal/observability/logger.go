// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package observability configures structured logging for the detector.
// Log fields carry offsets, counts and durations but never the matched
// text itself, so logs stay free of the PII the detector finds.
package observability

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Config controls logger construction.
type Config struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "text" or "json"
	Output io.Writer
}

// NewLogger builds a logrus logger from the configuration. Unknown levels
// fall back to info, unknown formats to text.
func NewLogger(cfg Config) *logrus.Logger {
	logger := logrus.New()
	if cfg.Output != nil {
		logger.SetOutput(cfg.Output)
	}

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// NopLogger returns a logger that discards everything. Useful as the default
// when the caller did not wire logging.
func NopLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// ForRun returns an entry scoped to one pipeline run.
func ForRun(logger *logrus.Logger, runID, documentID string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"run_id":      runID,
		"document_id": documentID,
	})
}
