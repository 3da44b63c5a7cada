//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of ETL-Pipeline.
//
// ETL-Pipeline is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ETL-Pipeline is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with ETL-Pipeline. If not, see https://www.gnu.org/licenses/.

// Package logger provides structured logging for the pipeline.
// It wraps log/slog with a JSON handler so batch runs emit
// machine-readable logs with consistent snake_case field names.
package logger

import (
	"log/slog"
	"os"
	"time"
)

// Logger is the default logger instance.
var Logger *slog.Logger

func init() {
	Logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// SetLevel configures the logging level.
func SetLevel(level slog.Level) {
	Logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

// WithBatch returns a logger with batch context attached.
func WithBatch(batchID string) *slog.Logger {
	return Logger.With(slog.String("batch_id", batchID))
}

// LogBatchStart logs the start of a batch transformation.
func LogBatchStart(batchID, source string) {
	Logger.Info("batch started",
		slog.String("batch_id", batchID),
		slog.String("source", source),
	)
}

// LogBatchEnd logs the completion of a batch transformation.
func LogBatchEnd(batchID string, total, accepted, quarantined int, duration time.Duration) {
	Logger.Info("batch completed",
		slog.String("batch_id", batchID),
		slog.Int("records_total", total),
		slog.Int("records_accepted", accepted),
		slog.Int("records_quarantined", quarantined),
		slog.Duration("duration", duration),
	)
}
