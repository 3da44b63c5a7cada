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

// Package writers serializes transformed trip records and quarantine
// reports to their output encodings and destinations.
package writers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mrgdevelops/ETL-pipeline/schema"
)

// TripWriterError wraps trip CSV write errors with context.
type TripWriterError struct {
	Op  string
	Err error
}

func (e *TripWriterError) Error() string {
	return fmt.Sprintf("trip writer %s: %v", e.Op, e.Err)
}

func (e *TripWriterError) Unwrap() error {
	return e.Err
}

// TripWriterStats holds trip CSV write performance statistics.
type TripWriterStats struct {
	RecordsWritten  int64
	FlushCount      int64
	FlushDuration   time.Duration
	LastFlushTime   time.Time
	EmptyCellCounts map[string]int64
}

// TripWriterOptions configures trip CSV output.
type TripWriterOptions struct {
	Comma     rune
	UseCRLF   bool
	BatchSize int
}

// WriterOptionTrip is a functional option.
type WriterOptionTrip func(*TripWriterOptions)

func WithTripComma(delim rune) WriterOptionTrip {
	return func(opts *TripWriterOptions) {
		opts.Comma = delim
	}
}

func WithTripUseCRLF(useCRLF bool) WriterOptionTrip {
	return func(opts *TripWriterOptions) {
		opts.UseCRLF = useCRLF
	}
}

func WithTripBatchSize(size int) WriterOptionTrip {
	return func(opts *TripWriterOptions) {
		opts.BatchSize = size
	}
}

// TripWriter writes transformed trip records as CSV with stats and
// batching. The column set and order come from the schema, never from the
// records, so every batch produces the same header row and the same cell
// layout. Rows appear in the order they are written.
type TripWriter struct {
	writer     *csv.Writer
	closer     io.Closer
	options    TripWriterOptions
	columns    []string
	recordBuf  []schema.Record
	stats      TripWriterStats
	errorState bool
	mu         sync.Mutex
}

// NewTripWriter creates a trip CSV writer over the given destination. The
// header row is written immediately so that an empty batch still yields a
// header-only file.
func NewTripWriter(w io.WriteCloser, s *schema.Schema, opts ...WriterOptionTrip) (*TripWriter, error) {
	options := TripWriterOptions{
		Comma:     ',',
		UseCRLF:   false,
		BatchSize: 0,
	}

	for _, opt := range opts {
		opt(&options)
	}

	cw := csv.NewWriter(w)
	cw.Comma = options.Comma
	cw.UseCRLF = options.UseCRLF

	tw := &TripWriter{
		writer:    cw,
		closer:    w,
		options:   options,
		columns:   s.Columns(),
		recordBuf: make([]schema.Record, 0, maxInt(options.BatchSize, 1)),
		stats:     TripWriterStats{EmptyCellCounts: make(map[string]int64)},
	}

	if err := cw.Write(tw.columns); err != nil {
		return nil, &TripWriterError{Op: "write_header", Err: err}
	}

	return tw, nil
}

// Columns returns the fixed output column order.
func (t *TripWriter) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Write buffers one transformed record for output.
func (t *TripWriter) Write(ctx context.Context, record schema.Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.errorState {
		return &TripWriterError{Op: "write", Err: fmt.Errorf("writer is in error state")}
	}

	select {
	case <-ctx.Done():
		return &TripWriterError{Op: "write", Err: ctx.Err()}
	default:
	}

	t.recordBuf = append(t.recordBuf, record)
	t.stats.RecordsWritten++

	if t.options.BatchSize > 0 && len(t.recordBuf) >= t.options.BatchSize {
		if err := t.flushBufferUnsafe(); err != nil {
			t.errorState = true
			return &TripWriterError{Op: "flush_batch", Err: err}
		}
	}

	return nil
}

// Flush writes buffered records through to the destination.
func (t *TripWriter) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.flushBufferUnsafe(); err != nil {
		return &TripWriterError{Op: "flush", Err: err}
	}
	t.writer.Flush()
	if err := t.writer.Error(); err != nil {
		return &TripWriterError{Op: "flush_writer", Err: err}
	}
	return nil
}

// Close flushes and closes the destination.
func (t *TripWriter) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}

// flushBufferUnsafe writes buffered records to CSV (must hold mutex).
func (t *TripWriter) flushBufferUnsafe() error {
	if len(t.recordBuf) == 0 {
		return nil
	}

	start := time.Now()

	row := make([]string, len(t.columns))
	for _, record := range t.recordBuf {
		for i, col := range t.columns {
			cell := encodeValue(record[col])
			if cell == "" {
				t.stats.EmptyCellCounts[col]++
			}
			row[i] = cell
		}
		if err := t.writer.Write(row); err != nil {
			return &TripWriterError{Op: "write_row", Err: err}
		}
	}

	t.writer.Flush()
	if err := t.writer.Error(); err != nil {
		return &TripWriterError{Op: "csv_flush", Err: err}
	}

	t.stats.FlushCount++
	t.stats.LastFlushTime = time.Now()
	t.stats.FlushDuration += time.Since(start)
	t.recordBuf = t.recordBuf[:0]

	return nil
}

// Stats returns write statistics.
func (t *TripWriter) Stats() TripWriterStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	statsCopy := t.stats
	statsCopy.EmptyCellCounts = make(map[string]int64)
	for k, v := range t.stats.EmptyCellCounts {
		statsCopy.EmptyCellCounts[k] = v
	}
	return statsCopy
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
