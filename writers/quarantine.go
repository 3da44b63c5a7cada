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

package writers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/mrgdevelops/ETL-pipeline/quarantine"
	"github.com/mrgdevelops/ETL-pipeline/schema"
)

// ReportWriterError wraps quarantine report write errors with context.
type ReportWriterError struct {
	Op  string
	Err error
}

func (e *ReportWriterError) Error() string {
	return fmt.Sprintf("report writer %s: %v", e.Op, e.Err)
}

func (e *ReportWriterError) Unwrap() error {
	return e.Err
}

// ReportWriterStats holds quarantine report write statistics.
type ReportWriterStats struct {
	RecordsWritten int64
	ReasonCounts   map[string]int64
	LastWriteTime  time.Time
}

// ReportWriter writes quarantined records as CSV. Each row carries the
// input position, the failing field, the machine-readable reason code, and
// the partially cleaned input columns so an operator can inspect the batch
// without the source payload.
type ReportWriter struct {
	writer     *csv.Writer
	closer     io.Closer
	columns    []string
	stats      ReportWriterStats
	errorState bool
	mu         sync.Mutex
}

// NewReportWriter creates a quarantine report writer. The header is written
// immediately; a batch with nothing quarantined yields a header-only file.
func NewReportWriter(w io.WriteCloser, s *schema.Schema) (*ReportWriter, error) {
	columns := append([]string{"input_index", "field", "reason"}, s.InputColumns()...)

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return nil, &ReportWriterError{Op: "write_header", Err: err}
	}

	return &ReportWriter{
		writer:  cw,
		closer:  w,
		columns: columns,
		stats:   ReportWriterStats{ReasonCounts: make(map[string]int64)},
	}, nil
}

// Write appends one quarantined record to the report.
func (r *ReportWriter) Write(ctx context.Context, rec quarantine.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.errorState {
		return &ReportWriterError{Op: "write", Err: fmt.Errorf("writer is in error state")}
	}

	select {
	case <-ctx.Done():
		return &ReportWriterError{Op: "write", Err: ctx.Err()}
	default:
	}

	row := make([]string, len(r.columns))
	row[0] = strconv.Itoa(rec.Index)
	row[1] = rec.Field
	row[2] = rec.Reason.String()
	for i, col := range r.columns[3:] {
		row[i+3] = encodeValue(rec.Partial[col])
	}

	if err := r.writer.Write(row); err != nil {
		r.errorState = true
		return &ReportWriterError{Op: "write_row", Err: err}
	}

	r.stats.RecordsWritten++
	r.stats.ReasonCounts[rec.Reason.String()]++
	r.stats.LastWriteTime = time.Now()
	return nil
}

// Flush writes pending rows through to the destination.
func (r *ReportWriter) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.writer.Flush()
	if err := r.writer.Error(); err != nil {
		return &ReportWriterError{Op: "flush", Err: err}
	}
	return nil
}

// Close flushes and closes the destination.
func (r *ReportWriter) Close() error {
	if err := r.Flush(); err != nil {
		return err
	}
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Stats returns write statistics.
func (r *ReportWriter) Stats() ReportWriterStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	statsCopy := r.stats
	statsCopy.ReasonCounts = make(map[string]int64)
	for k, v := range r.stats.ReasonCounts {
		statsCopy.ReasonCounts[k] = v
	}
	return statsCopy
}
