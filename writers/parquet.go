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
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/apache/arrow/go/v12/parquet"
	"github.com/apache/arrow/go/v12/parquet/compress"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"

	"github.com/mrgdevelops/ETL-pipeline/schema"
)

// ParquetWriterError wraps Parquet-specific write errors with context about
// the operation.
type ParquetWriterError struct {
	Op  string // Operation that failed (e.g., "open_file", "write_batch", "close")
	Err error  // Underlying error
}

// Error returns the error string for ParquetWriterError.
func (e *ParquetWriterError) Error() string {
	return fmt.Sprintf("parquet writer %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for ParquetWriterError.
func (e *ParquetWriterError) Unwrap() error {
	return e.Err
}

// ParquetWriterStats holds statistics about the Parquet writer's output.
type ParquetWriterStats struct {
	RecordsWritten int64
	BatchesWritten int64
	FlushDuration  time.Duration
	LastFlushTime  time.Time
	NullCellCounts map[string]int64
}

// ParquetWriterOptions configures the Parquet writer.
type ParquetWriterOptions struct {
	Compression compress.Compression
}

// WriterOptionParquet represents a configuration function for
// ParquetWriterOptions.
type WriterOptionParquet func(*ParquetWriterOptions)

// WithParquetCompression sets the Parquet compression algorithm.
func WithParquetCompression(compression compress.Compression) WriterOptionParquet {
	return func(opts *ParquetWriterOptions) {
		opts.Compression = compression
	}
}

// ParquetWriter writes transformed trip records to a Parquet file. Unlike
// the CSV output, the Arrow schema is typed: counts and delay are int64,
// decimals and speed are float64, the breakdown flag is boolean, and
// invalid derived metrics become real nulls instead of empty strings. The
// column order matches the CSV column order exactly.
type ParquetWriter struct {
	file    *os.File
	writer  *pqarrow.FileWriter
	arrowSc *arrow.Schema
	columns []schema.Field
	stats   ParquetWriterStats
	closed  bool
}

// NewParquetWriter creates a Parquet writer for the trip schema at the
// given path, creating parent directories as needed.
func NewParquetWriter(filename string, s *schema.Schema, options ...WriterOptionParquet) (*ParquetWriter, error) {
	opts := ParquetWriterOptions{
		Compression: compress.Codecs.Snappy,
	}
	for _, option := range options {
		option(&opts)
	}

	columns := outputFields(s)
	arrowSc := arrowSchema(columns)

	dir := filepath.Dir(filename)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &ParquetWriterError{Op: "create_directory", Err: err}
		}
	}
	file, err := os.Create(filename)
	if err != nil {
		return nil, &ParquetWriterError{Op: "open_file", Err: err}
	}

	props := parquet.NewWriterProperties(parquet.WithCompression(opts.Compression))
	fw, err := pqarrow.NewFileWriter(arrowSc, file, props, pqarrow.DefaultWriterProps())
	if err != nil {
		file.Close()
		return nil, &ParquetWriterError{Op: "create_writer", Err: err}
	}

	return &ParquetWriter{
		file:    file,
		writer:  fw,
		arrowSc: arrowSc,
		columns: columns,
		stats:   ParquetWriterStats{NullCellCounts: make(map[string]int64)},
	}, nil
}

// WriteBatch writes one batch of transformed records as a row group.
func (p *ParquetWriter) WriteBatch(ctx context.Context, records []schema.Record) error {
	if p.closed {
		return &ParquetWriterError{Op: "write_batch", Err: fmt.Errorf("writer is closed")}
	}
	if len(records) == 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return &ParquetWriterError{Op: "write_batch", Err: ctx.Err()}
	default:
	}

	start := time.Now()

	builder := array.NewRecordBuilder(memory.NewGoAllocator(), p.arrowSc)
	defer builder.Release()

	for _, rec := range records {
		for i, col := range p.columns {
			if err := p.appendValue(builder.Field(i), col, rec[col.Name]); err != nil {
				return &ParquetWriterError{Op: "append_value", Err: err}
			}
		}
	}

	arrowRec := builder.NewRecord()
	defer arrowRec.Release()

	if err := p.writer.Write(arrowRec); err != nil {
		return &ParquetWriterError{Op: "write_batch", Err: err}
	}

	p.stats.RecordsWritten += int64(len(records))
	p.stats.BatchesWritten++
	p.stats.FlushDuration += time.Since(start)
	p.stats.LastFlushTime = time.Now()
	return nil
}

// Close finalizes the Parquet footer and closes the file.
func (p *ParquetWriter) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	if err := p.writer.Close(); err != nil {
		p.file.Close()
		return &ParquetWriterError{Op: "close", Err: err}
	}
	return p.file.Close()
}

// Stats returns write statistics.
func (p *ParquetWriter) Stats() ParquetWriterStats {
	return p.stats
}

// appendValue appends one cell to the column builder, turning invalid
// nullable metrics and type mismatches into nulls.
func (p *ParquetWriter) appendValue(b array.Builder, col schema.Field, v any) error {
	switch builder := b.(type) {
	case *array.StringBuilder:
		if s, ok := v.(string); ok {
			builder.Append(s)
		} else {
			builder.AppendNull()
			p.stats.NullCellCounts[col.Name]++
		}
	case *array.Int64Builder:
		switch x := v.(type) {
		case int:
			builder.Append(int64(x))
		case int64:
			builder.Append(x)
		case schema.NullInt:
			if x.Valid {
				builder.Append(int64(x.Int))
			} else {
				builder.AppendNull()
				p.stats.NullCellCounts[col.Name]++
			}
		default:
			builder.AppendNull()
			p.stats.NullCellCounts[col.Name]++
		}
	case *array.Float64Builder:
		switch x := v.(type) {
		case float64:
			builder.Append(x)
		case schema.NullFloat:
			if x.Valid {
				builder.Append(x.Float)
			} else {
				builder.AppendNull()
				p.stats.NullCellCounts[col.Name]++
			}
		default:
			builder.AppendNull()
			p.stats.NullCellCounts[col.Name]++
		}
	case *array.BooleanBuilder:
		if flag, ok := v.(bool); ok {
			builder.Append(flag)
		} else {
			builder.AppendNull()
			p.stats.NullCellCounts[col.Name]++
		}
	default:
		return fmt.Errorf("unsupported builder for column %s", col.Name)
	}
	return nil
}

// outputFields returns the schema fields plus the derived metric columns,
// in output order.
func outputFields(s *schema.Schema) []schema.Field {
	fields := append([]schema.Field(nil), s.Fields()...)
	fields = append(fields,
		schema.Field{Name: schema.ColDelayMinutes, Type: schema.TypeInt},
		schema.Field{Name: schema.ColAverageSpeed, Type: schema.TypeFloat},
	)
	return fields
}

// arrowSchema maps the trip schema to an Arrow schema.
func arrowSchema(fields []schema.Field) *arrow.Schema {
	arrowFields := make([]arrow.Field, len(fields))
	for i, f := range fields {
		var dt arrow.DataType
		switch f.Type {
		case schema.TypeInt:
			dt = arrow.PrimitiveTypes.Int64
		case schema.TypeFloat:
			dt = arrow.PrimitiveTypes.Float64
		case schema.TypeBool:
			dt = arrow.FixedWidthTypes.Boolean
		default:
			dt = arrow.BinaryTypes.String
		}
		arrowFields[i] = arrow.Field{Name: f.Name, Type: dt, Nullable: true}
	}
	return arrow.NewSchema(arrowFields, nil)
}
