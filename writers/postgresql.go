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
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/mrgdevelops/ETL-pipeline/schema"
)

// WarehouseLoaderError wraps warehouse load errors with context about the
// operation.
type WarehouseLoaderError struct {
	Op  string // The operation being performed (e.g., "load", "connect")
	Err error  // The underlying error
}

// Error returns the error string for WarehouseLoaderError.
func (e *WarehouseLoaderError) Error() string {
	return fmt.Sprintf("warehouse loader %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for WarehouseLoaderError.
func (e *WarehouseLoaderError) Unwrap() error {
	return e.Err
}

// WarehouseLoaderStats holds warehouse load performance statistics.
type WarehouseLoaderStats struct {
	RecordsLoaded    int64            // Total records loaded
	BatchesLoaded    int64            // Number of COPY batches committed
	LoadDuration     time.Duration    // Total time spent loading
	ConnectionTime   time.Duration    // Time spent establishing connection
	LastLoadTime     time.Time        // Time of last load
	NullColumnCounts map[string]int64 // Count of NULL cells per column
}

// WarehouseLoaderOptions configures the warehouse loader.
type WarehouseLoaderOptions struct {
	DSN             string        // PostgreSQL connection string
	TableName       string        // Target table name
	QueryTimeout    time.Duration // Timeout for the COPY transaction
	ConnMaxLifetime time.Duration // Max connection lifetime
	MaxOpenConns    int           // Max open connections
	MaxIdleConns    int           // Max idle connections
}

// WarehouseLoaderOption represents a configuration function for
// WarehouseLoaderOptions.
type WarehouseLoaderOption func(*WarehouseLoaderOptions)

// WithWarehouseDSN sets the PostgreSQL connection string.
func WithWarehouseDSN(dsn string) WarehouseLoaderOption {
	return func(opts *WarehouseLoaderOptions) {
		opts.DSN = dsn
	}
}

// WithWarehouseTable sets the target table name.
func WithWarehouseTable(table string) WarehouseLoaderOption {
	return func(opts *WarehouseLoaderOptions) {
		opts.TableName = table
	}
}

// WithWarehouseQueryTimeout sets the COPY transaction timeout.
func WithWarehouseQueryTimeout(timeout time.Duration) WarehouseLoaderOption {
	return func(opts *WarehouseLoaderOptions) {
		opts.QueryTimeout = timeout
	}
}

// WithWarehouseConnectionPool configures the connection pool.
func WithWarehouseConnectionPool(maxOpen, maxIdle int, maxLifetime time.Duration) WarehouseLoaderOption {
	return func(opts *WarehouseLoaderOptions) {
		opts.MaxOpenConns = maxOpen
		opts.MaxIdleConns = maxIdle
		opts.ConnMaxLifetime = maxLifetime
	}
}

// WarehouseLoader bulk-loads transformed trip records into a PostgreSQL
// warehouse table using COPY. The column set matches the trip CSV exactly,
// so the warehouse rows mirror the file output cell for cell.
type WarehouseLoader struct {
	db      *sql.DB
	options WarehouseLoaderOptions
	columns []string
	stats   WarehouseLoaderStats
	mu      sync.Mutex
}

// NewWarehouseLoader connects to the warehouse and prepares a loader for
// the schema's output columns.
func NewWarehouseLoader(s *schema.Schema, opts ...WarehouseLoaderOption) (*WarehouseLoader, error) {
	options := WarehouseLoaderOptions{
		TableName:    "viajes_transformados",
		QueryTimeout: 60 * time.Second,
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if options.DSN == "" {
		return nil, &WarehouseLoaderError{Op: "validate_options", Err: fmt.Errorf("dsn is required")}
	}

	start := time.Now()
	db, err := sql.Open("postgres", options.DSN)
	if err != nil {
		return nil, &WarehouseLoaderError{Op: "connect", Err: err}
	}
	db.SetMaxOpenConns(options.MaxOpenConns)
	db.SetMaxIdleConns(options.MaxIdleConns)
	if options.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(options.ConnMaxLifetime)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &WarehouseLoaderError{Op: "ping", Err: err}
	}

	return &WarehouseLoader{
		db:      db,
		options: options,
		columns: s.Columns(),
		stats: WarehouseLoaderStats{
			ConnectionTime:   time.Since(start),
			NullColumnCounts: make(map[string]int64),
		},
	}, nil
}

// Load writes one batch of transformed records in a single COPY
// transaction. Either every record lands or none do.
func (w *WarehouseLoader) Load(ctx context.Context, records []schema.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(records) == 0 {
		return nil
	}

	if w.options.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.options.QueryTimeout)
		defer cancel()
	}

	start := time.Now()

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return &WarehouseLoaderError{Op: "begin_tx", Err: err}
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(w.options.TableName, w.columns...))
	if err != nil {
		tx.Rollback()
		return &WarehouseLoaderError{Op: "prepare_copy", Err: err}
	}

	for _, rec := range records {
		args := make([]any, len(w.columns))
		for i, col := range w.columns {
			v := sqlValue(rec[col])
			if v == nil {
				w.stats.NullColumnCounts[col]++
			}
			args[i] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			stmt.Close()
			tx.Rollback()
			return &WarehouseLoaderError{Op: "copy_row", Err: err}
		}
	}

	// Final Exec with no arguments flushes the COPY buffer.
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		tx.Rollback()
		return &WarehouseLoaderError{Op: "copy_flush", Err: err}
	}
	if err := stmt.Close(); err != nil {
		tx.Rollback()
		return &WarehouseLoaderError{Op: "close_copy", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &WarehouseLoaderError{Op: "commit", Err: err}
	}

	w.stats.RecordsLoaded += int64(len(records))
	w.stats.BatchesLoaded++
	w.stats.LoadDuration += time.Since(start)
	w.stats.LastLoadTime = time.Now()
	return nil
}

// Close releases the database connection.
func (w *WarehouseLoader) Close() error {
	return w.db.Close()
}

// Stats returns load statistics.
func (w *WarehouseLoader) Stats() WarehouseLoaderStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	statsCopy := w.stats
	statsCopy.NullColumnCounts = make(map[string]int64)
	for k, v := range w.stats.NullColumnCounts {
		statsCopy.NullColumnCounts[k] = v
	}
	return statsCopy
}

// sqlValue maps a record value to its SQL parameter. Invalid nullable
// metrics map to NULL rather than a sentinel.
func sqlValue(v any) any {
	switch x := v.(type) {
	case schema.NullInt:
		if !x.Valid {
			return nil
		}
		return int64(x.Int)
	case schema.NullFloat:
		if !x.Valid {
			return nil
		}
		return x.Float
	case int:
		return int64(x)
	default:
		return v
	}
}
