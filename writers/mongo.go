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
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mrgdevelops/ETL-pipeline/quarantine"
)

// QuarantineArchiveError wraps quarantine archive errors with context.
type QuarantineArchiveError struct {
	Op  string
	Err error
}

func (e *QuarantineArchiveError) Error() string {
	return fmt.Sprintf("quarantine archive %s: %v", e.Op, e.Err)
}

func (e *QuarantineArchiveError) Unwrap() error {
	return e.Err
}

// QuarantineArchiveStats holds archive write statistics.
type QuarantineArchiveStats struct {
	RecordsArchived int64
	BatchesArchived int64
	ArchiveDuration time.Duration
	LastArchiveTime time.Time
}

// QuarantineArchiveOptions configures the archive connection.
type QuarantineArchiveOptions struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
}

// ArchiveOption represents a configuration function for the archive.
type ArchiveOption func(*QuarantineArchiveOptions)

func WithArchiveURI(uri string) ArchiveOption {
	return func(opts *QuarantineArchiveOptions) {
		opts.URI = uri
	}
}

func WithArchiveDatabase(database string) ArchiveOption {
	return func(opts *QuarantineArchiveOptions) {
		opts.Database = database
	}
}

func WithArchiveCollection(collection string) ArchiveOption {
	return func(opts *QuarantineArchiveOptions) {
		opts.Collection = collection
	}
}

func WithArchiveConnectTimeout(timeout time.Duration) ArchiveOption {
	return func(opts *QuarantineArchiveOptions) {
		opts.ConnectTimeout = timeout
	}
}

func WithArchiveWriteTimeout(timeout time.Duration) ArchiveOption {
	return func(opts *QuarantineArchiveOptions) {
		opts.WriteTimeout = timeout
	}
}

// QuarantineArchive persists quarantined records to MongoDB for long-term
// inspection, keyed by batch. The CSV report is the operational surface;
// the archive keeps history across batches.
type QuarantineArchive struct {
	client     *mongo.Client
	collection *mongo.Collection
	options    QuarantineArchiveOptions
	stats      QuarantineArchiveStats
	mu         sync.Mutex
}

// NewQuarantineArchive connects to MongoDB and prepares the archive
// collection.
func NewQuarantineArchive(ctx context.Context, options ...ArchiveOption) (*QuarantineArchive, error) {
	opts := QuarantineArchiveOptions{
		Database:       "etl_pipeline",
		Collection:     "quarantined_trips",
		ConnectTimeout: 10 * time.Second,
		WriteTimeout:   30 * time.Second,
	}
	for _, option := range options {
		option(&opts)
	}

	if opts.URI == "" {
		return nil, &QuarantineArchiveError{Op: "validate_options", Err: fmt.Errorf("uri is required")}
	}

	connectCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, mongooptions.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, &QuarantineArchiveError{Op: "connect", Err: err}
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, &QuarantineArchiveError{Op: "ping", Err: err}
	}

	return &QuarantineArchive{
		client:     client,
		collection: client.Database(opts.Database).Collection(opts.Collection),
		options:    opts,
	}, nil
}

// Archive stores one batch's quarantined records under the given batch ID.
// An empty batch is a no-op.
func (a *QuarantineArchive) Archive(ctx context.Context, batchID string, records []quarantine.Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(records) == 0 {
		return nil
	}

	if a.options.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.options.WriteTimeout)
		defer cancel()
	}

	start := time.Now()
	now := time.Now().UTC()

	docs := make([]any, len(records))
	for i, rec := range records {
		partial := bson.M{}
		for k, v := range rec.Partial {
			partial[k] = v
		}
		docs[i] = bson.M{
			"batch_id":       batchID,
			"input_index":    rec.Index,
			"field":          rec.Field,
			"reason":         rec.Reason.String(),
			"partial":        partial,
			"quarantined_at": now,
		}
	}

	if _, err := a.collection.InsertMany(ctx, docs); err != nil {
		return &QuarantineArchiveError{Op: "insert_many", Err: err}
	}

	a.stats.RecordsArchived += int64(len(records))
	a.stats.BatchesArchived++
	a.stats.ArchiveDuration += time.Since(start)
	a.stats.LastArchiveTime = time.Now()
	return nil
}

// Close disconnects from MongoDB.
func (a *QuarantineArchive) Close(ctx context.Context) error {
	return a.client.Disconnect(ctx)
}

// Stats returns archive statistics.
func (a *QuarantineArchive) Stats() QuarantineArchiveStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}
