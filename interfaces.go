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

package etl

import (
	"context"

	"github.com/mrgdevelops/ETL-pipeline/quarantine"
	"github.com/mrgdevelops/ETL-pipeline/schema"
)

// Package etl transforms raw bus trip batches into analysis-ready records.
//
// A batch flows through four stages: parse (JSON array in), normalize
// (per-field cleaning against the trip schema), derive (delay and average
// speed), and route (accepted records to a RowSink, rejected records to a
// QuarantineSink). A malformed batch fails as a whole; a bad record only
// quarantines that record.
//
// This file contains the sink interfaces the pipeline writes to.

// RowSink receives transformed trip records. The pipeline writes from a
// single goroutine, in input order.
type RowSink interface {
	// Write accepts one transformed record.
	Write(ctx context.Context, record schema.Record) error

	// Flush writes any buffered output through to the destination.
	Flush() error

	// Close flushes and releases the destination.
	Close() error
}

// QuarantineSink receives quarantined records, in input order.
type QuarantineSink interface {
	// Write accepts one quarantined record.
	Write(ctx context.Context, record quarantine.Record) error

	// Flush writes any buffered output through to the destination.
	Flush() error

	// Close flushes and releases the destination.
	Close() error
}
