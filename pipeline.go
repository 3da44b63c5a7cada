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
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/mrgdevelops/ETL-pipeline/derive"
	"github.com/mrgdevelops/ETL-pipeline/normalize"
	"github.com/mrgdevelops/ETL-pipeline/quarantine"
	"github.com/mrgdevelops/ETL-pipeline/readers"
	"github.com/mrgdevelops/ETL-pipeline/schema"
)

// PipelineError wraps pipeline-level failures with context about the stage.
type PipelineError struct {
	Op  string // The stage that failed (e.g., "parse", "write_record")
	Err error  // The underlying error
}

// Error returns the error string for PipelineError.
func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for PipelineError.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Result summarizes one processed batch.
type Result struct {
	Total       int           // Records in the input batch
	Accepted    int           // Records written to the row sink
	Quarantined int           // Records written to the quarantine sink
	Duration    time.Duration // Wall time for the whole batch
}

// PipelineBuilder provides a fluent API for constructing transformation
// pipelines. Use NewPipeline() to create a builder, then chain WithSchema,
// WithConfig, WithWorkers, and Build.
type PipelineBuilder struct {
	schema  *schema.Schema
	config  *schema.Config
	workers int
}

// NewPipeline creates a new PipelineBuilder.
func NewPipeline() *PipelineBuilder {
	return &PipelineBuilder{}
}

// WithSchema sets the trip schema. Defaults to schema.TripSchema().
func (pb *PipelineBuilder) WithSchema(s *schema.Schema) *PipelineBuilder {
	pb.schema = s
	return pb
}

// WithConfig sets the cleaning configuration. Defaults to
// schema.DefaultConfig().
func (pb *PipelineBuilder) WithConfig(cfg *schema.Config) *PipelineBuilder {
	pb.config = cfg
	return pb
}

// WithWorkers sets the number of transform workers. Defaults to the number
// of CPUs.
func (pb *PipelineBuilder) WithWorkers(n int) *PipelineBuilder {
	pb.workers = n
	return pb
}

// Build validates and constructs the Pipeline.
func (pb *PipelineBuilder) Build() (*Pipeline, error) {
	s := pb.schema
	if s == nil {
		s = schema.TripSchema()
	}
	cfg := pb.config
	if cfg == nil {
		cfg = schema.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, &PipelineError{Op: "build", Err: err}
	}
	workers := pb.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Pipeline{
		schema:     s,
		config:     cfg,
		workers:    workers,
		normalizer: normalize.NewNormalizer(s, cfg),
	}, nil
}

// Pipeline transforms raw trip batches. It is stateless between batches
// and safe for concurrent use.
type Pipeline struct {
	schema     *schema.Schema
	config     *schema.Config
	workers    int
	normalizer *normalize.Normalizer
}

// outcome is the transform result for one input position. Exactly one of
// accepted or rejected is set.
type outcome struct {
	accepted schema.Record
	rejected *quarantine.Record
}

// Run transforms a parsed batch. Records fan out across the worker pool
// and land in an index-addressed slice, so the returned slices preserve
// input order regardless of scheduling. The same batch always produces the
// same output.
func (p *Pipeline) Run(ctx context.Context, raws []schema.RawRecord) ([]schema.Record, []quarantine.Record, error) {
	outcomes := make([]outcome, len(raws))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = p.transform(i, raws[i])
			}
		}()
	}

	var ctxErr error
feed:
	for i := range raws {
		select {
		case jobs <- i:
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if ctxErr != nil {
		return nil, nil, &PipelineError{Op: "run", Err: ctxErr}
	}

	accepted := make([]schema.Record, 0, len(raws))
	rejected := make([]quarantine.Record, 0)
	for _, out := range outcomes {
		if out.rejected != nil {
			rejected = append(rejected, *out.rejected)
			continue
		}
		accepted = append(accepted, out.accepted)
	}
	return accepted, rejected, nil
}

// transform cleans and enriches one record.
func (p *Pipeline) transform(index int, raw schema.RawRecord) outcome {
	rec, ferr := p.normalizer.Apply(raw)
	if ferr != nil {
		return outcome{rejected: &quarantine.Record{
			Index:   index,
			Field:   ferr.Field,
			Reason:  ferr.Reason,
			Partial: rec,
		}}
	}
	derive.Compute(rec, p.config)
	return outcome{accepted: rec}
}

// Execute parses an input batch and writes its transformed records and
// quarantine report to the given sinks. Sinks are flushed but not closed;
// the caller owns their lifecycle.
//
// A payload that is not a JSON array of objects fails the whole batch
// before anything is written.
func (p *Pipeline) Execute(ctx context.Context, input io.Reader, rows RowSink, quarantined QuarantineSink) (Result, error) {
	start := time.Now()

	raws, err := readers.ParseBatch(input)
	if err != nil {
		return Result{}, &PipelineError{Op: "parse", Err: err}
	}

	accepted, rejected, err := p.Run(ctx, raws)
	if err != nil {
		return Result{}, err
	}

	for _, rec := range accepted {
		if err := rows.Write(ctx, rec); err != nil {
			return Result{}, &PipelineError{Op: "write_record", Err: err}
		}
	}
	if err := rows.Flush(); err != nil {
		return Result{}, &PipelineError{Op: "flush_records", Err: err}
	}

	for _, rec := range rejected {
		if err := quarantined.Write(ctx, rec); err != nil {
			return Result{}, &PipelineError{Op: "write_quarantine", Err: err}
		}
	}
	if err := quarantined.Flush(); err != nil {
		return Result{}, &PipelineError{Op: "flush_quarantine", Err: err}
	}

	return Result{
		Total:       len(raws),
		Accepted:    len(accepted),
		Quarantined: len(rejected),
		Duration:    time.Since(start),
	}, nil
}
