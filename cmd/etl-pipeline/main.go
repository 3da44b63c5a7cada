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

// Package main provides the CLI entry point for the trip transformation
// pipeline.
package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	etl "github.com/mrgdevelops/ETL-pipeline"
	"github.com/mrgdevelops/ETL-pipeline/internal/logger"
	"github.com/mrgdevelops/ETL-pipeline/quarantine"
	"github.com/mrgdevelops/ETL-pipeline/readers"
	"github.com/mrgdevelops/ETL-pipeline/schema"
	"github.com/mrgdevelops/ETL-pipeline/writers"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitConfigError  = 1
	ExitInputError   = 2
	ExitRuntimeError = 3
)

var (
	// Global flags
	verbose bool
	quiet   bool

	// Run command flags
	configPath     string
	inputPath      string
	outputPath     string
	quarantinePath string
	parquetPath    string
	workers        int
	s3Bucket       string
	s3Key          string
	s3Region       string
	s3OutBucket    string
	s3OutPrefix    string
	warehouseDSN   string
	warehouseTable string
	mongoURI       string

	// Build information (set via ldflags during build)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitRuntimeError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "etl-pipeline",
	Short: "ETL-Pipeline - Bus trip record transformation",
	Long: `ETL-Pipeline transforms raw bus trip batches into analysis-ready CSV.

A batch is a JSON array of trip objects. Each record is cleaned against the
trip schema, enriched with delay and average speed, and routed either to
the transformed output or to the quarantine report.

Examples:
  # Transform a local batch
  etl-pipeline run --input batch.json --output trips.csv --quarantine quarantine.csv

  # Fetch the batch from S3 and load the warehouse
  etl-pipeline run --s3-bucket raw-trips --s3-key 2024/03/15/batch.json \
    --output trips.csv --quarantine quarantine.csv \
    --warehouse-dsn "postgres://etl@db/warehouse"`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetLevel(slog.LevelDebug)
		} else if quiet {
			logger.SetLevel(slog.LevelError)
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Transform one trip batch",
	Long: `Transform one trip batch from a local file or S3 object.

Exit codes:
  0 - Batch transformed successfully
  1 - Configuration errors
  2 - Input errors (missing or malformed batch)
  3 - Runtime errors

Examples:
  etl-pipeline run --input batch.json --output trips.csv --quarantine quarantine.csv
  etl-pipeline run --input batch.json --output trips.csv --quarantine quarantine.csv --parquet trips.parquet`,
	Run: runTransform,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version, commit hash, and build date information.",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Build Date: %s\n", buildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")

	runCmd.Flags().StringVar(&configPath, "config", "", "Cleaning configuration file (YAML, optional)")
	runCmd.Flags().StringVar(&inputPath, "input", "", "Input batch file (JSON array)")
	runCmd.Flags().StringVar(&outputPath, "output", "", "Transformed trips CSV path (required)")
	runCmd.Flags().StringVar(&quarantinePath, "quarantine", "", "Quarantine report CSV path (required)")
	runCmd.Flags().StringVar(&parquetPath, "parquet", "", "Optional Parquet copy of the transformed trips")
	runCmd.Flags().IntVar(&workers, "workers", 0, "Transform workers (default: number of CPUs)")
	runCmd.Flags().StringVar(&s3Bucket, "s3-bucket", "", "Fetch the input batch from this S3 bucket")
	runCmd.Flags().StringVar(&s3Key, "s3-key", "", "S3 key of the input batch")
	runCmd.Flags().StringVar(&s3Region, "s3-region", "", "AWS region for S3 access")
	runCmd.Flags().StringVar(&s3OutBucket, "s3-output-bucket", "", "Upload output artifacts to this S3 bucket")
	runCmd.Flags().StringVar(&s3OutPrefix, "s3-output-prefix", "", "Key prefix for uploaded artifacts")
	runCmd.Flags().StringVar(&warehouseDSN, "warehouse-dsn", "", "Load accepted records into this PostgreSQL warehouse")
	runCmd.Flags().StringVar(&warehouseTable, "warehouse-table", "viajes_transformados", "Warehouse table name")
	runCmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "Archive quarantined records to this MongoDB instance")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func runTransform(_ *cobra.Command, _ []string) {
	ctx := context.Background()
	batchID := uuid.New().String()
	log := logger.WithBatch(batchID)

	if outputPath == "" || quarantinePath == "" {
		fmt.Fprintln(os.Stderr, "✗ --output and --quarantine are required")
		os.Exit(ExitConfigError)
	}
	if (inputPath == "") == (s3Bucket == "") {
		fmt.Fprintln(os.Stderr, "✗ exactly one of --input or --s3-bucket/--s3-key is required")
		os.Exit(ExitConfigError)
	}

	cfg := schema.DefaultConfig()
	if configPath != "" {
		loaded, err := schema.LoadConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ Failed to load configuration: %v\n", err)
			os.Exit(ExitConfigError)
		}
		cfg = loaded
	}

	pipeline, err := etl.NewPipeline().
		WithConfig(cfg).
		WithWorkers(workers).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Failed to build pipeline: %v\n", err)
		os.Exit(ExitConfigError)
	}

	payload, source, err := fetchInput(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Failed to read input batch: %v\n", err)
		os.Exit(ExitInputError)
	}

	logger.LogBatchStart(batchID, source)
	start := time.Now()

	raws, err := readers.ParseBatch(bytes.NewReader(payload))
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Malformed input batch: %v\n", err)
		os.Exit(ExitInputError)
	}

	accepted, rejected, err := pipeline.Run(ctx, raws)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Transformation failed: %v\n", err)
		os.Exit(ExitRuntimeError)
	}

	if err := writeOutputs(ctx, accepted, rejected); err != nil {
		fmt.Fprintf(os.Stderr, "✗ Failed to write outputs: %v\n", err)
		os.Exit(ExitRuntimeError)
	}

	if warehouseDSN != "" {
		if err := loadWarehouse(ctx, accepted); err != nil {
			fmt.Fprintf(os.Stderr, "✗ Warehouse load failed: %v\n", err)
			os.Exit(ExitRuntimeError)
		}
		log.Info("warehouse loaded", slog.Int("records", len(accepted)))
	}

	if mongoURI != "" {
		if err := archiveQuarantine(ctx, batchID, rejected); err != nil {
			fmt.Fprintf(os.Stderr, "✗ Quarantine archive failed: %v\n", err)
			os.Exit(ExitRuntimeError)
		}
		log.Info("quarantine archived", slog.Int("records", len(rejected)))
	}

	if s3OutBucket != "" {
		if err := uploadOutputs(ctx, batchID); err != nil {
			fmt.Fprintf(os.Stderr, "✗ Upload failed: %v\n", err)
			os.Exit(ExitRuntimeError)
		}
	}

	logger.LogBatchEnd(batchID, len(raws), len(accepted), len(rejected), time.Since(start))
	if !quiet {
		fmt.Println("✓ Batch transformed successfully")
		fmt.Printf("  Records total: %d\n", len(raws))
		fmt.Printf("  Records accepted: %d\n", len(accepted))
		fmt.Printf("  Records quarantined: %d\n", len(rejected))
	}
	os.Exit(ExitSuccess)
}

// fetchInput reads the batch payload from the configured source.
func fetchInput(ctx context.Context) ([]byte, string, error) {
	if s3Bucket != "" {
		if s3Key == "" {
			return nil, "", fmt.Errorf("--s3-key is required with --s3-bucket")
		}
		fetcher, err := readers.NewS3Fetcher(
			readers.WithS3Bucket(s3Bucket),
			readers.WithS3Region(s3Region),
		)
		if err != nil {
			return nil, "", err
		}
		payload, err := fetcher.Fetch(ctx, s3Key)
		if err != nil {
			return nil, "", err
		}
		return payload, "s3://" + s3Bucket + "/" + s3Key, nil
	}

	payload, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, "", err
	}
	return payload, inputPath, nil
}

// writeOutputs writes the trip CSV, the quarantine report, and the optional
// Parquet copy.
func writeOutputs(ctx context.Context, accepted []schema.Record, rejected []quarantine.Record) error {
	tripFile, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	tripSink, err := writers.NewTripWriter(tripFile, schema.TripSchema())
	if err != nil {
		tripFile.Close()
		return err
	}
	for _, rec := range accepted {
		if err := tripSink.Write(ctx, rec); err != nil {
			tripSink.Close()
			return err
		}
	}
	if err := tripSink.Close(); err != nil {
		return err
	}

	quarFile, err := os.Create(quarantinePath)
	if err != nil {
		return err
	}
	quarSink, err := writers.NewReportWriter(quarFile, schema.TripSchema())
	if err != nil {
		quarFile.Close()
		return err
	}
	for _, rec := range rejected {
		if err := quarSink.Write(ctx, rec); err != nil {
			quarSink.Close()
			return err
		}
	}
	if err := quarSink.Close(); err != nil {
		return err
	}

	if parquetPath != "" {
		pw, err := writers.NewParquetWriter(parquetPath, schema.TripSchema())
		if err != nil {
			return err
		}
		if err := pw.WriteBatch(ctx, accepted); err != nil {
			pw.Close()
			return err
		}
		if err := pw.Close(); err != nil {
			return err
		}
	}

	return nil
}

// loadWarehouse bulk-loads accepted records into the PostgreSQL warehouse.
func loadWarehouse(ctx context.Context, accepted []schema.Record) error {
	loader, err := writers.NewWarehouseLoader(schema.TripSchema(),
		writers.WithWarehouseDSN(warehouseDSN),
		writers.WithWarehouseTable(warehouseTable),
	)
	if err != nil {
		return err
	}
	defer loader.Close()
	return loader.Load(ctx, accepted)
}

// archiveQuarantine stores quarantined records in MongoDB under the batch ID.
func archiveQuarantine(ctx context.Context, batchID string, rejected []quarantine.Record) error {
	archive, err := writers.NewQuarantineArchive(ctx, writers.WithArchiveURI(mongoURI))
	if err != nil {
		return err
	}
	defer archive.Close(ctx)
	return archive.Archive(ctx, batchID, rejected)
}

// now is replaced in tests to pin the output key timestamp.
var now = time.Now

// outputKey builds the object key for one uploaded artifact. The prefix
// carries the batch timestamp and ID so reruns never overwrite earlier
// output.
func outputKey(prefix, batchID, name string, at time.Time) string {
	stamp := at.UTC().Format("20060102T150405")
	return path.Join(prefix, stamp+"_"+batchID, name)
}

// uploadOutputs uploads the written artifacts to the output bucket.
func uploadOutputs(ctx context.Context, batchID string) error {
	putter, err := writers.NewS3Putter(
		writers.WithS3Bucket(s3OutBucket),
		writers.WithS3Region(s3Region),
	)
	if err != nil {
		return err
	}

	artifacts := map[string]string{
		"trips.csv":      outputPath,
		"quarantine.csv": quarantinePath,
	}
	if parquetPath != "" {
		artifacts["trips.parquet"] = parquetPath
	}

	at := now()
	for name, localPath := range artifacts {
		payload, err := os.ReadFile(localPath)
		if err != nil {
			return err
		}
		key := outputKey(s3OutPrefix, batchID, name, at)
		if err := putter.Put(ctx, key, payload); err != nil {
			return err
		}
	}
	return nil
}
