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

package readers

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3FetcherError provides structured error information for S3 fetch operations
type S3FetcherError struct {
	Op  string // Operation that failed (e.g., "validate_options", "get_object")
	Err error  // Underlying error
}

func (e *S3FetcherError) Error() string {
	return fmt.Sprintf("s3 fetcher %s: %v", e.Op, e.Err)
}

func (e *S3FetcherError) Unwrap() error {
	return e.Err
}

// S3FetcherStats holds statistics about fetched batch objects
type S3FetcherStats struct {
	ObjectsFetched int64         // Total objects successfully fetched
	BytesRead      int64         // Total payload bytes read
	FetchDuration  time.Duration // Total time spent fetching
	LastFetchTime  time.Time     // Time of last fetch
	LastKey        string        // Most recently fetched key
}

// S3FetcherOptions configures the S3 fetcher behavior
type S3FetcherOptions struct {
	Bucket         string          // S3 bucket name
	Region         string          // AWS region
	Profile        string          // AWS profile to use
	Credentials    aws.Credentials // Explicit credentials
	EndpointURL    string          // Custom S3 endpoint (for S3-compatible services)
	ForcePathStyle bool            // Use path-style addressing
}

// FetcherOptionS3 represents a configuration function for S3Fetcher
type FetcherOptionS3 func(*S3FetcherOptions)

func WithS3Bucket(bucket string) FetcherOptionS3 {
	return func(opts *S3FetcherOptions) {
		opts.Bucket = bucket
	}
}

func WithS3Region(region string) FetcherOptionS3 {
	return func(opts *S3FetcherOptions) {
		opts.Region = region
	}
}

func WithS3Profile(profile string) FetcherOptionS3 {
	return func(opts *S3FetcherOptions) {
		opts.Profile = profile
	}
}

func WithS3Credentials(creds aws.Credentials) FetcherOptionS3 {
	return func(opts *S3FetcherOptions) {
		opts.Credentials = creds
	}
}

func WithS3Endpoint(endpoint string) FetcherOptionS3 {
	return func(opts *S3FetcherOptions) {
		opts.EndpointURL = endpoint
	}
}

func WithS3PathStyle(pathStyle bool) FetcherOptionS3 {
	return func(opts *S3FetcherOptions) {
		opts.ForcePathStyle = pathStyle
	}
}

// S3Fetcher retrieves raw batch payloads from Amazon S3. One fetcher serves
// many keys in the same bucket; it is safe for concurrent use.
type S3Fetcher struct {
	client *s3.Client
	opts   S3FetcherOptions
	stats  S3FetcherStats
	mu     sync.RWMutex
}

// NewS3Fetcher creates a new S3 fetcher with the specified options
func NewS3Fetcher(options ...FetcherOptionS3) (*S3Fetcher, error) {
	opts := S3FetcherOptions{}
	for _, option := range options {
		option(&opts)
	}

	if opts.Bucket == "" {
		return nil, &S3FetcherError{Op: "validate_options", Err: fmt.Errorf("bucket is required")}
	}

	cfg, err := createAWSConfig(opts.Region, opts.Profile, opts.Credentials)
	if err != nil {
		return nil, &S3FetcherError{Op: "create_aws_config", Err: err}
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.EndpointURL != "" {
			o.BaseEndpoint = aws.String(opts.EndpointURL)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})

	return &S3Fetcher{client: client, opts: opts}, nil
}

// Fetch retrieves one object and returns its payload. The caller owns the
// returned bytes.
func (f *S3Fetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()

	result, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.opts.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &S3FetcherError{Op: "get_object", Err: fmt.Errorf("key %s: %w", key, err)}
	}
	defer result.Body.Close()

	payload, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, &S3FetcherError{Op: "read_body", Err: fmt.Errorf("key %s: %w", key, err)}
	}

	f.mu.Lock()
	f.stats.ObjectsFetched++
	f.stats.BytesRead += int64(len(payload))
	f.stats.FetchDuration += time.Since(start)
	f.stats.LastFetchTime = time.Now()
	f.stats.LastKey = key
	f.mu.Unlock()

	return payload, nil
}

// Stats returns fetch statistics
func (f *S3Fetcher) Stats() S3FetcherStats {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.stats
}

// createAWSConfig creates AWS configuration from options
func createAWSConfig(region, profile string, creds aws.Credentials) (aws.Config, error) {
	configOpts := []func(*config.LoadOptions) error{}

	if region != "" {
		configOpts = append(configOpts, config.WithRegion(region))
	}

	if profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(profile))
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return aws.Config{}, err
	}

	if creds.AccessKeyID != "" {
		cfg.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(
				creds.AccessKeyID,
				creds.SecretAccessKey,
				creds.SessionToken,
			),
		)
	}

	return cfg, nil
}
