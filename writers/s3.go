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
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3PutterError provides structured error information for S3 upload operations
type S3PutterError struct {
	Op  string
	Err error
}

func (e *S3PutterError) Error() string {
	return fmt.Sprintf("s3 putter %s: %v", e.Op, e.Err)
}

func (e *S3PutterError) Unwrap() error {
	return e.Err
}

// S3PutterStats holds statistics about uploaded artifacts
type S3PutterStats struct {
	ObjectsPut   int64
	BytesWritten int64
	PutDuration  time.Duration
	LastPutTime  time.Time
	LastKey      string
}

// S3PutterOptions configures the S3 putter behavior
type S3PutterOptions struct {
	Bucket         string
	Region         string
	Profile        string
	Credentials    aws.Credentials
	EndpointURL    string
	ForcePathStyle bool
	ContentType    string
}

// PutterOptionS3 represents a configuration function for S3Putter
type PutterOptionS3 func(*S3PutterOptions)

func WithS3Bucket(bucket string) PutterOptionS3 {
	return func(opts *S3PutterOptions) {
		opts.Bucket = bucket
	}
}

func WithS3Region(region string) PutterOptionS3 {
	return func(opts *S3PutterOptions) {
		opts.Region = region
	}
}

func WithS3Profile(profile string) PutterOptionS3 {
	return func(opts *S3PutterOptions) {
		opts.Profile = profile
	}
}

func WithS3Credentials(creds aws.Credentials) PutterOptionS3 {
	return func(opts *S3PutterOptions) {
		opts.Credentials = creds
	}
}

func WithS3Endpoint(endpoint string) PutterOptionS3 {
	return func(opts *S3PutterOptions) {
		opts.EndpointURL = endpoint
	}
}

func WithS3PathStyle(pathStyle bool) PutterOptionS3 {
	return func(opts *S3PutterOptions) {
		opts.ForcePathStyle = pathStyle
	}
}

func WithS3ContentType(contentType string) PutterOptionS3 {
	return func(opts *S3PutterOptions) {
		opts.ContentType = contentType
	}
}

// S3Putter uploads finished batch artifacts (trip CSV, quarantine report)
// to Amazon S3. Safe for concurrent use.
type S3Putter struct {
	client *s3.Client
	opts   S3PutterOptions
	stats  S3PutterStats
	mu     sync.RWMutex
}

// NewS3Putter creates a new S3 putter with the specified options
func NewS3Putter(options ...PutterOptionS3) (*S3Putter, error) {
	opts := S3PutterOptions{
		ContentType: "text/csv",
	}
	for _, option := range options {
		option(&opts)
	}

	if opts.Bucket == "" {
		return nil, &S3PutterError{Op: "validate_options", Err: fmt.Errorf("bucket is required")}
	}

	cfg, err := createAWSConfig(opts.Region, opts.Profile, opts.Credentials)
	if err != nil {
		return nil, &S3PutterError{Op: "create_aws_config", Err: err}
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.EndpointURL != "" {
			o.BaseEndpoint = aws.String(opts.EndpointURL)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})

	return &S3Putter{client: client, opts: opts}, nil
}

// Put uploads one artifact under the given key.
func (p *S3Putter) Put(ctx context.Context, key string, payload []byte) error {
	start := time.Now()

	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.opts.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String(p.opts.ContentType),
	})
	if err != nil {
		return &S3PutterError{Op: "put_object", Err: fmt.Errorf("key %s: %w", key, err)}
	}

	p.mu.Lock()
	p.stats.ObjectsPut++
	p.stats.BytesWritten += int64(len(payload))
	p.stats.PutDuration += time.Since(start)
	p.stats.LastPutTime = time.Now()
	p.stats.LastKey = key
	p.mu.Unlock()

	return nil
}

// Stats returns upload statistics
func (p *S3Putter) Stats() S3PutterStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
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
