// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package archive pulls and pushes DBC source files from an S3-compatible
// bucket, the toolkit's equivalent of the teacher's job-archive storage
// layer.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config describes how to reach the bucket a Store pulls from and
// pushes to.
type Config struct {
	Bucket       string
	Region       string
	Prefix       string
	Endpoint     string // non-empty for S3-compatible services, e.g. MinIO
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// Store pulls and pushes DBC source text objects under a fixed prefix
// of one S3 bucket.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// Open builds a Store from cfg, resolving AWS credentials from cfg if
// given or, when both are empty, from the process environment/shared
// config the way the default AWS credential chain does.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive: empty bucket name")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	optFns := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("archive: load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &Store{client: client, bucket: cfg.Bucket, prefix: strings.Trim(cfg.Prefix, "/")}, nil
}

func (s *Store) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

// Pull fetches the DBC source text stored under name.
func (s *Store) Pull(ctx context.Context, name string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return nil, fmt.Errorf("archive: get object %q: %w", name, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// Push uploads DBC source text under name, overwriting any prior object.
func (s *Store) Push(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/plain"),
	})
	if err != nil {
		return fmt.Errorf("archive: put object %q: %w", name, err)
	}
	return nil
}

// List returns every object name under the store's prefix, stripped of
// that prefix, filtered to a suffix (commonly ".dbc"; pass "" for all).
func (s *Store) List(ctx context.Context, suffix string) ([]string, error) {
	var names []string
	var prefixArg *string
	if s.prefix != "" {
		prefixArg = aws.String(s.prefix + "/")
	}
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: prefixArg,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("archive: list objects: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			name := strings.TrimPrefix(*obj.Key, s.prefix+"/")
			if suffix == "" || strings.HasSuffix(name, suffix) {
				names = append(names, name)
			}
		}
	}
	return names, nil
}
