// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/jcodagnone/cajero/locator"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Options locates an S3 compatible object store.
type S3Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// S3Source reads datasets stored as JSON objects, addressed as
// s3://bucket/key.
type S3Source struct {
	open func(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// NewS3Source connects to the object store described by options.
func NewS3Source(options S3Options) (*S3Source, error) {
	if options.Endpoint == "" || options.AccessKey == "" || options.SecretKey == "" {
		return nil, errors.New("missing one or more required S3 settings: endpoint, access key, secret key")
	}

	client, err := minio.New(options.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(options.AccessKey, options.SecretKey, ""),
		Secure: options.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &S3Source{
		open: func(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
			return client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
		},
	}, nil
}

// Fetch downloads and decodes ref's dataset.
func (s *S3Source) Fetch(ctx context.Context, ref Reference) ([]locator.RawRecord, error) {
	bucket, key, err := parseS3URI(ref.Source)
	if err != nil {
		return nil, err
	}

	body, err := s.open(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s from S3: %w", ref.Source, err)
	}
	defer body.Close()

	records, err := DecodeRecords(body)
	if err != nil {
		// minio reports missing objects on the first read
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil, fmt.Errorf("no object at %s: %w", ref.Source, err)
		}

		return nil, fmt.Errorf("reading %s: %w", ref.Source, err)
	}

	return records, nil
}

func parseS3URI(source string) (string, string, error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", "", fmt.Errorf("parsing S3 URI %q: %w", source, err)
	}

	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("not an S3 URI: %q", source)
	}

	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("S3 URI %q must look like s3://bucket/key", source)
	}

	return u.Host, key, nil
}
