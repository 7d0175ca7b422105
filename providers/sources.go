// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package providers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/jcodagnone/cajero/locator"
)

// Fetcher returns the raw records of a dataset.
type Fetcher interface {
	Fetch(ctx context.Context, ref Reference) ([]locator.RawRecord, error)
}

// Sources fetches datasets from files, HTTP endpoints, S3 buckets and
// PostgreSQL tables, chosen by the scheme of the reference source.
type Sources struct {
	// DataDir resolves relative file paths.
	DataDir string
	// HTTP fetches http and https sources.
	HTTP *HTTPSource
	// S3 fetches s3 sources. Nil disables them.
	S3 *S3Source
	// Postgres fetches postgres sources.
	Postgres *PostgresSource
}

var errUnsupportedSource = errors.New("unsupported source")

// Fetch implements Fetcher.
func (s *Sources) Fetch(ctx context.Context, ref Reference) ([]locator.RawRecord, error) {
	scheme := ""
	if i := strings.Index(ref.Source, "://"); i > 0 {
		scheme = strings.ToLower(ref.Source[:i])
	}

	switch scheme {
	case "", "file":
		return s.fetchFile(ref.Source)
	case "http", "https":
		if s.HTTP == nil {
			return nil, fmt.Errorf("%w: http client not configured for %s", errUnsupportedSource, ref.Source)
		}

		return s.HTTP.Fetch(ctx, ref)
	case "s3":
		if s.S3 == nil {
			return nil, fmt.Errorf("%w: S3 is not configured (set CAJERO_MINIO_ENDPOINT) for %s", errUnsupportedSource, ref.Source)
		}

		return s.S3.Fetch(ctx, ref)
	case "postgres", "postgresql":
		pg := s.Postgres
		if pg == nil {
			pg = &PostgresSource{}
		}

		return pg.Fetch(ctx, ref)
	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedSource, scheme)
	}
}

func (s *Sources) fetchFile(source string) ([]locator.RawRecord, error) {
	path := source

	if strings.HasPrefix(source, "file://") {
		u, err := url.Parse(source)
		if err != nil {
			return nil, fmt.Errorf("parsing file URI %q: %w", source, err)
		}

		path = u.Host + u.Path
	}

	if !filepath.IsAbs(path) && s.DataDir != "" {
		path = filepath.Join(s.DataDir, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	records, err := DecodeRecords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return records, nil
}
