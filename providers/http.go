// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package providers

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"os"
	"time"

	"github.com/jcodagnone/cajero/locator"
	"golang.org/x/net/publicsuffix"
)

// HTTPOptions configures the HTTP dataset client.
type HTTPOptions struct {
	UserAgent       string
	EnableTrace     bool // dump requests and responses to stderr
	EnableBodyTrace bool
	Timeout         time.Duration
	MaxBodyBytes    int64 // defaults to MaxDatasetBytes
}

// HTTPSource fetches JSON datasets over HTTP.
type HTTPSource struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPSource creates a source with a cookie aware client. Some provider
// endpoints only answer once the session cookie of a first request is sent
// back.
func NewHTTPSource(options *HTTPOptions) *HTTPSource {
	if options == nil {
		options = &HTTPOptions{}
	}

	var httpLogWriter io.Writer
	if options.EnableTrace {
		httpLogWriter = os.Stderr
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		log.Fatalf("Failed to create cookie jar: %v", err)
	}

	cookieJar := newSessionJar(jar, 10*time.Minute)

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		MaxConnsPerHost:       4,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}

	tracing := &traceTransport{
		Writer:    httpLogWriter,
		DumpBody:  options.EnableBodyTrace,
		Transport: transport,
	}

	userAgent := "cajero/unknown"
	if options.UserAgent != "" {
		userAgent = options.UserAgent
	}

	headers := &defaultHeadersTransport{
		Headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "application/json, */*",
		},
		Transport: tracing,
	}

	timeout := options.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	maxBytes := options.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = MaxDatasetBytes
	}

	return &HTTPSource{
		maxBytes: maxBytes,
		client: &http.Client{
			Timeout:   timeout,
			Jar:       cookieJar,
			Transport: headers,
		},
	}
}

// Fetch downloads and decodes ref's dataset.
func (s *HTTPSource) Fetch(ctx context.Context, ref Reference) ([]locator.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.Source, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", ref.Name, err)
	}

	for k, v := range ref.Headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", ref.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", ref.Name, resp.Status)
	}

	records, err := decodeRecords(resp.Body, s.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", ref.Name, err)
	}

	return records, nil
}
