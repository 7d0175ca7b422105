// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package providers

import (
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httputil"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const maxTraceLines, maxTraceChars = 2048, 512

// credentialHeader matches dumped header lines whose value must not reach a
// trace.
var credentialHeader = regexp.MustCompile(`(?i)^(authorization|proxy-authorization|cookie|set-cookie|x-api-key):.*$`)

// traceTransport dumps every dataset request and response to Writer.
type traceTransport struct {
	Transport http.RoundTripper
	Writer    io.Writer
	DumpBody  bool
}

// traceLines prefixes, redacts and shortens dumped lines.
func traceLines(dump []byte, prefix rune) string {
	lines := strings.Split(strings.TrimRight(string(dump), "\r\n"), "\n")

	truncated := len(lines) > maxTraceLines
	if truncated {
		lines = lines[:maxTraceLines]
	}

	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if name, _, ok := strings.Cut(line, ":"); ok && credentialHeader.MatchString(line) {
			line = name + ": [redacted]"
		}

		if len(line) > maxTraceChars {
			line = line[:maxTraceChars] + "…"
		}

		lines[i] = fmt.Sprintf("%c %s", prefix, line)
	}

	if truncated {
		lines = append(lines, "…")
	}

	return strings.Join(lines, "\n") + "\n"
}

// RoundTrip implements http.RoundTripper.
func (t *traceTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Writer == nil {
		return t.Transport.RoundTrip(req)
	}

	dump, err := httputil.DumpRequestOut(req, t.DumpBody)
	if err != nil {
		return nil, fmt.Errorf("tracing HTTP request: %w", err)
	}

	if _, err := io.WriteString(t.Writer, traceLines(dump, '>')); err != nil {
		return nil, fmt.Errorf("tracing HTTP request: %w", err)
	}

	start := time.Now()

	resp, err := t.Transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	dump, err = httputil.DumpResponse(resp, t.DumpBody)
	if err != nil {
		resp.Body.Close()

		return nil, fmt.Errorf("tracing HTTP response: %w", err)
	}

	if _, err := fmt.Fprintf(t.Writer, "< RESPONSE: [%v]\n%s", time.Since(start), traceLines(dump, '<')); err != nil {
		resp.Body.Close()

		return nil, fmt.Errorf("tracing HTTP response: %w", err)
	}

	return resp, nil
}

// defaultHeadersTransport adds Headers the request does not set itself.
type defaultHeadersTransport struct {
	Transport http.RoundTripper
	Headers   map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *defaultHeadersTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var clone *http.Request

	for k, v := range t.Headers {
		if req.Header.Get(k) != "" {
			continue
		}

		if clone == nil {
			clone = req.Clone(req.Context())
		}

		clone.Header.Set(k, v)
	}

	if clone != nil {
		req = clone
	}

	return t.Transport.RoundTrip(req)
}

// sessionJar keeps session cookies, the ones without an expiration, only for
// TTL. Provider endpoints hand out a fresh session on the first request of
// every refresh.
type sessionJar struct {
	jar *cookiejar.Jar
	TTL time.Duration
	now func() time.Time
}

func newSessionJar(jar *cookiejar.Jar, ttl time.Duration) *sessionJar {
	return &sessionJar{jar: jar, TTL: ttl, now: time.Now}
}

// SetCookies implements http.CookieJar.
func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	expires := j.now().Add(j.TTL)

	for _, cookie := range cookies {
		if cookie.Expires.IsZero() && cookie.MaxAge == 0 {
			cookie.Expires = expires
		}
	}

	j.jar.SetCookies(u, cookies)
}

// Cookies implements http.CookieJar.
func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}
