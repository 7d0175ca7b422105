// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package locator

import (
	"errors"
	"fmt"
)

var (
	// ErrAllProvidersFailed is returned by a refresh in which no provider
	// produced a usable dataset.
	ErrAllProvidersFailed = errors.New("all providers failed")
	// ErrRefreshInProgress is returned when a refresh overlaps a running one.
	ErrRefreshInProgress = errors.New("refresh already in progress")
)

// ValidationError reports a malformed query request.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Field, e.Reason, e.Err)
	}

	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var vErr *ValidationError

	return errors.As(err, &vErr)
}

// ValidationField returns the offending field of a validation error, or "".
func ValidationField(err error) string {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Field
	}

	return ""
}
