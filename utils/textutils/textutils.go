// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package textutils holds the string and loose-JSON helpers shared by the
// provider loaders and the record normalizer.
package textutils

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// letters without a canonical decomposition that NFD leaves untouched.
var undecomposable = strings.NewReplacer(
	"ə", "e",
	"ı", "i",
	"ł", "l",
	"ø", "o",
	"ß", "ss",
)

// LowerASCIIFolding normalizes a string by removing accents, lowercasing, and trimming spaces.
func LowerASCIIFolding(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		undecomposable.Replace(strings.TrimSpace(strings.ToLower(s))),
	)

	return s
}

// FoldKey folds s and drops everything but letters and digits, so that
// "Cash-In", "cash_in" and "CASH IN" share the key "cashin".
func FoldKey(s string) string {
	var b strings.Builder

	for _, r := range LowerASCIIFolding(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// AnyToFloat converts a decoded JSON value to a finite float64. Numeric
// strings are accepted, including a single decimal comma ("40,3777").
func AnyToFloat(v any) (float64, bool) {
	var f float64

	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}

		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
			s = strings.Replace(s, ",", ".", 1)
		}

		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}

		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return f, true
}

// AnyToString converts a decoded JSON scalar to a trimmed string. Numbers are
// rendered without exponent so numeric ids stay stable.
func AnyToString(v any) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", false
	case string:
		return strings.TrimSpace(s), true
	case json.Number:
		return s.String(), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case bool:
		return strconv.FormatBool(s), true
	default:
		return "", false
	}
}

// AnyToStringSlice converts an interface{} to []string safely. A single
// string is split on commas.
func AnyToStringSlice(v any) ([]string, bool) {
	if v == nil {
		return nil, true
	}

	if i, ok := v.([]string); ok {
		return i, true
	}

	if s, ok := v.(string); ok {
		var out []string

		for part := range strings.SplitSeq(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}

		return out, true
	}

	if i, ok := v.([]any); ok {
		s := make([]string, 0, len(i))

		for _, e := range i {
			val, ok := AnyToString(e)
			if !ok {
				return nil, false
			}

			if val != "" {
				s = append(s, val)
			}
		}

		return s, true
	}

	return nil, false
}

// FormatInt formats an integer with commas for human readability.
func FormatInt(n int64) string {
	in := strconv.FormatInt(n, 10)

	numOfDigits := len(in)
	if n < 0 {
		numOfDigits-- // First character is the - sign (not a digit)
	}

	numOfCommas := (numOfDigits - 1) / 3

	out := make([]byte, len(in)+numOfCommas)
	if n < 0 {
		in, out[0] = in[1:], '-'
	}

	for i, j, k := len(in)-1, len(out)-1, 0; ; i, j = i-1, j-1 {
		out[j] = in[i]
		if i == 0 {
			return string(out)
		}

		if k++; k == 3 {
			j, k = j-1, 0
			out[j] = ','
		}
	}
}
