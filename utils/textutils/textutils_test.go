// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package textutils

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLowerAsciiFolding(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "hello world"},
		{"  Spaces  ", "spaces"},
		{"Áéíóú", "aeiou"},
		{"Rəqəmsal Mərkəz", "reqemsal merkez"},
		{"Ödəniş terminalı", "odenis terminali"},
		{"Kapital Bank", "kapital bank"},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, LowerASCIIFolding(tc.input))
		})
	}
}

func TestFoldKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"cash_in", "cashin"},
		{"Cash-In", "cashin"},
		{"CASH IN", "cashin"},
		{"reqemsal-merkez", "reqemsalmerkez"},
		{"rəqəmsal mərkəz", "reqemsalmerkez"},
		{"payment_terminal", "paymentterminal"},
		{"  ", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, FoldKey(tc.input))
		})
	}
}

func TestAnyToFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected float64
		ok       bool
	}{
		{"float64", 40.3777, 40.3777, true},
		{"int", 40, 40, true},
		{"json.Number", json.Number("49.892"), 49.892, true},
		{"string", " 40.3777 ", 40.3777, true},
		{"decimal comma", "40,3777", 40.3777, true},
		{"thousands and decimal", "1,000.5", 0, false},
		{"empty string", "", 0, false},
		{"garbage", "north", 0, false},
		{"nan string", "NaN", 0, false},
		{"inf", math.Inf(1), 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := AnyToFloat(tc.input)
			assert.Equal(t, tc.ok, ok)
			assert.InDelta(t, tc.expected, got, 1e-12)
		})
	}
}

func TestAnyToString(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
		ok       bool
	}{
		{"string", "  Nizami st. 1 ", "Nizami st. 1", true},
		{"integral float", float64(1234), "1234", true},
		{"json.Number", json.Number("00017"), "00017", true},
		{"int", 7, "7", true},
		{"nil", nil, "", false},
		{"map", map[string]any{}, "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := AnyToString(tc.input)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestAnyToStringSlice(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected []string
		ok       bool
	}{
		{"nil", nil, nil, true},
		{"[]string", []string{"a", "b"}, []string{"a", "b"}, true},
		{"comma separated", "nfc, cash in ,", []string{"nfc", "cash in"}, true},
		{"[]any", []any{"nfc", "", 24}, []string{"nfc", "24"}, true},
		{"[]any invalid", []any{"a", map[string]any{}}, nil, false},
		{"not a slice", 42, nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, ok := AnyToStringSlice(tc.input)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, res)
		})
	}
}

func TestFormatInt(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0"},
		{12, "12"},
		{1234, "1,234"},
		{1234567, "1,234,567"},
		{-1234, "-1,234"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatInt(tc.input))
		})
	}
}
