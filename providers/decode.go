// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package providers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jcodagnone/cajero/locator"
)

// MaxDatasetBytes bounds the size of a single dataset.
const MaxDatasetBytes = 64 << 20

var errDatasetTooLarge = errors.New("dataset too large")

// wrapperKeys are the fields under which APIs commonly nest their record
// arrays.
var wrapperKeys = []string{"data", "items", "locations", "results"}

// DecodeRecords reads a JSON dataset: either an array of objects or an object
// wrapping one under a well known key. Numbers are kept as json.Number.
// Elements that are not objects become nil records so the normalizer can
// report them.
func DecodeRecords(r io.Reader) ([]locator.RawRecord, error) {
	return decodeRecords(r, MaxDatasetBytes)
}

func decodeRecords(r io.Reader, maxBytes int64) ([]locator.RawRecord, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}

	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", errDatasetTooLarge, maxBytes)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty dataset")
	}

	var root any

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("decoding dataset: %w", err)
	}

	items, ok := root.([]any)
	if !ok {
		obj, isObj := root.(map[string]any)
		if !isObj {
			return nil, fmt.Errorf("dataset is a JSON %T, expected an array or object", root)
		}

		for _, key := range wrapperKeys {
			if items, ok = obj[key].([]any); ok {
				break
			}
		}

		if !ok {
			return nil, fmt.Errorf("dataset object has none of the keys %v holding an array", wrapperKeys)
		}
	}

	records := make([]locator.RawRecord, 0, len(items))

	for _, item := range items {
		m, _ := item.(map[string]any)
		records = append(records, locator.RawRecord(m))
	}

	return records, nil
}
