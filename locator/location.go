// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package locator resolves the banking service points nearest to a
// coordinate: it normalizes provider records into Locations, keeps them in
// immutable store generations and answers ranked proximity queries.
package locator

import (
	"github.com/jcodagnone/cajero/spatial"
)

// RawRecord is one provider record as decoded from its dataset, using the
// provider's own field names.
type RawRecord map[string]any

// Location is the canonical service point every provider record is mapped to.
// Locations reachable from a Generation are shared between readers and must
// not be modified.
type Location struct {
	ID          string        `json:"id"`
	Provider    string        `json:"provider"`
	ServiceType ServiceType   `json:"serviceType"`
	DisplayName string        `json:"displayName"`
	Address     string        `json:"address"`
	Point       spatial.Point `json:"point"`
	Hours       string        `json:"hours,omitempty"`
	Phone       string        `json:"phone,omitempty"`
	Services    []string      `json:"services,omitempty"`
}
