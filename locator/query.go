// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package locator

import (
	"cmp"
	"slices"
	"strings"

	"github.com/jcodagnone/cajero/spatial"
)

// FilterAll disables the service type or provider filter.
const FilterAll = "all"

// Query selects the locations within RadiusKm of Origin.
type Query struct {
	Origin   spatial.Point
	RadiusKm float64
	// ServiceType and Provider are filters; empty or FilterAll match
	// everything, values matching nothing yield no results.
	ServiceType string
	Provider    string
	// Limit caps the number of results; zero means no limit.
	Limit int
}

// Ranked is a location together with its distance to the query origin.
type Ranked struct {
	Location   *Location
	DistanceKm float64
}

// Search runs q against one generation. Results are ordered by distance, then
// by id, and truncated to the limit.
func Search(gen *Generation, q Query) []Ranked {
	if !(q.RadiusKm > 0) || gen == nil {
		return nil
	}

	var wantType ServiceType

	if !isFilterAll(q.ServiceType) {
		st, ok := ParseServiceType(q.ServiceType)
		if !ok && !strings.EqualFold(strings.TrimSpace(q.ServiceType), string(ServiceOther)) {
			return nil
		}

		wantType = st
	}

	var wantProviders []string

	if !isFilterAll(q.Provider) {
		if wantProviders = gen.MatchProviders(q.Provider); len(wantProviders) == 0 {
			return nil
		}
	}

	var results []Ranked

	for loc := range gen.All() {
		if wantType != "" && loc.ServiceType != wantType {
			continue
		}

		if wantProviders != nil && !slices.Contains(wantProviders, loc.Provider) {
			continue
		}

		d := spatial.DistanceKm(q.Origin, loc.Point)
		if d <= q.RadiusKm {
			results = append(results, Ranked{Location: loc, DistanceKm: d})
		}
	}

	slices.SortFunc(results, func(a, b Ranked) int {
		if c := cmp.Compare(a.DistanceKm, b.DistanceKm); c != 0 {
			return c
		}

		return strings.Compare(a.Location.ID, b.Location.ID)
	})

	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}

	return results
}

func isFilterAll(v string) bool {
	v = strings.TrimSpace(v)

	return v == "" || strings.EqualFold(v, FilterAll)
}
