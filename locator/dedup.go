// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package locator

import (
	"fmt"
	"slices"

	"github.com/uber/h3-go/v4"
)

const (
	// DuplicateDistanceMeters is the distance under which two records of the
	// same provider and type are the same physical point.
	DuplicateDistanceMeters = 5.0

	// dedupResolution cells have edges of about 25 m, so a k=1 ring around a
	// point covers every neighbour within DuplicateDistanceMeters.
	dedupResolution = 11
)

// dedupIndex accumulates locations in ingestion order, letting a later
// record replace an earlier duplicate in place.
type dedupIndex struct {
	kept  []*Location
	cells []h3.Cell
	byID  map[string]int
	grid  map[h3.Cell][]int
}

func newDedupIndex(sizeHint int) *dedupIndex {
	return &dedupIndex{
		kept:  make([]*Location, 0, sizeHint),
		cells: make([]h3.Cell, 0, sizeHint),
		byID:  make(map[string]int, sizeHint),
		grid:  make(map[h3.Cell][]int),
	}
}

// add stores loc. Every earlier location loc duplicates, by id or by
// proximity, is replaced by it; the returned reasons describe each one.
func (d *dedupIndex) add(loc *Location) []string {
	cell, err := loc.Point.Cell(dedupResolution)
	if err != nil {
		// unreachable for validated points; keep them in a shared bucket
		cell = 0
	}

	var reasons []string

	idx, ok := d.byID[loc.ID]
	if ok {
		d.replace(idx, loc, cell)
		reasons = append(reasons, fmt.Sprintf("replaces earlier record with the same id %s", loc.ID))
	} else if near, dist, found := d.nearest(loc, cell, -1); found {
		reasons = append(reasons, fmt.Sprintf("replaces earlier record %s %.1f m away", d.kept[near].ID, dist))
		d.replace(near, loc, cell)
		idx = near
	} else {
		idx = len(d.kept)
		d.kept = append(d.kept, loc)
		d.cells = append(d.cells, cell)
		d.byID[loc.ID] = idx
		d.grid[cell] = append(d.grid[cell], idx)

		return nil
	}

	// the new position may sit next to other kept locations
	for {
		near, dist, found := d.nearest(loc, cell, idx)
		if !found {
			break
		}

		reasons = append(reasons, fmt.Sprintf("replaces earlier record %s %.1f m away", d.kept[near].ID, dist))
		d.remove(near)
	}

	return reasons
}

// locations returns the kept locations in ingestion order.
func (d *dedupIndex) locations() []*Location {
	out := make([]*Location, 0, len(d.byID))

	for _, loc := range d.kept {
		if loc != nil {
			out = append(out, loc)
		}
	}

	return out
}

// nearest finds the closest kept location of the same provider and type
// within DuplicateDistanceMeters, other than the one at skip.
func (d *dedupIndex) nearest(loc *Location, cell h3.Cell, skip int) (int, float64, bool) {
	ring := []h3.Cell{cell}

	if cell != 0 {
		if disk, err := h3.GridDisk(cell, 1); err == nil {
			ring = disk
		}
	}

	best, bestDist := -1, 0.0

	for _, c := range ring {
		for _, idx := range d.grid[c] {
			if idx == skip {
				continue
			}

			other := d.kept[idx]
			if other.Provider != loc.Provider || other.ServiceType != loc.ServiceType {
				continue
			}

			dist := loc.Point.HaversineDistance(&other.Point)
			if dist > DuplicateDistanceMeters {
				continue
			}

			if best < 0 || dist < bestDist || (dist == bestDist && idx < best) {
				best, bestDist = idx, dist
			}
		}
	}

	return best, bestDist, best >= 0
}

func (d *dedupIndex) replace(idx int, loc *Location, cell h3.Cell) {
	delete(d.byID, d.kept[idx].ID)

	if d.cells[idx] != cell {
		d.unbucket(idx)
		d.grid[cell] = append(d.grid[cell], idx)
		d.cells[idx] = cell
	}

	d.kept[idx] = loc
	d.byID[loc.ID] = idx
}

// remove drops the location at idx, leaving an empty slot.
func (d *dedupIndex) remove(idx int) {
	delete(d.byID, d.kept[idx].ID)
	d.unbucket(idx)
	d.kept[idx] = nil
}

func (d *dedupIndex) unbucket(idx int) {
	bucket := d.grid[d.cells[idx]]
	if i := slices.Index(bucket, idx); i >= 0 {
		d.grid[d.cells[idx]] = slices.Delete(bucket, i, i+1)
	}
}
