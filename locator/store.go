// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package locator

import (
	"iter"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jcodagnone/cajero/utils/textutils"
)

// ProviderBatch is the outcome of loading one provider dataset.
type ProviderBatch struct {
	// Name identifies the dataset in reports, e.g. "Kapital Bank ATMs".
	Name string
	// Provider is the institution the records belong to.
	Provider string
	Schema   Schema
	Records  []RawRecord
	// Err is set when the dataset could not be loaded.
	Err error
}

// ProviderReport summarizes how one batch went into a generation.
type ProviderReport struct {
	Name        string       `json:"name"`
	Provider    string       `json:"provider"`
	Records     int          `json:"records"`
	Accepted    int          `json:"accepted"`
	Rejected    int          `json:"rejected"`
	Duplicates  int          `json:"duplicates"`
	Warnings    int          `json:"warnings"`
	Error       string       `json:"error,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Failed reports whether the batch contributed nothing because it could not
// be loaded or every record was rejected.
func (r ProviderReport) Failed() bool {
	return r.Error != ""
}

// BuildReport summarizes a generation build.
type BuildReport struct {
	Generation uint64           `json:"generation"`
	BuiltAt    time.Time        `json:"built_at"`
	Total      int              `json:"total"`
	Published  bool             `json:"published"`
	Providers  []ProviderReport `json:"providers"`
}

// AllFailed reports whether there were batches and every one of them failed.
func (r *BuildReport) AllFailed() bool {
	if len(r.Providers) == 0 {
		return false
	}

	for _, p := range r.Providers {
		if !p.Failed() {
			return false
		}
	}

	return true
}

// Generation is an immutable, fully built set of locations.
type Generation struct {
	seq       uint64
	builtAt   time.Time
	locations []*Location
	byID      map[string]*Location
	providers []string
	types     []ServiceType
}

// Build normalizes and deduplicates batches, in order, into a generation.
// Failed batches are reported and skipped.
func Build(seq uint64, batches []ProviderBatch) (*Generation, *BuildReport) {
	report := &BuildReport{
		Generation: seq,
		Providers:  make([]ProviderReport, 0, len(batches)),
	}

	sizeHint := 0
	for _, b := range batches {
		sizeHint += len(b.Records)
	}

	index := newDedupIndex(sizeHint)

	for _, batch := range batches {
		pr := ProviderReport{
			Name:     batch.Name,
			Provider: batch.Provider,
			Records:  len(batch.Records),
		}

		if pr.Name == "" {
			pr.Name = batch.Provider
		}

		if batch.Err != nil {
			pr.Error = batch.Err.Error()
			report.Providers = append(report.Providers, pr)

			continue
		}

		locations, diags := Normalize(batch.Provider, batch.Schema, batch.Records)
		pr.Diagnostics = diags
		pr.Accepted = len(locations)

		for _, d := range diags {
			switch d.Severity {
			case SeverityRejected:
				pr.Rejected++
			case SeverityWarning:
				pr.Warnings++
			}
		}

		for _, loc := range locations {
			for _, reason := range index.add(loc) {
				pr.Duplicates++
				pr.Diagnostics = append(pr.Diagnostics, Diagnostic{
					Provider: loc.Provider,
					RecordID: loc.ID,
					Index:    -1,
					Severity: SeverityWarning,
					Reason:   reason,
				})
			}
		}

		if pr.Records > 0 && pr.Accepted == 0 {
			pr.Error = "no record could be normalized"
		}

		report.Providers = append(report.Providers, pr)
	}

	gen := newGeneration(seq, time.Now().UTC(), index.locations())
	report.BuiltAt = gen.builtAt
	report.Total = gen.Len()

	return gen, report
}

// Restore rebuilds a generation from locations that were already normalized,
// such as an archived one. Later locations win on id collisions.
func Restore(seq uint64, builtAt time.Time, locations []*Location) *Generation {
	byID := make(map[string]int, len(locations))
	kept := make([]*Location, 0, len(locations))

	for _, loc := range locations {
		if idx, ok := byID[loc.ID]; ok {
			kept[idx] = loc

			continue
		}

		byID[loc.ID] = len(kept)
		kept = append(kept, loc)
	}

	return newGeneration(seq, builtAt, kept)
}

func newGeneration(seq uint64, builtAt time.Time, locations []*Location) *Generation {
	locations = slices.Clone(locations)
	slices.SortFunc(locations, func(a, b *Location) int {
		return strings.Compare(a.ID, b.ID)
	})

	gen := &Generation{
		seq:       seq,
		builtAt:   builtAt,
		locations: locations,
		byID:      make(map[string]*Location, len(locations)),
	}

	providers := make(map[string]bool)
	types := make(map[ServiceType]bool)

	for _, loc := range locations {
		gen.byID[loc.ID] = loc
		providers[loc.Provider] = true
		types[loc.ServiceType] = true
	}

	for p := range providers {
		gen.providers = append(gen.providers, p)
	}

	slices.Sort(gen.providers)

	for t := range types {
		gen.types = append(gen.types, t)
	}

	slices.Sort(gen.types)

	return gen
}

// Seq is the sequence number the generation was built with.
func (g *Generation) Seq() uint64 {
	return g.seq
}

// BuiltAt is when the generation was built.
func (g *Generation) BuiltAt() time.Time {
	return g.builtAt
}

// Len returns the number of locations.
func (g *Generation) Len() int {
	return len(g.locations)
}

// All iterates the locations ordered by id. The sequence can be ranged over
// any number of times.
func (g *Generation) All() iter.Seq[*Location] {
	return func(yield func(*Location) bool) {
		for _, loc := range g.locations {
			if !yield(loc) {
				return
			}
		}
	}
}

// Get returns the location with the given id.
func (g *Generation) Get(id string) (*Location, bool) {
	loc, ok := g.byID[id]

	return loc, ok
}

// Providers returns the providers present, sorted.
func (g *Generation) Providers() []string {
	return append([]string{}, g.providers...)
}

// ServiceTypes returns the service types present, sorted.
func (g *Generation) ServiceTypes() []ServiceType {
	return append([]ServiceType{}, g.types...)
}

// MatchProviders returns the providers a filter value names. A provider
// spelled exactly like name is the only match; otherwise every provider equal
// to name regardless of case and diacritics matches.
func (g *Generation) MatchProviders(name string) []string {
	name = strings.TrimSpace(name)
	if slices.Contains(g.providers, name) {
		return []string{name}
	}

	key := textutils.FoldKey(name)

	var matches []string

	for _, p := range g.providers {
		if textutils.FoldKey(p) == key {
			matches = append(matches, p)
		}
	}

	return matches
}

// Store holds the published generation. Readers never block.
type Store struct {
	current atomic.Pointer[Generation]
	seq     atomic.Uint64
}

// NewStore returns a store holding an empty generation.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(newGeneration(0, time.Time{}, nil))

	return s
}

// Current returns the published generation. The result stays valid, and
// unchanged, after later publications.
func (s *Store) Current() *Generation {
	return s.current.Load()
}

// NextSeq reserves the sequence number of the next build.
func (s *Store) NextSeq() uint64 {
	return s.seq.Add(1)
}

// Publish makes gen current unless a generation with the same or a later
// sequence number was published first. Sequence numbers reserved afterwards
// are greater than gen's.
func (s *Store) Publish(gen *Generation) bool {
	for {
		cur := s.current.Load()
		if cur != nil && cur.seq >= gen.seq {
			return false
		}

		if s.current.CompareAndSwap(cur, gen) {
			break
		}
	}

	for {
		n := s.seq.Load()
		if n >= gen.seq || s.seq.CompareAndSwap(n, gen.seq) {
			return true
		}
	}
}

// Load builds a generation from batches and publishes it.
func (s *Store) Load(batches []ProviderBatch) *BuildReport {
	gen, report := Build(s.NextSeq(), batches)
	report.Published = s.Publish(gen)

	return report
}
