// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package locator

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// DatasetLoader fetches every configured provider dataset. A dataset that
// cannot be fetched is returned as a batch with Err set; an error return means
// no batch could even be attempted.
type DatasetLoader interface {
	Load(ctx context.Context) ([]ProviderBatch, error)
}

// DatasetLoaderFunc adapts a function to DatasetLoader.
type DatasetLoaderFunc func(ctx context.Context) ([]ProviderBatch, error)

func (f DatasetLoaderFunc) Load(ctx context.Context) ([]ProviderBatch, error) {
	return f(ctx)
}

// Archiver keeps a copy of every published generation.
type Archiver interface {
	SaveGeneration(gen *Generation, report *BuildReport) error
}

// Refresher loads provider datasets and publishes them as a new generation.
// Refreshes never overlap; a refresh requested while one runs is rejected
// with ErrRefreshInProgress.
type Refresher struct {
	store    *Store
	loader   DatasetLoader
	archiver Archiver
	mu       sync.Mutex
}

// NewRefresher creates a refresher publishing into store.
func NewRefresher(store *Store, loader DatasetLoader) *Refresher {
	return &Refresher{store: store, loader: loader}
}

// WithArchiver makes the refresher archive every generation it publishes.
func (r *Refresher) WithArchiver(a Archiver) *Refresher {
	r.archiver = a

	return r
}

// Refresh builds and publishes a new generation. When every provider fails
// the current generation is kept and ErrAllProvidersFailed is returned with
// the report; if nothing was ever loaded the empty result is published so
// queries keep answering.
func (r *Refresher) Refresh(ctx context.Context) (*BuildReport, error) {
	if !r.mu.TryLock() {
		return nil, ErrRefreshInProgress
	}
	defer r.mu.Unlock()

	batches, err := r.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading provider datasets: %w", err)
	}

	gen, report := Build(r.store.NextSeq(), batches)

	if report.AllFailed() && r.store.Current().Seq() > 0 {
		log.Printf("🛑 all %d providers failed, keeping generation %d", len(report.Providers), r.store.Current().Seq())

		return report, ErrAllProvidersFailed
	}

	report.Published = r.store.Publish(gen)

	for _, p := range report.Providers {
		if p.Failed() {
			log.Printf("⚠️ %s: %s", p.Name, p.Error)
		}
	}

	if report.Published {
		log.Printf("✅ generation %d published with %d locations", gen.Seq(), gen.Len())

		if r.archiver != nil {
			if err := r.archiver.SaveGeneration(gen, report); err != nil {
				log.Printf("⚠️ error archiving generation %d: %v", gen.Seq(), err)
			}
		}
	}

	if report.AllFailed() {
		return report, ErrAllProvidersFailed
	}

	return report, nil
}
