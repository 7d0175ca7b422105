// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package providers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/jcodagnone/cajero/locator"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// LoadAll fetches every dataset of refs concurrently, at most maxProcs at a
// time. Batches are returned in refs order; a dataset that cannot be fetched
// or read becomes a batch with Err set.
func LoadAll(ctx context.Context, refs []Reference, fetcher Fetcher, maxProcs int) []locator.ProviderBatch {
	if maxProcs <= 0 {
		maxProcs = runtime.NumCPU()
	}

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(refs),
			progressbar.OptionSetDescription("Loading providers"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	batches := make([]locator.ProviderBatch, len(refs))

	var g errgroup.Group
	g.SetLimit(maxProcs)

	for i, ref := range refs {
		g.Go(func() error {
			batches[i] = loadOne(ctx, ref, fetcher)

			if bar == nil {
				if err := batches[i].Err; err != nil {
					log.Printf("⚠️ %s: %v", ref.Name, err)
				} else {
					log.Printf("Loaded %d records from %s", len(batches[i].Records), ref.Name)
				}
			} else if err := bar.Add(1); err != nil {
				log.Printf("updating progress bar for %s: %v", ref.Name, err)
			}

			return nil
		})
	}

	_ = g.Wait()

	return batches
}

func loadOne(ctx context.Context, ref Reference, fetcher Fetcher) locator.ProviderBatch {
	batch := locator.ProviderBatch{Name: ref.Name, Provider: ref.Provider}

	schema, err := ref.LocatorSchema()
	if err != nil {
		batch.Err = err

		return batch
	}

	batch.Schema = schema

	records, err := fetcher.Fetch(ctx, ref)
	if err != nil {
		batch.Err = fmt.Errorf("loading %s: %w", ref.Name, err)

		return batch
	}

	batch.Records = records

	return batch
}

// Loader fetches the datasets of a registry. It implements
// locator.DatasetLoader.
type Loader struct {
	Registry *Registry
	Fetcher  Fetcher
	MaxProcs int
}

var _ locator.DatasetLoader = (*Loader)(nil)

// Load implements locator.DatasetLoader.
func (l *Loader) Load(ctx context.Context) ([]locator.ProviderBatch, error) {
	if l.Registry == nil || l.Registry.Len() == 0 {
		return nil, errors.New("no provider datasets configured")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return LoadAll(ctx, l.Registry.Refs(), l.Fetcher, l.MaxProcs), nil
}
