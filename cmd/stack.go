// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jcodagnone/cajero/archive"
	"github.com/jcodagnone/cajero/locator"
	"github.com/jcodagnone/cajero/providers"
)

func providerRegistry() (*providers.Registry, error) {
	if cfg.ProvidersFile != "" {
		return providers.LoadRegistry(cfg.ProvidersFile)
	}

	return providers.Builtin(cfg.LegacyDSN()), nil
}

func datasetSources() (*providers.Sources, error) {
	sources := &providers.Sources{
		DataDir: cfg.DataDir,
		HTTP: providers.NewHTTPSource(&providers.HTTPOptions{
			UserAgent:   fmt.Sprintf("%s (cajero %s)", cfg.UserAgent, Version),
			EnableTrace: cfg.TraceHTTP,
		}),
		Postgres: &providers.PostgresSource{},
	}

	if cfg.S3Enabled() {
		s3, err := providers.NewS3Source(providers.S3Options{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			UseSSL:    cfg.MinIOUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("creating S3 client: %w", err)
		}

		sources.S3 = s3
	}

	return sources, nil
}

// datasetLoader loads the selected providers, all of them when none is named.
func datasetLoader(selected []string) (*providers.Loader, error) {
	registry, err := providerRegistry()
	if err != nil {
		return nil, err
	}

	if len(selected) > 0 {
		if registry, err = registry.Select(selected); err != nil {
			return nil, err
		}
	}

	sources, err := datasetSources()
	if err != nil {
		return nil, err
	}

	return &providers.Loader{Registry: registry, Fetcher: sources, MaxProcs: cfg.MaxProcs}, nil
}

// openArchive returns nil when no archive is configured.
func openArchive() (*archive.Repository, error) {
	if cfg.ArchivePath == "" {
		return nil, nil
	}

	if dir := filepath.Dir(cfg.ArchivePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	return archive.Open(cfg.ArchivePath)
}

// restoreLatest publishes the newest archived generation into store.
func restoreLatest(repo *archive.Repository, store *locator.Store) error {
	gen, err := repo.LoadLatest()
	if errors.Is(err, archive.ErrNoGeneration) {
		log.Println("Archive is empty, starting without locations")

		return nil
	}

	if err != nil {
		return fmt.Errorf("restoring archived generation: %w", err)
	}

	if store.Publish(gen) {
		log.Printf("✅ restored generation %d (%d locations) from the archive", gen.Seq(), gen.Len())
	}

	return nil
}
