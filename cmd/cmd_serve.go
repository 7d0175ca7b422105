// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jcodagnone/cajero/locator"
	"github.com/jcodagnone/cajero/trigger"
	"github.com/spf13/cobra"
)

var serveOptions struct {
	listen          string
	refreshInterval time.Duration
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve nearby location queries over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		loader, err := datasetLoader(nil)
		if err != nil {
			return err
		}

		store := locator.NewStore()
		refresher := locator.NewRefresher(store, loader)

		repo, err := openArchive()
		if err != nil {
			return err
		}

		if repo != nil {
			defer repo.Close()

			if err := restoreLatest(repo, store); err != nil {
				return err
			}

			refresher.WithArchiver(repo)
		}

		// an initial failure still serves whatever was restored
		if _, err := refresher.Refresh(ctx); err != nil {
			log.Printf("⚠️ initial refresh: %v", err)
		}

		if cfg.RefreshInterval > 0 {
			log.Printf("Refreshing every %v", cfg.RefreshInterval)

			go trigger.Every(ctx, cfg.RefreshInterval, refresher)
		}

		if cfg.KafkaEnabled() {
			consumer := trigger.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroup, refresher)

			go func() {
				if err := consumer.Run(ctx); err != nil {
					log.Printf("🛑 Kafka consumer: %v", err)
				}
			}()
		}

		server := locator.NewServer(locator.NewService(store), refresher)

		err = server.Run(ctx, cfg.Listen)
		if errors.Is(err, context.Canceled) {
			return nil
		}

		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveOptions.listen, "listen", "localhost:8080", "Address to listen on (CAJERO_LISTEN)")
	serveCmd.Flags().DurationVar(&serveOptions.refreshInterval, "refresh-interval", 0,
		"Refresh the datasets periodically, 0 disables it (CAJERO_REFRESH_INTERVAL)")
}
