// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/jcodagnone/cajero/config"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootCmd = &cobra.Command{
	Use:   "cajero",
	Short: "nearest ATMs, branches and payment terminals",
	Long: `
cajero collects the service point datasets published by banks and payment
networks, merges them into one deduplicated catalogue and answers "what is
near me" queries over it, from the command line or as an HTTP service.
`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

var Version = "dev"

// cfg is the effective configuration: environment first, flags on top.
var cfg = &config.Config{}

var rootOptions struct {
	envFile       string
	dataDir       string
	providersFile string
	archivePath   string
	maxProcs      int
	traceHTTP     bool
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(rootOptions.envFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		loaded.DataDir = rootOptions.dataDir
	}

	if flags.Changed("providers") {
		loaded.ProvidersFile = rootOptions.providersFile
	}

	if flags.Changed("archive") {
		loaded.ArchivePath = rootOptions.archivePath
	}

	if flags.Changed("max-procs") {
		loaded.MaxProcs = rootOptions.maxProcs
	}

	if flags.Changed("trace-http") {
		loaded.TraceHTTP = rootOptions.traceHTTP
	}

	if flags.Changed("listen") {
		loaded.Listen = serveOptions.listen
	}

	if flags.Changed("refresh-interval") {
		loaded.RefreshInterval = serveOptions.refreshInterval
	}

	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cfg = loaded

	return nil
}

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootOptions.envFile, "env-file", ".env", "Environment file read before the environment")
	flags.StringVar(&rootOptions.dataDir, "data-dir", "data", "Base directory of file datasets (CAJERO_DATA_DIR)")
	flags.StringVar(&rootOptions.providersFile, "providers", "",
		"JSON file listing the provider datasets, instead of the built-in list (CAJERO_PROVIDERS_FILE)")
	flags.StringVar(&rootOptions.archivePath, "archive", "",
		"DuckDB file keeping every published generation (CAJERO_ARCHIVE_PATH)")
	flags.IntVar(&rootOptions.maxProcs, "max-procs", 4, "Datasets fetched concurrently (CAJERO_MAX_PROCS)")
	flags.BoolVar(&rootOptions.traceHTTP, "trace-http", false, "Dump dataset HTTP requests and responses to stderr")
}
