// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jcodagnone/cajero/locator"
	"github.com/jcodagnone/cajero/utils/textutils"
	"github.com/spf13/cobra"
)

var refreshOptions struct {
	json    bool
	verbose bool
}

var refreshCmd = &cobra.Command{
	Use:   "refresh [provider...]",
	Short: "Load the provider datasets and report how they were merged",
	Long: `
refresh fetches every configured provider dataset (or only the named ones),
normalizes and deduplicates them into a new generation and prints the build
report. With --archive the generation is archived. It fails when every
provider failed.
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := datasetLoader(args)
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

			// continue the archived numbering
			if err := restoreLatest(repo, store); err != nil {
				return err
			}

			refresher.WithArchiver(repo)
		}

		report, err := refresher.Refresh(cmd.Context())
		if report != nil {
			if refreshOptions.json {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")

				if encErr := enc.Encode(report); encErr != nil {
					return encErr
				}
			} else {
				printReport(os.Stdout, report, refreshOptions.verbose)
			}
		}

		return err
	},
}

func printReport(w io.Writer, report *locator.BuildReport, verbose bool) {
	a, b, c := strings.Repeat("─", 36), strings.Repeat("─", 8), strings.Repeat("─", 40)
	fmt.Fprintf(w, "Generation %d: %s locations (published: %t)\n",
		report.Generation, textutils.FormatInt(int64(report.Total)), report.Published)
	fmt.Fprintf(w, "╭─%-36s─┬─%8s─┬─%8s─┬─%8s─┬─%8s─┬─%8s─┬─%-40s╮\n", a, b, b, b, b, b, c)
	fmt.Fprintf(w, "│ %-36s │ %8s │ %8s │ %8s │ %8s │ %8s │ %-40s│\n",
		"Dataset", "Records", "Accepted", "Rejected", "Dups", "Warnings", "Error")
	fmt.Fprintf(w, "├─%-36s─┼─%8s─┼─%8s─┼─%8s─┼─%8s─┼─%8s─┼─%-40s┤\n", a, b, b, b, b, b, c)

	for _, p := range report.Providers {
		fmt.Fprintf(w, "│ %-36s │ %8d │ %8d │ %8d │ %8d │ %8d │ %-40s│\n",
			truncate(p.Name, 36), p.Records, p.Accepted, p.Rejected, p.Duplicates, p.Warnings, truncate(p.Error, 40))
	}

	fmt.Fprintf(w, "╰─%-36s─┴─%8s─┴─%8s─┴─%8s─┴─%8s─┴─%8s─┴─%-40s╯\n", a, b, b, b, b, b, c)

	if !verbose {
		return
	}

	for _, p := range report.Providers {
		for _, d := range p.Diagnostics {
			fmt.Fprintf(w, "%s: %s\n", p.Name, d)
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n-1]) + "…"
}

func init() {
	rootCmd.AddCommand(refreshCmd)
	refreshCmd.Flags().BoolVar(&refreshOptions.json, "json", false, "Print the build report as JSON")
	refreshCmd.Flags().BoolVarP(&refreshOptions.verbose, "verbose", "v", false, "Print every rejection and warning")
}
