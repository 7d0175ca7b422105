// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jcodagnone/cajero/archive"
	"github.com/jcodagnone/cajero/utils/textutils"
	"github.com/spf13/cobra"
)

var archiveListLimit int

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect archived generations",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd, args); err != nil {
			return err
		}

		if cfg.ArchivePath == "" {
			return errors.New("no archive configured (--archive or CAJERO_ARCHIVE_PATH)")
		}

		return nil
	},
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived generations, newest first",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		repo, err := openArchive()
		if err != nil {
			return err
		}
		defer repo.Close()

		infos, err := repo.ListGenerations(archiveListLimit)
		if err != nil {
			return err
		}

		a, b, c := strings.Repeat("─", 6), strings.Repeat("─", 19), strings.Repeat("─", 9)
		fmt.Printf("╭─%6s─┬─%-19s─┬─%9s─┬─%9s─┬─%9s╮\n", a, b, c, c, c)
		fmt.Printf("│ %6s │ %-19s │ %9s │ %9s │ %9s│\n", "Gen", "Built at", "Locations", "Datasets", "Failed")
		fmt.Printf("├─%6s─┼─%-19s─┼─%9s─┼─%9s─┼─%9s┤\n", a, b, c, c, c)

		for _, info := range infos {
			fmt.Printf("│ %6d │ %-19s │ %9d │ %9d │ %9d│\n",
				info.Seq, info.BuiltAt.Format("2006-01-02 15:04:05"), info.Total, info.Providers, info.FailedProviders)
		}

		fmt.Printf("╰─%6s─┴─%-19s─┴─%9s─┴─%9s─┴─%9s╯\n", a, b, c, c, c)

		return nil
	},
}

var archiveStatsCmd = &cobra.Command{
	Use:   "stats [generation]",
	Short: "Count the locations of a generation per provider and type",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		repo, err := openArchive()
		if err != nil {
			return err
		}
		defer repo.Close()

		var seq uint64
		if len(args) > 0 {
			if seq, err = strconv.ParseUint(args[0], 10, 64); err != nil {
				return fmt.Errorf("invalid generation %q: %w", args[0], err)
			}
		} else if seq, err = repo.LatestSeq(); err != nil {
			return err
		}

		counts, err := repo.CountByProvider(seq)
		if err != nil {
			return err
		}

		if len(counts) == 0 {
			return fmt.Errorf("%w: %d", archive.ErrNoGeneration, seq)
		}

		a, b, c := strings.Repeat("─", 36), strings.Repeat("─", 16), strings.Repeat("─", 7)
		fmt.Printf("Generation %d:\n", seq)
		fmt.Printf("╭─%-36s─┬─%-16s─┬─%7s╮\n", a, b, c)
		fmt.Printf("│ %-36s │ %-16s │ %7s│\n", "Provider", "Type", "Count")
		fmt.Printf("├─%-36s─┼─%-16s─┼─%7s┤\n", a, b, c)

		total := 0
		for _, cnt := range counts {
			total += cnt.Count
			fmt.Printf("│ %-36s │ %-16s │ %7d│\n", truncate(cnt.Provider, 36), cnt.ServiceType, cnt.Count)
		}

		fmt.Printf("├─%-36s─┼─%-16s─┼─%7s┤\n", a, b, c)
		fmt.Printf("│ %-36s │ %-16s │ %7s│\n", "Total", "", textutils.FormatInt(int64(total)))
		fmt.Printf("╰─%-36s─┴─%-16s─┴─%7s╯\n", a, b, c)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveStatsCmd)
	archiveListCmd.Flags().IntVar(&archiveListLimit, "limit", 20, "Number of generations, 0 lists all")
}
