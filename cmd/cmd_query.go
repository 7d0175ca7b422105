// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jcodagnone/cajero/locator"
	"github.com/spf13/cobra"
)

var queryOptions struct {
	latitude    float64
	longitude   float64
	radiusKm    float64
	serviceType string
	provider    string
	limit       int
	fromArchive bool
	json        bool
}

var queryCmd = &cobra.Command{
	Use:   "query --lat <latitude> --lng <longitude>",
	Short: "Find the service points closest to a coordinate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store := locator.NewStore()

		if queryOptions.fromArchive {
			repo, err := openArchive()
			if err != nil {
				return err
			}

			if repo == nil {
				return errors.New("--from-archive needs an archive (--archive or CAJERO_ARCHIVE_PATH)")
			}
			defer repo.Close()

			if err := restoreLatest(repo, store); err != nil {
				return err
			}
		} else {
			loader, err := datasetLoader(nil)
			if err != nil {
				return err
			}

			if _, err := locator.NewRefresher(store, loader).Refresh(cmd.Context()); err != nil {
				return err
			}
		}

		req := locator.NewNearbyRequest(queryOptions.latitude, queryOptions.longitude)
		req.ServiceType = queryOptions.serviceType
		req.Provider = queryOptions.provider

		if cmd.Flags().Changed("radius") {
			req.RadiusKm = &queryOptions.radiusKm
		}

		if cmd.Flags().Changed("limit") {
			req.Limit = &queryOptions.limit
		}

		resp, err := locator.NewService(store).FindNearby(cmd.Context(), req)
		if err != nil {
			return err
		}

		if queryOptions.json {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			return enc.Encode(resp)
		}

		printLocations(os.Stdout, resp)

		return nil
	},
}

func printLocations(w io.Writer, resp *locator.Response) {
	if resp.Count == 0 {
		fmt.Fprintln(w, "No locations found.")

		return
	}

	a, b, c, d := strings.Repeat("─", 8), strings.Repeat("─", 16), strings.Repeat("─", 40), strings.Repeat("─", 50)
	fmt.Fprintf(w, "╭─%8s─┬─%-16s─┬─%-40s─┬─%-50s╮\n", a, b, c, d)
	fmt.Fprintf(w, "│ %8s │ %-16s │ %-40s │ %-50s│\n", "Km", "Type", "Name", "Address")
	fmt.Fprintf(w, "├─%8s─┼─%-16s─┼─%-40s─┼─%-50s┤\n", a, b, c, d)

	for _, l := range resp.Locations {
		fmt.Fprintf(w, "│ %8.2f │ %-16s │ %-40s │ %-50s│\n",
			l.DistanceKm, l.ServiceType, truncate(l.DisplayName, 40), truncate(l.Address, 50))
	}

	fmt.Fprintf(w, "╰─%8s─┴─%-16s─┴─%-40s─┴─%-50s╯\n", a, b, c, d)
	fmt.Fprintf(w, "%d locations\n", resp.Count)
}

func init() {
	rootCmd.AddCommand(queryCmd)

	flags := queryCmd.Flags()
	flags.Float64Var(&queryOptions.latitude, "lat", 0, "Latitude of the origin")
	flags.Float64Var(&queryOptions.longitude, "lng", 0, "Longitude of the origin")
	flags.Float64Var(&queryOptions.radiusKm, "radius", locator.DefaultRadiusKm, "Search radius in kilometers")
	flags.StringVar(&queryOptions.serviceType, "type", locator.FilterAll, "Service type (atm, branch, paymentTerminal, ...)")
	flags.StringVar(&queryOptions.provider, "provider", locator.FilterAll, "Provider name")
	flags.IntVar(&queryOptions.limit, "limit", locator.DefaultLimit, "Maximum number of locations")
	flags.BoolVar(&queryOptions.fromArchive, "from-archive", false, "Query the newest archived generation instead of fetching")
	flags.BoolVar(&queryOptions.json, "json", false, "Print the response as JSON")

	_ = queryCmd.MarkFlagRequired("lat")
	_ = queryCmd.MarkFlagRequired("lng")
}
