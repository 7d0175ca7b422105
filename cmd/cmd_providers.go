// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jcodagnone/cajero/providers"
	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Provider datasets",
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the configured provider datasets",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		registry, err := providerRegistry()
		if err != nil {
			return err
		}

		a, b, c, d := strings.Repeat("─", 2), strings.Repeat("─", 36), strings.Repeat("─", 12), strings.Repeat("─", 70)
		fmt.Println("Provider datasets:")
		fmt.Printf("╭─%2s─┬─%-36s─┬─%-12s─┬─%-70s╮\n", a, b, c, d)
		fmt.Printf("│ %2s │ %-36s │ %-12s │ %-70s│\n", "Id", "Name", "Schema", "Source")
		fmt.Printf("├─%2s─┼─%-36s─┼─%-12s─┼─%-70s┤\n", a, b, c, d)

		i := 0
		err = registry.Each(func(ref providers.Reference) error {
			i++
			fmt.Printf("│ %2d │ %-36s │ %-12s │ %-70s│\n", i, truncate(ref.Name, 36), ref.Schema, truncate(displaySource(ref.Source), 70))

			return nil
		})
		fmt.Printf("╰─%2s─┴─%-36s─┴─%-12s─┴─%-70s╯\n", a, b, c, d)

		return err
	},
}

// displaySource hides the password of sources carrying credentials.
func displaySource(source string) string {
	u, err := url.Parse(source)
	if err != nil || u.User == nil {
		return source
	}

	return u.Redacted()
}

func init() {
	rootCmd.AddCommand(providersCmd)
	providersCmd.AddCommand(providersListCmd)
}
