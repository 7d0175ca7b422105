// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jcodagnone/cajero/locator"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("CAJERO_DATA_DIR", "/from/env")
	t.Setenv("CAJERO_MAX_PROCS", "7")

	saved := rootOptions
	t.Cleanup(func() { rootOptions = saved })

	rootOptions.envFile = filepath.Join(t.TempDir(), "missing.env")

	c := &cobra.Command{}
	c.Flags().StringVar(&rootOptions.dataDir, "data-dir", "data", "")
	c.Flags().IntVar(&rootOptions.maxProcs, "max-procs", 4, "")
	require.NoError(t, c.Flags().Parse([]string{"--data-dir", "/from/flag"}))

	require.NoError(t, loadConfig(c, nil))
	assert.Equal(t, "/from/flag", cfg.DataDir)
	assert.Equal(t, 7, cfg.MaxProcs)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("CAJERO_MAX_PROCS", "-1")

	saved := rootOptions
	t.Cleanup(func() { rootOptions = saved })

	rootOptions.envFile = filepath.Join(t.TempDir(), "missing.env")

	err := loadConfig(&cobra.Command{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestPrintReport(t *testing.T) {
	t.Parallel()

	report := &locator.BuildReport{
		Generation: 4,
		Total:      12,
		Published:  true,
		Providers: []locator.ProviderReport{
			{
				Name: "Kapital Bank ATMs", Provider: "Kapital Bank",
				Records: 13, Accepted: 12, Rejected: 1,
				Diagnostics: []locator.Diagnostic{{
					Provider: "Kapital Bank", Index: 3, Severity: locator.SeverityRejected, Reason: "missing latitude",
				}},
			},
			{Name: "Legacy locations", Error: "connecting to Legacy locations: refused"},
		},
	}

	var out bytes.Buffer
	printReport(&out, report, false)

	got := out.String()
	assert.Contains(t, got, "Generation 4: 12 locations (published: true)")
	assert.Contains(t, got, "Kapital Bank ATMs")
	assert.Contains(t, got, "connecting to Legacy locations: refused")
	assert.NotContains(t, got, "missing latitude")

	out.Reset()
	printReport(&out, report, true)
	assert.Contains(t, out.String(), "Kapital Bank ATMs: rejected Kapital Bank #3: missing latitude")
}

func TestPrintLocations(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	printLocations(&out, &locator.Response{Locations: []locator.LocationResult{}})
	assert.Equal(t, "No locations found.\n", out.String())

	out.Reset()
	printLocations(&out, &locator.Response{
		Count: 1,
		Locations: []locator.LocationResult{{
			ServiceType: locator.ServiceATM, DisplayName: "28 May", Address: "Bakı", DistanceKm: 1.2,
		}},
	})
	assert.Contains(t, out.String(), "1.20")
	assert.Contains(t, out.String(), "28 May")
	assert.True(t, strings.HasSuffix(out.String(), "1 locations\n"))
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Bakı", truncate("Bakı", 4))
	assert.Equal(t, "Nizam…", truncate("Nizami küç.", 6))
}

func TestDisplaySource(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "postgres://cajero:xxxxx@db:5432/banking?sslmode=require",
		displaySource("postgres://cajero:s3cret@db:5432/banking?sslmode=require"))
	assert.Equal(t, "data/atms.json", displaySource("data/atms.json"))
}
