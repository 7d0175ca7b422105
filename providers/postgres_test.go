// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package providers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jcodagnone/cajero/locator"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonNumber(s string) json.Number {
	return json.Number(s)
}

var legacyColumns = []string{"id", "company", "type", "name", "address", "lat", "lon"}

func TestQueryLegacyLocations(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows(legacyColumns).
		AddRow("1", "Kapital Bank", "atm", "ATM 28 May", "28 May st", 40.379, 49.849).
		AddRow("2", "Kapital Bank", "digital_center", "Digital", nil, 40.41, 49.86)
	mock.ExpectQuery(`FROM banking_locator.locations`).WillReturnRows(rows)

	records, err := QueryLegacyLocations(context.Background(), mock)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Kapital Bank", records[0]["company"])
	assert.Nil(t, records[1]["address"])

	locs, diags := locator.Normalize("legacy", locator.LegacySchema, records)
	require.Empty(t, diags)
	require.Len(t, locs, 2)
	assert.Equal(t, "Kapital Bank", locs[0].Provider)
	assert.Equal(t, locator.ServiceDigitalCenter, locs[1].ServiceType)
	assert.InDelta(t, 49.849, locs[0].Point.Lng, 1e-9)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSourceFetch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM banking_locator.locations`).
		WillReturnRows(pgxmock.NewRows(legacyColumns).AddRow("9", "Bank", "branch", "Main", "Addr", 40.0, 49.0))

	var gotDSN string

	closed := false
	source := &PostgresSource{
		Connect: func(_ context.Context, dsn string) (Querier, func(), error) {
			gotDSN = dsn

			return mock, func() { closed = true }, nil
		},
	}

	sources := &Sources{Postgres: source}

	records, err := sources.Fetch(context.Background(), Reference{Name: "legacy", Source: "postgres://u@db/banking"})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, "postgres://u@db/banking", gotDSN)
	assert.True(t, closed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSourceErrors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM banking_locator.locations`).WillReturnError(errors.New("relation does not exist"))

	_, err = QueryLegacyLocations(context.Background(), mock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relation does not exist")

	refused := &PostgresSource{
		Connect: func(context.Context, string) (Querier, func(), error) {
			return nil, nil, errors.New("connection refused")
		},
	}

	_, err = refused.Fetch(context.Background(), Reference{Name: "legacy", Source: "postgres://x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connecting to legacy: connection refused")
}
