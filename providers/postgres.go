// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package providers

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jcodagnone/cajero/locator"
)

// legacyLocationsQuery reads the consolidated table written by the former
// scraper. Numeric columns are cast so every driver returns plain values.
const legacyLocationsQuery = `
	SELECT id::text AS id, company, type, name, address,
		lat::double precision AS lat, lon::double precision AS lon
	FROM banking_locator.locations
	ORDER BY id`

// Querier is the subset of pgx connections and pools used to read datasets.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads the legacy banking_locator.locations table.
type PostgresSource struct {
	// Connect opens a connection for a source DSN. Nil uses pgx.Connect.
	Connect func(ctx context.Context, dsn string) (Querier, func(), error)
}

func connectPgx(ctx context.Context, dsn string) (Querier, func(), error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}

	return conn, func() { _ = conn.Close(context.Background()) }, nil
}

// Fetch implements Fetcher.
func (s *PostgresSource) Fetch(ctx context.Context, ref Reference) ([]locator.RawRecord, error) {
	connect := s.Connect
	if connect == nil {
		connect = connectPgx
	}

	db, closeDB, err := connect(ctx, ref.Source)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", ref.Name, err)
	}
	defer closeDB()

	return QueryLegacyLocations(ctx, db)
}

// QueryLegacyLocations returns every row of banking_locator.locations as a
// raw record keyed by column name.
func QueryLegacyLocations(ctx context.Context, db Querier) ([]locator.RawRecord, error) {
	rows, err := db.Query(ctx, legacyLocationsQuery)
	if err != nil {
		return nil, fmt.Errorf("querying legacy locations: %w", err)
	}

	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("reading legacy locations: %w", err)
	}

	records := make([]locator.RawRecord, 0, len(maps))
	for _, m := range maps {
		records = append(records, locator.RawRecord(m))
	}

	return records, nil
}
