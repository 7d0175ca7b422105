// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive keeps published generations in a DuckDB database so a
// restarted service can start from the last good one.
package archive

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // duckdb driver
	"github.com/jcodagnone/cajero/locator"
)

// cellResolution is the H3 resolution stored next to every archived point.
const cellResolution = 8

// ErrNoGeneration is returned when the archive holds no generation.
var ErrNoGeneration = errors.New("no archived generation")

// GenerationInfo describes one archived generation.
type GenerationInfo struct {
	Seq             uint64    `json:"seq"`
	BuiltAt         time.Time `json:"built_at"`
	Total           int       `json:"total"`
	Providers       int       `json:"providers"`
	FailedProviders int       `json:"failed_providers"`
}

// ProviderCount is the number of archived locations of one provider and type.
type ProviderCount struct {
	Provider    string              `json:"provider"`
	ServiceType locator.ServiceType `json:"serviceType"`
	Count       int                 `json:"count"`
}

// Repository stores generations and their locations.
type Repository struct {
	db *sql.DB
}

// NewRepository wraps an open database.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Open opens (or creates) the archive at path and makes sure its schema exists.
// An empty path opens an in-memory archive.
func Open(path string) (*Repository, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %q: %w", path, err)
	}

	repo := NewRepository(db)
	if err := repo.CreateSchema(); err != nil {
		db.Close()

		return nil, fmt.Errorf("creating archive schema: %w", err)
	}

	return repo, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) CreateSchema() error {
	// DuckDB needs to load the spatial extension
	_, err := r.db.Exec(`INSTALL spatial; LOAD spatial;`)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		CREATE TABLE IF NOT EXISTS generations (
			seq UBIGINT NOT NULL,
			built_at TIMESTAMP NOT NULL,
			archived_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			total INTEGER NOT NULL,
			providers INTEGER NOT NULL,
			failed_providers INTEGER NOT NULL,
			report VARCHAR
		);

		CREATE TABLE IF NOT EXISTS locations (
			seq UBIGINT NOT NULL,
			id VARCHAR NOT NULL,
			provider VARCHAR NOT NULL,
			service_type VARCHAR NOT NULL,
			display_name VARCHAR NOT NULL,
			address VARCHAR NOT NULL,
			point POINT_2D NOT NULL,
			hours VARCHAR,
			phone VARCHAR,
			services VARCHAR,
			h3_res8 UBIGINT
		);
	`)

	return err
}

// SaveGeneration archives gen with its build report. Archiving a sequence
// number again replaces the earlier copy.
func (r *Repository) SaveGeneration(gen *locator.Generation, report *locator.BuildReport) (err error) {
	if gen == nil {
		return errors.New("generation can't be null")
	}

	var (
		reportJSON      []byte
		providers       int
		failedProviders int
	)

	if report != nil {
		if reportJSON, err = json.Marshal(report); err != nil {
			return fmt.Errorf("encoding build report: %w", err)
		}

		providers = len(report.Providers)

		for _, p := range report.Providers {
			if p.Failed() {
				failedProviders++
			}
		}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			if rErr := tx.Rollback(); rErr != nil {
				err = errors.Join(err, rErr)
			}
		}
	}()

	for _, table := range []string{"generations", "locations"} {
		if _, err = tx.Exec(`DELETE FROM `+table+` WHERE seq = ?`, gen.Seq()); err != nil {
			return err
		}
	}

	_, err = tx.Exec(`
		INSERT INTO generations(seq, built_at, total, providers, failed_providers, report)
		VALUES (?, ?, ?, ?, ?, ?)
	`, gen.Seq(), gen.BuiltAt(), gen.Len(), providers, failedProviders, nullableString(string(reportJSON)))
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO locations(
			seq,
			id,
			provider,
			service_type,
			display_name,
			address,
			point,
			hours,
			phone,
			services,
			h3_res8
		)
		VALUES (?, ?, ?, ?, ?, ?, ST_Point(?, ?), ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for loc := range gen.All() {
		var services []byte
		if len(loc.Services) > 0 {
			if services, err = json.Marshal(loc.Services); err != nil {
				return fmt.Errorf("encoding services of %s: %w", loc.ID, err)
			}
		}

		cell, cErr := loc.Point.Cell(cellResolution)
		if cErr != nil {
			return cErr
		}

		_, err = stmt.Exec(
			gen.Seq(),
			loc.ID,
			loc.Provider,
			string(loc.ServiceType),
			loc.DisplayName,
			loc.Address,
			loc.Point.Lng,
			loc.Point.Lat,
			nullableString(loc.Hours),
			nullableString(loc.Phone),
			nullableString(string(services)),
			int64(cell),
		)
		if err != nil {
			return fmt.Errorf("archiving location %s: %w", loc.ID, err)
		}
	}

	return tx.Commit()
}

// ListGenerations returns the newest archived generations first. A
// non-positive limit returns all of them.
func (r *Repository) ListGenerations(limit int) ([]GenerationInfo, error) {
	query := `
		SELECT seq, built_at, total, providers, failed_providers
		FROM generations
		ORDER BY seq DESC
	`

	var args []any
	if limit > 0 {
		query += ` LIMIT ?`

		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []GenerationInfo

	for rows.Next() {
		var info GenerationInfo
		if err := rows.Scan(&info.Seq, &info.BuiltAt, &info.Total, &info.Providers, &info.FailedProviders); err != nil {
			return nil, err
		}

		infos = append(infos, info)
	}

	return infos, rows.Err()
}

// LatestSeq returns the highest archived sequence number.
func (r *Repository) LatestSeq() (uint64, error) {
	var seq uint64

	err := r.db.QueryRow(`SELECT seq FROM generations ORDER BY seq DESC LIMIT 1`).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNoGeneration
	}

	return seq, err
}

// Report returns the build report archived with generation seq, or nil when
// none was saved.
func (r *Repository) Report(seq uint64) (*locator.BuildReport, error) {
	var raw sql.NullString

	err := r.db.QueryRow(`SELECT report FROM generations WHERE seq = ?`, seq).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNoGeneration, seq)
	}

	if err != nil || !raw.Valid {
		return nil, err
	}

	var report locator.BuildReport
	if err := json.Unmarshal([]byte(raw.String), &report); err != nil {
		return nil, fmt.Errorf("decoding build report %d: %w", seq, err)
	}

	return &report, nil
}

// LoadGeneration returns the locations archived for generation seq, sorted by id.
func (r *Repository) LoadGeneration(seq uint64) ([]*locator.Location, error) {
	rows, err := r.db.Query(`
		SELECT id, provider, service_type, display_name, address, point, hours, phone, services
		FROM locations
		WHERE seq = ?
		ORDER BY id
	`, seq)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []*locator.Location

	for rows.Next() {
		var (
			loc                    locator.Location
			serviceType            string
			hours, phone, services sql.NullString
		)

		err := rows.Scan(
			&loc.ID, &loc.Provider, &serviceType, &loc.DisplayName, &loc.Address,
			&loc.Point, &hours, &phone, &services,
		)
		if err != nil {
			return nil, err
		}

		loc.ServiceType = locator.ServiceType(serviceType)
		loc.Hours = hours.String
		loc.Phone = phone.String

		if services.Valid && services.String != "" {
			if err := json.Unmarshal([]byte(services.String), &loc.Services); err != nil {
				return nil, fmt.Errorf("decoding services of %s: %w", loc.ID, err)
			}
		}

		locations = append(locations, &loc)
	}

	return locations, rows.Err()
}

// LoadLatest rebuilds the newest archived generation.
func (r *Repository) LoadLatest() (*locator.Generation, error) {
	var (
		seq     uint64
		builtAt time.Time
	)

	err := r.db.QueryRow(`SELECT seq, built_at FROM generations ORDER BY seq DESC LIMIT 1`).Scan(&seq, &builtAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoGeneration
	}

	if err != nil {
		return nil, err
	}

	locations, err := r.LoadGeneration(seq)
	if err != nil {
		return nil, err
	}

	return locator.Restore(seq, builtAt.UTC(), locations), nil
}

// CountByProvider counts the locations of generation seq per provider and type.
func (r *Repository) CountByProvider(seq uint64) ([]ProviderCount, error) {
	rows, err := r.db.Query(`
		SELECT provider, service_type, COUNT(*)
		FROM locations
		WHERE seq = ?
		GROUP BY provider, service_type
		ORDER BY provider, service_type
	`, seq)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []ProviderCount

	for rows.Next() {
		var (
			c           ProviderCount
			serviceType string
		)

		if err := rows.Scan(&c.Provider, &serviceType, &c.Count); err != nil {
			return nil, err
		}

		c.ServiceType = locator.ServiceType(serviceType)
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}

	return s
}
