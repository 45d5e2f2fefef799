// Package db persists hazard entities (official imports, community feeds,
// user additions) in SQLite and serves the immutable per-call snapshots the
// matcher consumes.
package db

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/roadwatch/internal/hazard"
)

type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the hazard database at path. Use ":memory:" for
// tests.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS hazards (
			id                  TEXT PRIMARY KEY,
			latitude            DOUBLE NOT NULL,
			longitude           DOUBLE NOT NULL,
			category            TEXT NOT NULL,
			speed_limit         DOUBLE,
			source              TEXT NOT NULL,
			enforcement_heading DOUBLE,
			timestamp           TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_hazards_source ON hazards(source);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// RecordHazard inserts or replaces a hazard entity. Entities without an ID
// are assigned one.
func (db *DB) RecordHazard(e hazard.Entity) (hazard.Entity, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	var limit, heading sql.NullFloat64
	if e.SpeedLimit != nil {
		limit = sql.NullFloat64{Float64: *e.SpeedLimit, Valid: true}
	}
	if e.EnforcementHeading != nil {
		heading = sql.NullFloat64{Float64: *e.EnforcementHeading, Valid: true}
	}

	_, err := db.Exec(`
		INSERT OR REPLACE INTO hazards (id, latitude, longitude, category, speed_limit, source, enforcement_heading)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Lat, e.Lng, string(e.Category), limit, string(e.Source), heading)
	if err != nil {
		return hazard.Entity{}, fmt.Errorf("failed to record hazard: %w", err)
	}
	return e, nil
}

// AddUserHazard stores a user-reported hazard at the given position and
// returns it with its assigned ID.
func (db *DB) AddUserHazard(lat, lng float64, category hazard.Category) (hazard.Entity, error) {
	return db.RecordHazard(hazard.Entity{
		Lat:      lat,
		Lng:      lng,
		Category: category,
		Source:   hazard.SourceUser,
	})
}

// DeleteHazard removes a hazard by id.
func (db *DB) DeleteHazard(id string) error {
	if _, err := db.Exec(`DELETE FROM hazards WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete hazard: %w", err)
	}
	return nil
}

// HazardsBySource returns all hazards from one source.
func (db *DB) HazardsBySource(source hazard.Source) ([]hazard.Entity, error) {
	rows, err := db.Query(`
		SELECT id, latitude, longitude, category, speed_limit, source, enforcement_heading
		FROM hazards WHERE source = ? ORDER BY timestamp, id`, string(source))
	if err != nil {
		return nil, fmt.Errorf("failed to query hazards: %w", err)
	}
	defer rows.Close()
	return scanHazards(rows)
}

// Snapshot returns the full hazard set with lower-trust sources deduplicated
// against higher-trust ones. The returned slice is a fresh copy per call;
// callers treat it as read-only input.
func (db *DB) Snapshot(m *hazard.Matcher) ([]hazard.Entity, error) {
	official, err := db.HazardsBySource(hazard.SourceOfficial)
	if err != nil {
		return nil, err
	}
	community, err := db.HazardsBySource(hazard.SourceCommunity)
	if err != nil {
		return nil, err
	}
	user, err := db.HazardsBySource(hazard.SourceUser)
	if err != nil {
		return nil, err
	}

	merged := m.Dedupe(official, community)
	merged = m.Dedupe(merged, user)
	return merged, nil
}

func scanHazards(rows *sql.Rows) ([]hazard.Entity, error) {
	var out []hazard.Entity
	for rows.Next() {
		var e hazard.Entity
		var category, source string
		var limit, heading sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.Lat, &e.Lng, &category, &limit, &source, &heading); err != nil {
			return nil, fmt.Errorf("failed to scan hazard: %w", err)
		}
		e.Category = hazard.Category(category)
		e.Source = hazard.Source(source)
		if limit.Valid {
			v := limit.Float64
			e.SpeedLimit = &v
		}
		if heading.Valid {
			v := heading.Float64
			e.EnforcementHeading = &v
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
