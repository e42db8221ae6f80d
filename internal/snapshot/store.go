// Package snapshot persists a pipeline run's outputs: a sqlite
// database of watersheds and summary statistics, and a GeoJSON copy of
// the shaped table.
package snapshot

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/watershed.report/internal/stats"
)

// Store wraps the snapshot database.
type Store struct {
	*sql.DB
}

// Open opens (or creates) the snapshot database at path. Call
// MigrateUp before writing to a fresh database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	return &Store{db}, nil
}

// Run describes one pipeline execution.
type Run struct {
	ID           string
	SourceURL    string
	StartedAt    time.Time
	FinishedAt   time.Time
	FeatureCount int
}

// WatershedRow is one persisted watershed record.
type WatershedRow struct {
	WRIAID        int
	Name          string
	AreaAcres     float64
	QuantileClass int
	CentroidLon   float64
	CentroidLat   float64
}

// RecordRun inserts the run header row.
func (s *Store) RecordRun(run Run) error {
	_, err := s.Exec(`
		INSERT INTO runs (run_id, source_url, started_at, finished_at, feature_count)
		VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.SourceURL, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.FeatureCount)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// RecordWatersheds inserts the watershed rows for a run in one
// transaction, so a failed run never leaves a partial snapshot.
func (s *Store) RecordWatersheds(runID string, rows []WatershedRow) error {
	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("record watersheds: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO watersheds (run_id, wria_id, name, area_acres, quantile_class, centroid_lon, centroid_lat)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("record watersheds: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(runID, r.WRIAID, r.Name, r.AreaAcres, r.QuantileClass, r.CentroidLon, r.CentroidLat); err != nil {
			return fmt.Errorf("record watershed %d: %w", r.WRIAID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record watersheds: %w", err)
	}
	return nil
}

// RecordSummary stores the derived statistics as stat/value rows.
func (s *Store) RecordSummary(runID string, sum *stats.Summary) error {
	values := map[string]float64{
		"count":           float64(sum.Count),
		"max_area_acres":  sum.MaxArea.AreaAcres,
		"max_area_id":     float64(sum.MaxArea.ID),
		"min_area_acres":  sum.MinAreaAcres,
		"mean_area_acres": sum.MeanAreaAcres,
	}
	for _, th := range sum.Thresholds {
		values[fmt.Sprintf("q%02.0f_area_acres", th.Prob*100)] = th.AreaAcres
	}

	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("record summary: %w", err)
	}
	defer tx.Rollback()

	for stat, v := range values {
		if _, err := tx.Exec(`
			INSERT INTO summary_stats (run_id, stat, value) VALUES (?, ?, ?)`,
			runID, stat, v); err != nil {
			return fmt.Errorf("record summary stat %q: %w", stat, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record summary: %w", err)
	}
	return nil
}

// Watersheds returns a run's watershed rows ordered by descending
// area.
func (s *Store) Watersheds(runID string) ([]WatershedRow, error) {
	rows, err := s.Query(`
		SELECT wria_id, name, area_acres, quantile_class, centroid_lon, centroid_lat
		FROM watersheds WHERE run_id = ? ORDER BY area_acres DESC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query watersheds: %w", err)
	}
	defer rows.Close()

	var out []WatershedRow
	for rows.Next() {
		var r WatershedRow
		if err := rows.Scan(&r.WRIAID, &r.Name, &r.AreaAcres, &r.QuantileClass, &r.CentroidLon, &r.CentroidLat); err != nil {
			return nil, fmt.Errorf("scan watershed: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SummaryStats returns a run's stat/value map.
func (s *Store) SummaryStats(runID string) (map[string]float64, error) {
	rows, err := s.Query(`SELECT stat, value FROM summary_stats WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("query summary stats: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var stat string
		var v float64
		if err := rows.Scan(&stat, &v); err != nil {
			return nil, fmt.Errorf("scan summary stat: %w", err)
		}
		out[stat] = v
	}
	return out, rows.Err()
}

// LatestRun returns the most recently finished run.
func (s *Store) LatestRun() (Run, error) {
	var run Run
	err := s.QueryRow(`
		SELECT run_id, source_url, started_at, finished_at, feature_count
		FROM runs ORDER BY finished_at DESC LIMIT 1`).
		Scan(&run.ID, &run.SourceURL, &run.StartedAt, &run.FinishedAt, &run.FeatureCount)
	if err != nil {
		return Run{}, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}
