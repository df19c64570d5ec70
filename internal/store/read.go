package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/chunkgrid/internal/grid"
)

// Render is one journal row.
type Render struct {
	Seq         int64     `json:"seq"`
	Tick        int64     `json:"tick"`
	Layer       string    `json:"layer"`
	Cell        grid.Cell `json:"cell"`
	Sprite      string    `json:"sprite"`
	Variant     int       `json:"variant,omitempty"`
	Orientation string    `json:"orientation,omitempty"`
}

// Run describes one journal run.
type Run struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Layout grid.Layout `json:"layout"`
	Layers []string    `json:"layers"`
	Rows   int         `json:"rows"`
}

// ReadRenders returns every row of a run ordered by seq.
// Returns an empty slice (not nil) when the run has no rows.
func (s *Store) ReadRenders(ctx context.Context, runID string) ([]Render, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, tick, layer, x, y, sprite, variant, orientation
		FROM renders
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query renders: %w", err)
	}
	defer rows.Close()
	return scanRenders(rows)
}

// ReadFinal returns the latest row per (layer, cell) of a run, ordered by
// layer then row-major cell.
func (s *Store) ReadFinal(ctx context.Context, runID string) ([]Render, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.seq, r.tick, r.layer, r.x, r.y, r.sprite, r.variant, r.orientation
		FROM renders r
		JOIN (
			SELECT layer, x, y, MAX(seq) AS seq
			FROM renders
			WHERE run_id = ?
			GROUP BY layer, x, y
		) last ON last.seq = r.seq
		WHERE r.run_id = ?
		ORDER BY r.layer COLLATE BINARY ASC, r.y ASC, r.x ASC
	`, runID, runID)
	if err != nil {
		return nil, fmt.Errorf("query final renders: %w", err)
	}
	defer rows.Close()
	return scanRenders(rows)
}

// ReadTick returns the rows produced by one tick, ordered by seq.
func (s *Store) ReadTick(ctx context.Context, runID string, tick int64) ([]Render, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, tick, layer, x, y, sprite, variant, orientation
		FROM renders
		WHERE run_id = ? AND tick = ?
		ORDER BY seq ASC
	`, runID, tick)
	if err != nil {
		return nil, fmt.Errorf("query tick renders: %w", err)
	}
	defer rows.Close()
	return scanRenders(rows)
}

// ListRuns returns every run, oldest ID first, with its row count.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.name, r.layout, r.layers, COUNT(x.seq)
		FROM runs r
		LEFT JOIN renders x ON x.run_id = r.id
		GROUP BY r.id
		ORDER BY r.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			run                  Run
			layoutJSON, layersJS string
		)
		if err := rows.Scan(&run.ID, &run.Name, &layoutJSON, &layersJS, &run.Rows); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(layoutJSON), &run.Layout); err != nil {
			return nil, fmt.Errorf("decode run layout: %w", err)
		}
		if err := json.Unmarshal([]byte(layersJS), &run.Layers); err != nil {
			return nil, fmt.Errorf("decode run layers: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func scanRenders(rows *sql.Rows) ([]Render, error) {
	out := []Render{}
	for rows.Next() {
		var r Render
		if err := rows.Scan(&r.Seq, &r.Tick, &r.Layer, &r.Cell.X, &r.Cell.Y, &r.Sprite, &r.Variant, &r.Orientation); err != nil {
			return nil, fmt.Errorf("scan render: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate renders: %w", err)
	}
	return out, nil
}
