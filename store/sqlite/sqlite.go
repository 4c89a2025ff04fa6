/*
Package sqlite provides a SQLite-backed implementation of dataset.Store.

PURPOSE:
  Persists balance sheets and scenario runs in SQLite. In production the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  datasets:       Dataset metadata
  cells:          Sheet cells, one row per known cell (unknowns are not
                  stored and come back as unknown on load)
  dataset_totals: Exact per-element decimal totals, written at save time
                  and re-verified on load
  runs:           Scenario executions (definition, warnings)
  run_cells:      Result sheet cells per run

INTEGRITY:
  Cell values are REAL columns; a corrupted or hand-edited database would
  otherwise go unnoticed. Saving writes the exact decimal total of every
  element into dataset_totals, and every load recomputes and compares.
  A mismatch returns ErrIntegrity.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  st, err := sqlite.New("./data/foodbalance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - dataset: interface definition
  - dataset/store: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/arable/foodbalance/cube"
	"github.com/arable/foodbalance/dataset"
	"github.com/arable/foodbalance/food"
)

// ErrIntegrity is returned when the stored per-element totals do not match
// the cell data read back from the database.
var ErrIntegrity = errors.New("stored totals do not match cell data")

// Store implements dataset.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	st := &Store{db: db}
	if err := st.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return st, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Dataset metadata
	CREATE TABLE IF NOT EXISTS datasets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL
	);

	-- Sheet cells; unknown cells are not stored
	CREATE TABLE IF NOT EXISTS cells (
		dataset_id TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
		element TEXT NOT NULL,
		item TEXT NOT NULL,
		year TEXT NOT NULL,
		region TEXT NOT NULL DEFAULT '',
		value REAL NOT NULL,
		PRIMARY KEY (dataset_id, element, item, year, region)
	);

	CREATE INDEX IF NOT EXISTS idx_cells_dataset
		ON cells(dataset_id);

	-- Exact per-element totals, verified on every load
	CREATE TABLE IF NOT EXISTS dataset_totals (
		dataset_id TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
		element TEXT NOT NULL,
		total TEXT NOT NULL,
		PRIMARY KEY (dataset_id, element)
	);

	-- Scenario runs
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		dataset_id TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
		scenario_id TEXT NOT NULL,
		definition TEXT NOT NULL,
		warnings_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_dataset
		ON runs(dataset_id);

	-- Result sheet cells per run
	CREATE TABLE IF NOT EXISTS run_cells (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		element TEXT NOT NULL,
		item TEXT NOT NULL,
		year TEXT NOT NULL,
		region TEXT NOT NULL DEFAULT '',
		value REAL NOT NULL,
		PRIMARY KEY (run_id, element, item, year, region)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SHEET SERIALIZATION
// =============================================================================

type cellRow struct {
	element string
	item    cube.Coord
	year    cube.Coord
	region  cube.Coord
	value   float64
}

// sheetRows flattens a sheet into cell rows, skipping unknown cells, and
// returns the exact per-element totals.
func sheetRows(sh *food.Sheet) ([]cellRow, map[string]decimal.Decimal, error) {
	t := sh.Table()
	items, err := t.AxisCoords(food.AxisItem)
	if err != nil {
		return nil, nil, err
	}
	years, err := t.AxisCoords(food.AxisYear)
	if err != nil {
		return nil, nil, err
	}
	regions := []cube.Coord{""}
	hasRegion := t.HasAxis(food.AxisRegion)
	if hasRegion {
		regions, err = t.AxisCoords(food.AxisRegion)
		if err != nil {
			return nil, nil, err
		}
	}

	var rows []cellRow
	totals := make(map[string]decimal.Decimal)
	for _, element := range t.Elements() {
		total := decimal.Zero
		for _, item := range items {
			for _, year := range years {
				for _, region := range regions {
					at := map[string]cube.Coord{
						food.AxisItem: item,
						food.AxisYear: year,
					}
					if hasRegion {
						at[food.AxisRegion] = region
					}
					v, err := t.Value(element, at)
					if err != nil {
						return nil, nil, err
					}
					if math.IsNaN(v) {
						continue
					}
					rows = append(rows, cellRow{
						element: element,
						item:    item,
						year:    year,
						region:  region,
						value:   v,
					})
					total = total.Add(decimal.NewFromFloat(v))
				}
			}
		}
		totals[element] = total
	}
	return rows, totals, nil
}

// buildSheet reconstructs a sheet from cell rows. Cells absent from the
// rows come back unknown.
func buildSheet(rows []cellRow) (*food.Sheet, error) {
	hasRegion := false
	for _, r := range rows {
		if r.region != "" {
			hasRegion = true
			break
		}
	}
	axisNames := []string{food.AxisItem, food.AxisYear}
	if hasRegion {
		axisNames = append(axisNames, food.AxisRegion)
	}
	points := make([]cube.Point, 0, len(rows))
	for _, r := range rows {
		coords := []cube.Coord{r.item, r.year}
		if hasRegion {
			coords = append(coords, r.region)
		}
		points = append(points, cube.Point{Element: r.element, Coords: coords, Value: r.value})
	}
	t, err := cube.FromLong(axisNames, points)
	if err != nil {
		return nil, err
	}
	return food.NewSheet(t)
}

func verifyTotals(rows []cellRow, stored map[string]decimal.Decimal) error {
	got := make(map[string]decimal.Decimal)
	for _, r := range rows {
		got[r.element] = got[r.element].Add(decimal.NewFromFloat(r.value))
	}
	if len(got) != len(stored) {
		return ErrIntegrity
	}
	for element, want := range stored {
		if !got[element].Equal(want) {
			return fmt.Errorf("%w: element %s has %s, expected %s",
				ErrIntegrity, element, got[element], want)
		}
	}
	return nil
}

// =============================================================================
// DATASETS
// =============================================================================

func (s *Store) SaveDataset(ctx context.Context, d dataset.Dataset) error {
	rows, totals, err := sheetRows(d.Sheet)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO datasets (id, name, description, created_at) VALUES (?, ?, ?, ?)`,
		d.ID, d.Name, d.Description, createdAt.Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err) {
			return dataset.ErrDuplicateID
		}
		return err
	}

	if err := insertCells(ctx, tx, "cells", "dataset_id", d.ID, rows); err != nil {
		return err
	}
	for element, total := range totals {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO dataset_totals (dataset_id, element, total) VALUES (?, ?, ?)`,
			d.ID, element, total.String())
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) GetDataset(ctx context.Context, id string) (dataset.Dataset, error) {
	var d dataset.Dataset
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM datasets WHERE id = ?`, id).
		Scan(&d.ID, &d.Name, &d.Description, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return dataset.Dataset{}, dataset.ErrNotFound
	}
	if err != nil {
		return dataset.Dataset{}, err
	}
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	rows, err := loadCells(ctx, s.db,
		`SELECT element, item, year, region, value FROM cells WHERE dataset_id = ?`, id)
	if err != nil {
		return dataset.Dataset{}, err
	}

	stored, err := s.loadTotals(ctx, id)
	if err != nil {
		return dataset.Dataset{}, err
	}
	if err := verifyTotals(rows, stored); err != nil {
		return dataset.Dataset{}, err
	}

	d.Sheet, err = buildSheet(rows)
	if err != nil {
		return dataset.Dataset{}, err
	}
	return d, nil
}

func (s *Store) loadTotals(ctx context.Context, id string) (map[string]decimal.Decimal, error) {
	rs, err := s.db.QueryContext(ctx,
		`SELECT element, total FROM dataset_totals WHERE dataset_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rs.Close()
	out := make(map[string]decimal.Decimal)
	for rs.Next() {
		var element, total string
		if err := rs.Scan(&element, &total); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(total)
		if err != nil {
			return nil, fmt.Errorf("%w: bad total for element %s: %v", ErrIntegrity, element, err)
		}
		out[element] = d
	}
	return out, rs.Err()
}

func (s *Store) ListDatasets(ctx context.Context) ([]dataset.Dataset, error) {
	rs, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, created_at FROM datasets ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	// Metadata only; sheets load on demand via GetDataset.
	var out []dataset.Dataset
	for rs.Next() {
		var d dataset.Dataset
		var createdAt string
		if err := rs.Scan(&d.ID, &d.Name, &d.Description, &createdAt); err != nil {
			return nil, err
		}
		d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, d)
	}
	return out, rs.Err()
}

func (s *Store) DeleteDataset(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return dataset.ErrNotFound
	}
	return nil
}

// =============================================================================
// RUNS
// =============================================================================

func (s *Store) SaveRun(ctx context.Context, r dataset.Run) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM datasets WHERE id = ?`, r.DatasetID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return dataset.ErrNotFound
	}

	rows, _, err := sheetRows(r.Result)
	if err != nil {
		return err
	}
	warnings, err := json.Marshal(r.Warnings)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, dataset_id, scenario_id, definition, warnings_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.DatasetID, r.ScenarioID, r.Definition, string(warnings),
		createdAt.Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err) {
			return dataset.ErrDuplicateID
		}
		return err
	}

	if err := insertCells(ctx, tx, "run_cells", "run_id", r.ID, rows); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) GetRun(ctx context.Context, id string) (dataset.Run, error) {
	var r dataset.Run
	var warnings, createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, dataset_id, scenario_id, definition, warnings_json, created_at
		 FROM runs WHERE id = ?`, id).
		Scan(&r.ID, &r.DatasetID, &r.ScenarioID, &r.Definition, &warnings, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return dataset.Run{}, dataset.ErrNotFound
	}
	if err != nil {
		return dataset.Run{}, err
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if warnings != "" {
		if err := json.Unmarshal([]byte(warnings), &r.Warnings); err != nil {
			return dataset.Run{}, err
		}
	}

	rows, err := loadCells(ctx, s.db,
		`SELECT element, item, year, region, value FROM run_cells WHERE run_id = ?`, id)
	if err != nil {
		return dataset.Run{}, err
	}
	r.Result, err = buildSheet(rows)
	if err != nil {
		return dataset.Run{}, err
	}
	return r, nil
}

func (s *Store) ListRuns(ctx context.Context, datasetID string) ([]dataset.Run, error) {
	rs, err := s.db.QueryContext(ctx,
		`SELECT id, dataset_id, scenario_id, definition, warnings_json, created_at
		 FROM runs WHERE dataset_id = ? ORDER BY id`, datasetID)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	// Metadata only; result sheets load on demand via GetRun.
	var out []dataset.Run
	for rs.Next() {
		var r dataset.Run
		var warnings, createdAt string
		if err := rs.Scan(&r.ID, &r.DatasetID, &r.ScenarioID, &r.Definition, &warnings, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if warnings != "" {
			if err := json.Unmarshal([]byte(warnings), &r.Warnings); err != nil {
				return nil, err
			}
		}
		out = append(out, r)
	}
	return out, rs.Err()
}

func (s *Store) Reset(ctx context.Context) error {
	for _, table := range []string{"run_cells", "runs", "dataset_totals", "cells", "datasets"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertCells(ctx context.Context, tx execer, table, keyCol, key string, rows []cellRow) error {
	q := fmt.Sprintf(
		`INSERT INTO %s (%s, element, item, year, region, value) VALUES (?, ?, ?, ?, ?, ?)`,
		table, keyCol)
	for _, r := range rows {
		if _, err := tx.ExecContext(ctx, q,
			key, r.element, string(r.item), string(r.year), string(r.region), r.value); err != nil {
			return err
		}
	}
	return nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadCells(ctx context.Context, db querier, query, key string) ([]cellRow, error) {
	rs, err := db.QueryContext(ctx, query, key)
	if err != nil {
		return nil, err
	}
	defer rs.Close()
	var out []cellRow
	for rs.Next() {
		var r cellRow
		var element, item, year, region string
		if err := rs.Scan(&element, &item, &year, &region, &r.value); err != nil {
			return nil, err
		}
		r.element = element
		r.item = cube.Coord(item)
		r.year = cube.Coord(year)
		r.region = cube.Coord(region)
		out = append(out, r)
	}
	return out, rs.Err()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
