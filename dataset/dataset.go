/*
Package dataset defines persistence for balance sheets and scenario runs.

PURPOSE:
  Defines the interface between the domain logic and the database. A
  Dataset is a named, stored balance sheet; a Run records one scenario
  execution against a dataset, including the resulting sheet and the
  warnings the engine raised.

KEY TYPES:
  Dataset: Named sheet with metadata
  Run:     One scenario execution (definition, result, warnings)
  Store:   Persistence interface

IMPLEMENTATIONS:
  - store/sqlite:       Production SQLite
  - dataset/store:      In-memory for testing

SEE ALSO:
  - food: the Sheet being stored
  - scenario: the definitions a Run executes
*/
package dataset

import (
	"context"
	"errors"
	"time"

	"github.com/arable/foodbalance/food"
)

var (
	// ErrNotFound is returned when a dataset or run does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID is returned when saving under an ID that already
	// exists.
	ErrDuplicateID = errors.New("id already exists")
)

// Dataset is a stored balance sheet with metadata.
type Dataset struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	Sheet       *food.Sheet
}

// Run records one scenario execution against a dataset. Definition holds
// the YAML the run was executed with, so stored runs stay reproducible
// even after presets change.
type Run struct {
	ID         string
	DatasetID  string
	ScenarioID string
	Definition string
	Warnings   []food.Warning
	CreatedAt  time.Time
	Result     *food.Sheet
}

// Store handles persistence of datasets and runs. Saves reject duplicate
// IDs; results are corrected by storing a new run, never by updating one.
type Store interface {
	SaveDataset(ctx context.Context, d Dataset) error
	GetDataset(ctx context.Context, id string) (Dataset, error)
	ListDatasets(ctx context.Context) ([]Dataset, error)
	DeleteDataset(ctx context.Context, id string) error

	SaveRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context, datasetID string) ([]Run, error)

	// Reset clears all data. Development and demo use only.
	Reset(ctx context.Context) error
}
