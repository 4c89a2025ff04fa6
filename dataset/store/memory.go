// Package store provides dataset.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/arable/foodbalance/dataset"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	datasets map[string]dataset.Dataset
	runs     map[string]dataset.Run
}

func NewMemory() *Memory {
	return &Memory{
		datasets: make(map[string]dataset.Dataset),
		runs:     make(map[string]dataset.Run),
	}
}

func (m *Memory) SaveDataset(_ context.Context, d dataset.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.datasets[d.ID]; exists {
		return dataset.ErrDuplicateID
	}
	m.datasets[d.ID] = d
	return nil
}

func (m *Memory) GetDataset(_ context.Context, id string) (dataset.Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.datasets[id]
	if !ok {
		return dataset.Dataset{}, dataset.ErrNotFound
	}
	return d, nil
}

func (m *Memory) ListDatasets(_ context.Context) ([]dataset.Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]dataset.Dataset, 0, len(m.datasets))
	for _, d := range m.datasets {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) DeleteDataset(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.datasets[id]; !ok {
		return dataset.ErrNotFound
	}
	delete(m.datasets, id)
	for rid, r := range m.runs {
		if r.DatasetID == id {
			delete(m.runs, rid)
		}
	}
	return nil
}

func (m *Memory) SaveRun(_ context.Context, r dataset.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.runs[r.ID]; exists {
		return dataset.ErrDuplicateID
	}
	if _, ok := m.datasets[r.DatasetID]; !ok {
		return dataset.ErrNotFound
	}
	m.runs[r.ID] = r
	return nil
}

func (m *Memory) GetRun(_ context.Context, id string) (dataset.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[id]
	if !ok {
		return dataset.Run{}, dataset.ErrNotFound
	}
	return r, nil
}

func (m *Memory) ListRuns(_ context.Context, datasetID string) ([]dataset.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []dataset.Run
	for _, r := range m.runs {
		if r.DatasetID == datasetID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datasets = make(map[string]dataset.Dataset)
	m.runs = make(map[string]dataset.Run)
	return nil
}
