// Package store provides RunStore implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/attendance-engine/attendance"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	runs  map[attendance.RunID]attendance.Run
	order []attendance.RunID
}

func NewMemory() *Memory {
	return &Memory{
		runs: make(map[attendance.RunID]attendance.Run),
	}
}

var _ attendance.RunStore = (*Memory)(nil)

func (m *Memory) SaveRun(ctx context.Context, run attendance.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := make([]attendance.ReconciledRow, len(run.Rows))
	copy(rows, run.Rows)
	run.Rows = rows

	if _, exists := m.runs[run.ID]; !exists {
		m.order = append(m.order, run.ID)
	}
	m.runs[run.ID] = run
	return nil
}

func (m *Memory) GetRun(ctx context.Context, id attendance.RunID) (*attendance.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return nil, attendance.ErrRunNotFound
	}
	return &run, nil
}

func (m *Memory) ListRuns(ctx context.Context, limit int) ([]attendance.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]attendance.Run, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		run := m.runs[m.order[i]]
		run.Rows = nil
		result = append(result, run)
	}

	// Newest first; insertion order breaks ties.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *Memory) Close() error { return nil }
