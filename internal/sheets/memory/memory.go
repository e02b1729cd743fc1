package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
)

// Mirror is an in-memory spreadsheet stand-in used by tests and local runs
// without Google credentials.
type Mirror struct {
	mu   sync.Mutex
	rows []core.Transaction
}

func New() *Mirror {
	return &Mirror{}
}

// Append stores the transaction and returns a synthetic row reference.
func (m *Mirror) Append(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, t)
	return fmt.Sprintf("mem:%d", len(m.rows)), nil
}

// Remove drops the row with the given id. Missing ids are not an error.
func (m *Mirror) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, row := range m.rows {
		if row.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

// Rows returns a copy of the stored rows.
func (m *Mirror) Rows() []core.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Transaction, len(m.rows))
	copy(out, m.rows)
	return out
}
