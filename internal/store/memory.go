package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	appErrors "github.com/hadirq/ledger-api/pkg/errors"
)

// MemoryStore is an in-process Store used by tests and local development.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string][][]string
}

// NewMemoryStore returns an empty memory-backed store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string][][]string)}
}

// EnsureTable creates the table with its header when absent.
func (s *MemoryStore) EnsureTable(_ context.Context, table string, header []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[table]; ok {
		return nil
	}
	s.tables[table] = [][]string{copyCells(header)}
	return nil
}

// ReadWindow returns at most count rows starting at fromRow.
func (s *MemoryStore) ReadWindow(_ context.Context, table string, fromRow, count int) ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.tables[table]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrTableNotFound, "table "+table+" does not exist")
	}
	if fromRow < 0 {
		fromRow = 0
	}
	out := make([]Row, 0, count)
	for i := fromRow; i < len(rows) && len(out) < count; i++ {
		out = append(out, Row{Index: i, Cells: copyCells(rows[i])})
	}
	return out, nil
}

// WriteRow overwrites exactly the row at rowIndex.
func (s *MemoryStore) WriteRow(_ context.Context, table string, rowIndex int, cells []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tables[table]
	if !ok {
		return appErrors.Clone(appErrors.ErrTableNotFound, "table "+table+" does not exist")
	}
	if rowIndex < 0 || rowIndex >= len(rows) {
		return appErrors.Clone(appErrors.ErrNotFound, "row out of range")
	}
	rows[rowIndex] = copyCells(cells)
	return nil
}

// AppendRow adds a row after the current last row.
func (s *MemoryStore) AppendRow(_ context.Context, table string, cells []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tables[table]
	if !ok {
		return appErrors.Clone(appErrors.ErrTableNotFound, "table "+table+" does not exist")
	}
	s.tables[table] = append(rows, copyCells(cells))
	return nil
}

// RowCount returns the number of rows including the header.
func (s *MemoryStore) RowCount(_ context.Context, table string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.tables[table]
	if !ok {
		return 0, appErrors.Clone(appErrors.ErrTableNotFound, "table "+table+" does not exist")
	}
	return len(rows), nil
}

// ReplaceRows rewrites all data rows, keeping the header.
func (s *MemoryStore) ReplaceRows(_ context.Context, table string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tables[table]
	if !ok || len(existing) == 0 {
		return appErrors.Clone(appErrors.ErrTableNotFound, "table "+table+" does not exist")
	}
	next := make([][]string, 0, len(rows)+1)
	next = append(next, existing[0])
	for _, r := range rows {
		next = append(next, copyCells(r))
	}
	s.tables[table] = next
	return nil
}

// ListTables returns the names of tables matching the prefix, sorted.
func (s *MemoryStore) ListTables(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func copyCells(cells []string) []string {
	out := make([]string, len(cells))
	copy(out, cells)
	return out
}
