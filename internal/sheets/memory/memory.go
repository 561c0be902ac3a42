package memory

import (
	"context"
	"fmt"
	"sync"

	"cuentas/internal/core"
	ports "cuentas/internal/sheets"
)

// Store is an in-process history mirror for development and tests.
type Store struct {
	mu     sync.Mutex
	years  map[int][]core.HistoryRow
	writes int
}

var _ ports.HistoryMirror = (*Store)(nil)

func New() *Store {
	return &Store{years: map[int][]core.HistoryRow{}}
}

// WriteHistory replaces the stored rows and returns a synthetic reference.
func (s *Store) WriteHistory(_ context.Context, year int, rows []core.HistoryRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.years[year] = append([]core.HistoryRow(nil), rows...)
	s.writes++
	return fmt.Sprintf("mem:%d:%d", year, s.writes), nil
}

func (s *Store) ReadHistory(_ context.Context, year int) ([]core.HistoryRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.HistoryRow(nil), s.years[year]...), nil
}

// Writes counts WriteHistory calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
