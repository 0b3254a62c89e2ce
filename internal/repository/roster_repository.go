package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/hadirq/ledger-api/internal/models"
	"github.com/hadirq/ledger-api/internal/store"
	appErrors "github.com/hadirq/ledger-api/pkg/errors"
)

// rosterReadBatch bounds each windowed read of the roster table. The roster
// is read whole on cache rebuild, but still in store-sized windows.
const rosterReadBatch = 500

// RosterRepository provides typed access to the master roster table.
type RosterRepository struct {
	store store.Store
}

// NewRosterRepository constructs a RosterRepository.
func NewRosterRepository(s store.Store) *RosterRepository {
	return &RosterRepository{store: s}
}

// All returns every student in roster order, lazily creating the table.
func (r *RosterRepository) All(ctx context.Context) ([]models.Student, error) {
	count, err := r.store.RowCount(ctx, store.TableRoster)
	if err != nil {
		if isTableNotFound(err) {
			if err := r.store.EnsureTable(ctx, store.TableRoster, store.RosterHeader); err != nil {
				return nil, fmt.Errorf("create roster table: %w", err)
			}
			return nil, nil
		}
		return nil, err
	}

	students := make([]models.Student, 0, count-1)
	for from := 1; from < count; from += rosterReadBatch {
		rows, err := r.store.ReadWindow(ctx, store.TableRoster, from, rosterReadBatch)
		if err != nil {
			return nil, fmt.Errorf("read roster: %w", err)
		}
		for _, row := range rows {
			s := studentFromCells(row.Cells)
			if s.NIS == "" {
				continue
			}
			students = append(students, s)
		}
	}
	return students, nil
}

// Find returns the student with the given NIS and its row index.
func (r *RosterRepository) Find(ctx context.Context, nis string) (int, *models.Student, error) {
	count, err := r.store.RowCount(ctx, store.TableRoster)
	if err != nil {
		if isTableNotFound(err) {
			return 0, nil, appErrors.Clone(appErrors.ErrStudentNotFound, "NIS "+nis+" is not registered")
		}
		return 0, nil, err
	}
	for from := 1; from < count; from += rosterReadBatch {
		rows, err := r.store.ReadWindow(ctx, store.TableRoster, from, rosterReadBatch)
		if err != nil {
			return 0, nil, fmt.Errorf("read roster: %w", err)
		}
		for _, row := range rows {
			if cell(row.Cells, 0) == nis {
				s := studentFromCells(row.Cells)
				return row.Index, &s, nil
			}
		}
	}
	return 0, nil, appErrors.Clone(appErrors.ErrStudentNotFound, "NIS "+nis+" is not registered")
}

// Append adds a new roster row.
func (r *RosterRepository) Append(ctx context.Context, s models.Student) error {
	if err := r.store.EnsureTable(ctx, store.TableRoster, store.RosterHeader); err != nil {
		return fmt.Errorf("create roster table: %w", err)
	}
	if err := r.store.AppendRow(ctx, store.TableRoster, studentToCells(s)); err != nil {
		return fmt.Errorf("append student: %w", err)
	}
	return nil
}

// Update overwrites the roster row at the given index.
func (r *RosterRepository) Update(ctx context.Context, rowIndex int, s models.Student) error {
	if err := r.store.WriteRow(ctx, store.TableRoster, rowIndex, studentToCells(s)); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

func isTableNotFound(err error) bool {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr.Code == appErrors.ErrTableNotFound.Code
	}
	return false
}
