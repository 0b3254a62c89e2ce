package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/hadirq/ledger-api/internal/models"
	"github.com/hadirq/ledger-api/internal/store"
)

// EventRow pairs a decoded attendance event with its live-table position.
type EventRow struct {
	Index int
	Event models.AttendanceEvent
}

// Partition identifies one archived month.
type Partition struct {
	Name  string     `json:"name"`
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// LedgerRepository provides typed access to the live attendance table and
// its monthly partitions.
type LedgerRepository struct {
	store store.Store
}

// NewLedgerRepository constructs a LedgerRepository.
func NewLedgerRepository(s store.Store) *LedgerRepository {
	return &LedgerRepository{store: s}
}

// EnsureLive lazily creates the live attendance table.
func (r *LedgerRepository) EnsureLive(ctx context.Context) error {
	if err := r.store.EnsureTable(ctx, store.TableAttendance, store.AttendanceHeader); err != nil {
		return fmt.Errorf("create attendance table: %w", err)
	}
	return nil
}

// FindByDate locates the row for (date, nis) by scanning the most recent
// window of the live table newest to oldest, stopping at the first match.
// Rows older than the window are guaranteed not to belong to the given day,
// so the search cost is bounded regardless of table size.
func (r *LedgerRepository) FindByDate(ctx context.Context, date, nis string, window int) (*EventRow, error) {
	count, err := r.store.RowCount(ctx, store.TableAttendance)
	if err != nil {
		if isTableNotFound(err) {
			if err := r.EnsureLive(ctx); err != nil {
				return nil, err
			}
			return nil, nil
		}
		return nil, err
	}
	if count <= 1 {
		return nil, nil
	}

	from := count - window
	if from < 1 {
		from = 1
	}
	rows, err := r.store.ReadWindow(ctx, store.TableAttendance, from, window)
	if err != nil {
		return nil, fmt.Errorf("scan attendance window: %w", err)
	}
	for i := len(rows) - 1; i >= 0; i-- {
		if rowDate(rows[i].Cells) == date && cell(rows[i].Cells, 1) == nis {
			return &EventRow{Index: rows[i].Index, Event: eventFromCells(rows[i].Cells)}, nil
		}
	}
	return nil, nil
}

// Append adds a new event row to the live table.
func (r *LedgerRepository) Append(ctx context.Context, e models.AttendanceEvent) error {
	if err := r.EnsureLive(ctx); err != nil {
		return err
	}
	if err := r.store.AppendRow(ctx, store.TableAttendance, eventToCells(e)); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Write overwrites the live-table row at the given index.
func (r *LedgerRepository) Write(ctx context.Context, rowIndex int, e models.AttendanceEvent) error {
	if err := r.store.WriteRow(ctx, store.TableAttendance, rowIndex, eventToCells(e)); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// TailWindow reads the most recent cap data rows of the named attendance
// table and decodes them in original order. The table may be the live table
// or any partition; a missing table propagates ErrTableNotFound.
func (r *LedgerRepository) TailWindow(ctx context.Context, table string, cap int) ([]models.AttendanceEvent, error) {
	count, err := r.store.RowCount(ctx, table)
	if err != nil {
		return nil, err
	}
	if count <= 1 {
		return nil, nil
	}
	from := count - cap
	if from < 1 {
		from = 1
	}
	rows, err := r.store.ReadWindow(ctx, table, from, cap)
	if err != nil {
		return nil, fmt.Errorf("read %s window: %w", table, err)
	}
	events := make([]models.AttendanceEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, eventFromCells(row.Cells))
	}
	return events, nil
}

// AllRows returns every data row of the live table as raw cells, preserving
// order. Used only by the archival pass, which must conserve rows it cannot
// decode.
func (r *LedgerRepository) AllRows(ctx context.Context) ([][]string, error) {
	count, err := r.store.RowCount(ctx, store.TableAttendance)
	if err != nil {
		if isTableNotFound(err) {
			return nil, r.EnsureLive(ctx)
		}
		return nil, err
	}
	out := make([][]string, 0, count-1)
	const batch = 1000
	for from := 1; from < count; from += batch {
		rows, err := r.store.ReadWindow(ctx, store.TableAttendance, from, batch)
		if err != nil {
			return nil, fmt.Errorf("read attendance: %w", err)
		}
		for _, row := range rows {
			out = append(out, row.Cells)
		}
	}
	return out, nil
}

// EnsurePartition creates the monthly partition table when absent and
// returns its name.
func (r *LedgerRepository) EnsurePartition(ctx context.Context, year int, month time.Month) (string, error) {
	name := PartitionName(year, month)
	if err := r.store.EnsureTable(ctx, name, store.AttendanceHeader); err != nil {
		return "", fmt.Errorf("create partition %s: %w", name, err)
	}
	return name, nil
}

// AppendToPartition appends raw rows to a partition in original relative order.
func (r *LedgerRepository) AppendToPartition(ctx context.Context, name string, rows [][]string) error {
	for _, cells := range rows {
		if err := r.store.AppendRow(ctx, name, cells); err != nil {
			return fmt.Errorf("append to %s: %w", name, err)
		}
	}
	return nil
}

// ReplaceLive rewrites the live table to contain exactly the given rows.
func (r *LedgerRepository) ReplaceLive(ctx context.Context, rows [][]string) error {
	if err := r.store.ReplaceRows(ctx, store.TableAttendance, rows); err != nil {
		return fmt.Errorf("rewrite live table: %w", err)
	}
	return nil
}

// Partitions lists the existing monthly partitions, oldest first.
func (r *LedgerRepository) Partitions(ctx context.Context) ([]Partition, error) {
	names, err := r.store.ListTables(ctx, store.PartitionPrefix)
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}
	partitions := make([]Partition, 0, len(names))
	for _, name := range names {
		year, month, ok := ParsePartitionName(name)
		if !ok {
			continue
		}
		partitions = append(partitions, Partition{Name: name, Year: year, Month: month})
	}
	return partitions, nil
}
