// Package store provides typed windowed access to append-oriented tables.
//
// The store is deliberately not a database: a table is an ordered list of
// string rows with a fixed header at row 0. There is no uniqueness, typing or
// secondary indexing; every invariant is enforced by callers, and every read
// is bounded by an explicit window so per-call cost stays roughly constant
// regardless of total volume.
package store

import "context"

// Row is one table row together with its position.
type Row struct {
	Index int
	Cells []string
}

// Store is the tabular store adapter. Row order is insertion order; row 0 is
// the header. A missing table is a distinct condition from an empty one and
// surfaces as ErrTableNotFound.
type Store interface {
	// EnsureTable creates the table with the canonical header row when absent.
	EnsureTable(ctx context.Context, table string, header []string) error
	// ReadWindow returns at most count rows starting at fromRow.
	ReadWindow(ctx context.Context, table string, fromRow, count int) ([]Row, error)
	// WriteRow overwrites exactly the row at rowIndex.
	WriteRow(ctx context.Context, table string, rowIndex int, cells []string) error
	// AppendRow adds a row after the current last row.
	AppendRow(ctx context.Context, table string, cells []string) error
	// RowCount returns the number of rows including the header.
	RowCount(ctx context.Context, table string) (int, error)
	// ReplaceRows rewrites all data rows, keeping the header.
	ReplaceRows(ctx context.Context, table string, rows [][]string) error
	// ListTables returns the names of tables matching the prefix, sorted.
	ListTables(ctx context.Context, prefix string) ([]string, error)
}

// Canonical table names and headers.
const (
	TableRoster     = "students"
	TableAttendance = "attendance"
	TableSettings   = "settings"

	// PartitionPrefix names archived months: attendance_YYYY_MM.
	PartitionPrefix = "attendance_"
)

var (
	RosterHeader     = []string{"nis", "nama", "kelas", "guardian_contact"}
	AttendanceHeader = []string{"date", "nis", "nama", "status", "check_in", "check_out", "note"}
	SettingsHeader   = []string{"key", "value"}
)
