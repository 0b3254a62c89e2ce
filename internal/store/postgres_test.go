package store

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/hadirq/ledger-api/pkg/errors"
)

func newStoreMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresStore(sqlx.NewDb(db, "sqlmock")), mock, func() { db.Close() }
}

func TestPostgresStoreReadWindow(t *testing.T) {
	s, mock, cleanup := newStoreMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"row_idx", "cells"}).
		AddRow(1, "{01/06/2025,1001,Ahmad,Present,07:00,\"\",OnTime}").
		AddRow(2, "{01/06/2025,1002,Budi,Present,07:10,\"\",OnTime}")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT row_idx, cells FROM ledger_rows")).
		WithArgs(TableAttendance, 1, 100).
		WillReturnRows(rows)

	got, err := s.ReadWindow(context.Background(), TableAttendance, 1, 100)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Index)
	assert.Equal(t, "1001", got[0].Cells[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreReadWindowMissingTable(t *testing.T) {
	s, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT row_idx, cells FROM ledger_rows")).
		WithArgs(TableAttendance, 0, 10).
		WillReturnRows(sqlmock.NewRows([]string{"row_idx", "cells"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM ledger_rows")).
		WithArgs(TableAttendance).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err := s.ReadWindow(context.Background(), TableAttendance, 0, 10)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTableNotFound.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreAppendRow(t *testing.T) {
	s, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ledger_rows (tbl, row_idx, cells)")).
		WithArgs(TableAttendance, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.AppendRow(context.Background(), TableAttendance,
		[]string{"01/06/2025", "1001", "Ahmad", "Present", "07:00", "", "OnTime"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreAppendRowRetriesUniqueViolation(t *testing.T) {
	s, mock, cleanup := newStoreMock(t)
	defer cleanup()

	// A concurrent append claimed the same index; the retry must succeed.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ledger_rows (tbl, row_idx, cells)")).
		WithArgs(TableAttendance, sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ledger_rows (tbl, row_idx, cells)")).
		WithArgs(TableAttendance, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.AppendRow(context.Background(), TableAttendance,
		[]string{"01/06/2025", "1001", "Ahmad", "Present", "07:00", "", "OnTime"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreAppendRowGivesUpOnOtherErrors(t *testing.T) {
	s, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ledger_rows (tbl, row_idx, cells)")).
		WithArgs(TableAttendance, sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "57P01"})

	err := s.AppendRow(context.Background(), TableAttendance, []string{"x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStoreUnavailable.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreWriteRowMissingRow(t *testing.T) {
	s, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE ledger_rows SET cells")).
		WithArgs(TableAttendance, 42, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.WriteRow(context.Background(), TableAttendance, 42, []string{"x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreEnsureTableCreatesHeaderOnce(t *testing.T) {
	s, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM ledger_rows")).
		WithArgs(TableRoster).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ledger_rows (tbl, row_idx, cells) VALUES ($1, 0, $2)")).
		WithArgs(TableRoster, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.EnsureTable(context.Background(), TableRoster, RosterHeader))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM ledger_rows")).
		WithArgs(TableRoster).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	require.NoError(t, s.EnsureTable(context.Background(), TableRoster, RosterHeader))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreReplaceRows(t *testing.T) {
	s, mock, cleanup := newStoreMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM ledger_rows WHERE tbl = $1 AND row_idx > 0")).
		WithArgs(TableAttendance).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ledger_rows (tbl, row_idx, cells) VALUES ($1, $2, $3)")).
		WithArgs(TableAttendance, 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.ReplaceRows(context.Background(), TableAttendance, [][]string{
		{"01/06/2025", "1001", "Ahmad", "Present", "07:00", "", "OnTime"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreListTables(t *testing.T) {
	s, mock, cleanup := newStoreMock(t)
	defer cleanup()

	// The underscore in the prefix must be escaped so LIKE matches it
	// literally instead of as a single-character wildcard.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT tbl FROM ledger_rows WHERE tbl LIKE $1")).
		WithArgs(`attendance\_` + "%").
		WillReturnRows(sqlmock.NewRows([]string{"tbl"}).
			AddRow("attendance_2025_04").
			AddRow("attendance_2025_05"))

	names, err := s.ListTables(context.Background(), PartitionPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{"attendance_2025_04", "attendance_2025_05"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}
