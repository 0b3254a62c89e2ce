package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	appErrors "github.com/hadirq/ledger-api/pkg/errors"
)

// appendRetries bounds the unique-violation retry loop in AppendRow.
const appendRetries = 5

// PostgresStore keeps every logical table as ordered rows in one relation.
// Insertion order is materialised as row_idx; all windowed reads are
// ORDER BY row_idx LIMIT, so scan cost is bounded by the caller's window.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the backing relation when absent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	const ddl = `CREATE TABLE IF NOT EXISTS ledger_rows (
        tbl TEXT NOT NULL,
        row_idx INT NOT NULL,
        cells TEXT[] NOT NULL,
        PRIMARY KEY (tbl, row_idx)
    )`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("migrate ledger_rows: %w", err)
	}
	return nil
}

// EnsureTable creates the table with the canonical header row when absent.
func (s *PostgresStore) EnsureTable(ctx context.Context, table string, header []string) error {
	count, err := s.countRows(ctx, table)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ledger_rows (tbl, row_idx, cells) VALUES ($1, 0, $2)
         ON CONFLICT (tbl, row_idx) DO NOTHING`,
		table, pq.Array(header))
	if err != nil {
		return storeFailure("ensure table "+table, err)
	}
	return nil
}

// ReadWindow returns at most count rows starting at fromRow.
func (s *PostgresStore) ReadWindow(ctx context.Context, table string, fromRow, count int) ([]Row, error) {
	if fromRow < 0 {
		fromRow = 0
	}
	type rowRec struct {
		Idx   int            `db:"row_idx"`
		Cells pq.StringArray `db:"cells"`
	}
	var recs []rowRec
	err := s.db.SelectContext(ctx, &recs,
		`SELECT row_idx, cells FROM ledger_rows
         WHERE tbl = $1 AND row_idx >= $2
         ORDER BY row_idx ASC LIMIT $3`,
		table, fromRow, count)
	if err != nil {
		return nil, storeFailure("read window "+table, err)
	}
	if len(recs) == 0 {
		total, err := s.countRows(ctx, table)
		if err != nil {
			return nil, err
		}
		if total == 0 {
			return nil, appErrors.Clone(appErrors.ErrTableNotFound, "table "+table+" does not exist")
		}
		return nil, nil
	}
	rows := make([]Row, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, Row{Index: rec.Idx, Cells: []string(rec.Cells)})
	}
	return rows, nil
}

// WriteRow overwrites exactly the row at rowIndex.
func (s *PostgresStore) WriteRow(ctx context.Context, table string, rowIndex int, cells []string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ledger_rows SET cells = $3 WHERE tbl = $1 AND row_idx = $2`,
		table, rowIndex, pq.Array(cells))
	if err != nil {
		return storeFailure("write row "+table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storeFailure("write row "+table, err)
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("table %s has no row %d", table, rowIndex))
	}
	return nil
}

// AppendRow adds a row after the current last row. Two concurrent appends to
// the same table can compute the same next index; the losing insert hits the
// primary key and is retried against the fresh maximum.
func (s *PostgresStore) AppendRow(ctx context.Context, table string, cells []string) error {
	var err error
	for attempt := 0; attempt < appendRetries; attempt++ {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO ledger_rows (tbl, row_idx, cells)
         SELECT $1, COALESCE(MAX(row_idx) + 1, 0), $2 FROM ledger_rows WHERE tbl = $1`,
			table, pq.Array(cells))
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			break
		}
	}
	return storeFailure("append row "+table, err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// RowCount returns the number of rows including the header.
func (s *PostgresStore) RowCount(ctx context.Context, table string) (int, error) {
	count, err := s.countRows(ctx, table)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, appErrors.Clone(appErrors.ErrTableNotFound, "table "+table+" does not exist")
	}
	return count, nil
}

// ReplaceRows rewrites all data rows, keeping the header.
func (s *PostgresStore) ReplaceRows(ctx context.Context, table string, rows [][]string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeFailure("replace rows "+table, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM ledger_rows WHERE tbl = $1 AND row_idx > 0`, table); err != nil {
		return storeFailure("replace rows "+table, err)
	}
	for i, cells := range rows {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ledger_rows (tbl, row_idx, cells) VALUES ($1, $2, $3)`,
			table, i+1, pq.Array(cells)); err != nil {
			return storeFailure("replace rows "+table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storeFailure("replace rows "+table, err)
	}
	return nil
}

// likeEscaper neutralises LIKE metacharacters so a prefix is matched
// literally. Partition prefixes contain underscores.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `_`, `\_`, `%`, `\%`)

// ListTables returns the names of tables matching the prefix, sorted.
func (s *PostgresStore) ListTables(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := s.db.SelectContext(ctx, &names,
		`SELECT DISTINCT tbl FROM ledger_rows WHERE tbl LIKE $1 ESCAPE '\' ORDER BY tbl`,
		likeEscaper.Replace(prefix)+"%")
	if err != nil {
		return nil, storeFailure("list tables", err)
	}
	return names, nil
}

func (s *PostgresStore) countRows(ctx context.Context, table string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM ledger_rows WHERE tbl = $1`, table)
	if err != nil {
		return 0, storeFailure("count rows "+table, err)
	}
	return count, nil
}

func storeFailure(op string, err error) error {
	return appErrors.Wrap(fmt.Errorf("%s: %w", op, err),
		appErrors.ErrStoreUnavailable.Code,
		appErrors.ErrStoreUnavailable.Status,
		appErrors.ErrStoreUnavailable.Message)
}
