package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// DBTX is the subset of database/sql used by repositories. Both *sql.DB and
// *sql.Tx satisfy it, so the same repository code runs inside or outside a
// transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx begins a transaction, runs fn with the transactional handle, and
// commits on success or rolls back on error or panic. Panics are rethrown.
func WithTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// mysqlDuplicateEntry is ER_DUP_ENTRY, raised when an INSERT or UPDATE
// violates a UNIQUE index.
const mysqlDuplicateEntry = 1062

// IsDuplicateKey reports whether err (or anything it wraps) is a MariaDB
// unique-constraint violation. Allocators use it to decide whether to retry.
func IsDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}

// IsDuplicateKeyOn reports whether err is a duplicate-key violation of the
// named unique index. MariaDB reports "for key 'uq_name'" and MySQL 8 reports
// "for key 'table.uq_name'"; both contain the bare index name.
func IsDuplicateKeyOn(err error, index string) bool {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) || myErr.Number != mysqlDuplicateEntry {
		return false
	}
	return strings.Contains(myErr.Message, "'"+index+"'") ||
		strings.Contains(myErr.Message, "."+index+"'")
}
