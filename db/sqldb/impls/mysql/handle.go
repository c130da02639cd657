package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/zeptools/gw-docgen/db/sqldb"
)

// execer is what *sql.DB and *sql.Tx share
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Handle struct {
	*sql.DB // [Embedded]
}

var _ sqldb.Handle = (*Handle)(nil)

func (h *Handle) Exec(ctx context.Context, query string, args ...any) (sqldb.Result, error) {
	return exec(ctx, h.DB, query, args)
}

func (h *Handle) QueryRow(ctx context.Context, query string, args ...any) sqldb.Row {
	return row{h.DB.QueryRowContext(ctx, query, args...)}
}

type Tx struct {
	tx *sql.Tx
}

var _ sqldb.Tx = (*Tx)(nil)

// Commit and Rollback ignore ctx; database/sql binds the tx to the BeginTx context
func (t *Tx) Commit(context.Context) error   { return t.tx.Commit() }
func (t *Tx) Rollback(context.Context) error { return t.tx.Rollback() }

func (t *Tx) Exec(ctx context.Context, query string, args ...any) (sqldb.Result, error) {
	return exec(ctx, t.tx, query, args)
}

func (t *Tx) QueryRow(ctx context.Context, query string, args ...any) sqldb.Row {
	return row{t.tx.QueryRowContext(ctx, query, args...)}
}

// sql.Result already satisfies sqldb.Result
func exec(ctx context.Context, e execer, query string, args []any) (sqldb.Result, error) {
	res, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return res, nil
}

type row struct {
	*sql.Row
}

func (r row) Scan(dest ...any) error {
	if err := r.Row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sqldb.ErrNoRows
		}
		return err
	}
	return nil
}
