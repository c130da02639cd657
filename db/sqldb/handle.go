package sqldb

import (
	"context"
	"errors"
)

// ErrNoRows is what Row.Scan returns on an empty result, whatever the driver
var ErrNoRows = errors.New("sqldb: no rows in result set")

// Handle is what Client and Tx have in common.
// Document storage reads single rows only, so there is no multi-row query.
type Handle interface {
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	QueryRow(ctx context.Context, query string, args ...any) Row // lazy; errors surface at Scan
}

type Row interface {
	Scan(dest ...any) error
}

type Result interface {
	RowsAffected() (int64, error)
}
