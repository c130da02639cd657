package sqldb

import "context"

// Scannable is a pointer to a row model that lists its scan targets in column order
type Scannable[T any] interface {
	~*T
	TargetFields() []any
}

// QueryItem runs a single-row query and scans it into a new M.
// An empty result gives ErrNoRows.
func QueryItem[M any, MP Scannable[M]](ctx context.Context, h Handle, rawSQLStmt string, args ...any) (*M, error) {
	return RowToItem[M, MP](h.QueryRow(ctx, rawSQLStmt, args...))
}

func RowToItem[M any, MP Scannable[M]](row Row) (*M, error) {
	var item M
	if err := row.Scan(MP(&item).TargetFields()...); err != nil {
		return nil, err
	}
	return &item, nil
}
