package sqldb

import (
	"context"
)

type Client interface {
	Handle // Statements run outside a transaction go through the client directly

	Init(ctx context.Context) error
	Close() error
	GetConf() *Conf
	Ping(ctx context.Context) error
	BeginTx(ctx context.Context) (Tx, error)
	// RawStore holds the embedded statements loaded for this client's dialect
	RawStore() *RawSQLStore
}
