package kvdb

import (
	"context"
	"time"
)

// Client is the key-value backend behind document storage.
// Records are hashes; sequences are integer keys.
type Client interface {
	Init(ctx context.Context) error
	Close() error
	GetConf() *Conf

	Delete(ctx context.Context, keys ...string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) // found, err

	// ScanKeys returns one batch of keys matching a glob such as "docgen:doc:*".
	// The cursor is backend-specific; a nil next cursor ends the scan.
	ScanKeys(ctx context.Context, cursor any, match string, scanBatchSize int) ([]string, any, error)

	// Incr starts from 0 when the key is missing
	Incr(ctx context.Context, key string) (int64, error)

	SetFields(ctx context.Context, key string, fields map[string]any) error
	GetField(ctx context.Context, key string, field string) (string, bool, error) // val, found, err
}


// ScanAll collects every key matching pattern
func ScanAll(ctx context.Context, c Client, match string, batch int) ([]string, error) {
	var (
		all    []string
		cursor any
	)
	for {
		keys, next, err := c.ScanKeys(ctx, cursor, match, batch)
		if err != nil {
			return nil, err
		}
		all = append(all, keys...)
		if next == nil {
			return all, nil
		}
		cursor = next
	}
}
