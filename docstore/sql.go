package docstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/go-json-experiment/json"
	"go.uber.org/zap"

	"github.com/zeptools/gw-docgen/db/sqldb"
	"github.com/zeptools/gw-docgen/documents"
)

//go:embed sql
var sqlFS embed.FS

const stmtGroup = "docstore"

func init() {
	sqldb.RegisterGroup(sqlFS, stmtGroup)
}

// schema statements in creation order. Missing ones are skipped per dialect
var schemaStmts = []string{"schema_documents", "schema_documents_idx", "schema_sequences"}

// SQLStore keeps records in a `documents` table of a pgsql or mysql database
type SQLStore struct {
	client sqldb.Client
	logger *zap.Logger
	now    func() time.Time
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore creates the tables when missing. client must be initialized
func NewSQLStore(ctx context.Context, client sqldb.Client, logger *zap.Logger) (*SQLStore, error) {
	s := &SQLStore{client: client, logger: logger, now: time.Now}
	for _, name := range schemaStmts {
		stmt, ok := client.RawStore().Get(stmtGroup + "." + name)
		if !ok {
			continue
		}
		if _, err := client.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("docstore schema %s: %w", name, err)
		}
	}
	logger.Info("docstore schema ready", zap.String("dbtype", client.GetConf().Type))
	return s, nil
}

func (s *SQLStore) stmt(name string) string {
	return s.client.RawStore().MustGet(stmtGroup + "." + name)
}

// recordRow is the scan target of select_document
type recordRow struct {
	ID        string
	Type      string
	Number    string
	Filename  string
	Document  string
	PDF       []byte
	CreatedAt int64
	ExpiresAt int64
}

func (r *recordRow) TargetFields() []any {
	return []any{&r.ID, &r.Type, &r.Number, &r.Filename, &r.Document, &r.PDF, &r.CreatedAt, &r.ExpiresAt}
}

func (r *recordRow) toRecord() (*Record, error) {
	var doc documents.Document
	if err := json.Unmarshal([]byte(r.Document), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document %s: %w", r.ID, err)
	}
	rec := &Record{
		ID:        r.ID,
		Type:      documents.Type(r.Type),
		Number:    r.Number,
		Filename:  r.Filename,
		Document:  &doc,
		PDF:       r.PDF,
		CreatedAt: time.Unix(r.CreatedAt, 0).UTC(),
	}
	if r.ExpiresAt > 0 {
		rec.ExpiresAt = time.Unix(r.ExpiresAt, 0).UTC()
	}
	return rec, nil
}

func (s *SQLStore) Save(ctx context.Context, rec *Record) error {
	doc, err := json.Marshal(rec.Document)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	var expiresAt int64
	if !rec.ExpiresAt.IsZero() {
		expiresAt = rec.ExpiresAt.Unix()
	}
	_, err = s.client.Exec(ctx, s.stmt("insert_document"),
		rec.ID, string(rec.Type), rec.Number, rec.Filename, string(doc), rec.PDF,
		rec.CreatedAt.Unix(), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert document %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*Record, error) {
	row, err := sqldb.QueryItem[recordRow, *recordRow](ctx, s.client, s.stmt("select_document"), id, s.now().Unix())
	if errors.Is(err, sqldb.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toRecord()
}

// NextSequence bumps the counter row, creating it on first use
func (s *SQLStore) NextSequence(ctx context.Context, typ documents.Type) (int64, error) {
	var seq int64
	err := sqldb.WithTx(ctx, s.client, func(tx sqldb.Tx) error {
		res, err := tx.Exec(ctx, s.stmt("bump_sequence"), string(typ))
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			if _, err = tx.Exec(ctx, s.stmt("insert_sequence"), string(typ)); err != nil {
				return err
			}
		}
		return tx.QueryRow(ctx, s.stmt("select_sequence"), string(typ)).Scan(&seq)
	})
	if err != nil {
		return 0, fmt.Errorf("next %s sequence: %w", typ, err)
	}
	return seq, nil
}

func (s *SQLStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.client.Exec(ctx, s.stmt("purge_documents"), now.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.client.QueryRow(ctx, s.stmt("count_documents"), s.now().Unix()).Scan(&n)
	return n, err
}

// Close is a no-op. The sql client belongs to conf.Core
func (s *SQLStore) Close() error {
	return nil
}
