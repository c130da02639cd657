package docstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-json-experiment/json"
	"go.uber.org/zap"

	"github.com/zeptools/gw-docgen/db/kvdb"
	"github.com/zeptools/gw-docgen/documents"
	"github.com/zeptools/gw-docgen/sec"
)

// hash fields of a document key
const (
	fieldType      = "type"
	fieldNumber    = "number"
	fieldExpiresAt = "expires_at" // unix seconds, 0 = never
	fieldRecord    = "record"     // JSON, or sealed base64url JSON when a cipher is set
)

const scanBatch = 200

// KVStore keeps each record in a hash that the backend expires after the retention period
type KVStore struct {
	client kvdb.Client
	cipher *sec.XChaCha20Poly1305Cipher // nil = stored in the clear
	prefix string
	logger *zap.Logger
	now    func() time.Time
}

var _ Store = (*KVStore)(nil)

// NewKVStore namespaces keys with the client's key prefix. cipher may be nil
func NewKVStore(client kvdb.Client, cipher *sec.XChaCha20Poly1305Cipher, logger *zap.Logger) *KVStore {
	return &KVStore{
		client: client,
		cipher: cipher,
		prefix: client.GetConf().KeyPrefix,
		logger: logger,
		now:    time.Now,
	}
}

func (s *KVStore) docKey(id string) string {
	return s.prefix + "doc:" + id
}

func (s *KVStore) seqKey(typ documents.Type) string {
	return s.prefix + "seq:" + string(typ)
}

func (s *KVStore) encode(rec *Record) (string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	if s.cipher == nil {
		return string(data), nil
	}
	sealed, err := s.cipher.EncryptEncode(data, []byte(rec.ID))
	if err != nil {
		return "", fmt.Errorf("seal record: %w", err)
	}
	return sealed, nil
}

func (s *KVStore) decode(id, raw string) (*Record, error) {
	data := []byte(raw)
	if s.cipher != nil {
		var err error
		if data, err = s.cipher.DecodeDecrypt(raw, []byte(id)); err != nil {
			return nil, fmt.Errorf("open record: %w", err)
		}
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}

func (s *KVStore) Save(ctx context.Context, rec *Record) error {
	encoded, err := s.encode(rec)
	if err != nil {
		return err
	}
	var expiresAt int64
	if !rec.ExpiresAt.IsZero() {
		expiresAt = rec.ExpiresAt.Unix()
	}
	key := s.docKey(rec.ID)
	err = s.client.SetFields(ctx, key, map[string]any{
		fieldType:      string(rec.Type),
		fieldNumber:    rec.Number,
		fieldExpiresAt: expiresAt,
		fieldRecord:    encoded,
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", rec.ID, err)
	}
	if expiresAt == 0 {
		return nil
	}
	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		ttl = time.Second
	}
	if _, err = s.client.Expire(ctx, key, ttl); err != nil {
		return fmt.Errorf("expire %s: %w", rec.ID, err)
	}
	return nil
}

func (s *KVStore) Get(ctx context.Context, id string) (*Record, error) {
	raw, found, err := s.client.GetField(ctx, s.docKey(id), fieldRecord)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	rec, err := s.decode(id, raw)
	if err != nil {
		return nil, err
	}
	if rec.Expired(s.now()) {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (s *KVStore) NextSequence(ctx context.Context, typ documents.Type) (int64, error) {
	return s.client.Incr(ctx, s.seqKey(typ))
}

// PurgeExpired removes records the backend has not expired yet, e.g. after a clock change
func (s *KVStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	keys, err := kvdb.ScanAll(ctx, s.client, s.prefix+"doc:*", scanBatch)
	if err != nil {
		return 0, err
	}
	var stale []string
	for _, key := range keys {
		v, found, err := s.client.GetField(ctx, key, fieldExpiresAt)
		if err != nil {
			return 0, err
		}
		if !found {
			continue
		}
		expiresAt, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.logger.Warn("bad expires_at", zap.String("key", key), zap.String("value", v))
			continue
		}
		if expiresAt > 0 && expiresAt <= now.Unix() {
			stale = append(stale, key)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	return s.client.Delete(ctx, stale...)
}

func (s *KVStore) Count(ctx context.Context) (int64, error) {
	keys, err := kvdb.ScanAll(ctx, s.client, s.prefix+"doc:*", scanBatch)
	if err != nil {
		return 0, err
	}
	return int64(len(keys)), nil
}

// Close is a no-op. The kv client belongs to conf.Core
func (s *KVStore) Close() error {
	return nil
}
