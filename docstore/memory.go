package docstore

import (
	"context"
	"sync"
	"time"

	"github.com/zeptools/gw-docgen/documents"
)

// MemoryStore keeps records in process. Records are lost on restart
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	seqs    map[documents.Type]int64
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore decides expiry with now; nil means time.Now
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		records: make(map[string]*Record),
		seqs:    make(map[documents.Type]int64),
		now:     now,
	}
}

func (s *MemoryStore) Save(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok || rec.Expired(s.now()) {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) NextSequence(_ context.Context, typ documents.Type) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqs[typ]++
	return s.seqs[typ], nil
}

func (s *MemoryStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	var n int64
	for _, rec := range s.records {
		if !rec.Expired(now) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
