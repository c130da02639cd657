// Package docstore keeps generated documents so they can be previewed,
// downloaded and shared after the request that produced them.
package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/zeptools/gw-docgen/documents"
)

var ErrNotFound = errors.New("document not found")

// Record is a rendered document. A zero ExpiresAt never expires
type Record struct {
	ID        string              `json:"id"`
	Type      documents.Type      `json:"type"`
	Number    string              `json:"number"`
	Filename  string              `json:"filename"`
	Document  *documents.Document `json:"document"`
	PDF       []byte              `json:"pdf"`
	CreatedAt time.Time           `json:"created_at"`
	ExpiresAt time.Time           `json:"expires_at"`
}

// NewRecord assigns a fresh id. retention <= 0 keeps the record forever
func NewRecord(doc *documents.Document, pdf []byte, now time.Time, retention time.Duration) *Record {
	rec := &Record{
		ID:        uuid.NewString(),
		Type:      doc.Type,
		Number:    doc.Number,
		Filename:  doc.Filename(),
		Document:  doc,
		PDF:       pdf,
		CreatedAt: now.UTC(),
	}
	if retention > 0 {
		rec.ExpiresAt = rec.CreatedAt.Add(retention)
	}
	return rec
}

func (r *Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// ValidID reports whether id has the shape NewRecord produces
func ValidID(id string) bool {
	return uuid.Validate(id) == nil
}

type Store interface {
	Save(ctx context.Context, rec *Record) error
	// Get returns ErrNotFound for missing and expired records
	Get(ctx context.Context, id string) (*Record, error)
	// NextSequence returns 1, 2, 3, ... per document type
	NextSequence(ctx context.Context, typ documents.Type) (int64, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
	// Count of live records
	Count(ctx context.Context) (int64, error)
	Close() error
}

// NumberFor allocates the next document number, e.g. "KMJ-007"
func NumberFor(ctx context.Context, store Store, company documents.Company, typ documents.Type) (string, error) {
	seq, err := store.NextSequence(ctx, typ)
	if err != nil {
		return "", err
	}
	return documents.FormatNumber(company.NumberPrefix, seq), nil
}
