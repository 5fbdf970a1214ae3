package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("document not found")

// DocumentStore persists programs by id.
type DocumentStore interface {
	// SaveDocument inserts rec when its ID is uuid.Nil, assigning a new
	// one, and updates the stored record otherwise.
	SaveDocument(ctx context.Context, rec *DocumentRecord) error
	LoadDocument(ctx context.Context, id uuid.UUID) (*DocumentRecord, error)
	ListDocuments(ctx context.Context) ([]DocumentSummary, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error
	Close()
}
