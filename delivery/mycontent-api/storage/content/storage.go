package content

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("content not found")
	ErrInvalidKey = errors.New("invalid key")
)

// Repository stores metadata documents in named collections.
// No multi-document transaction is assumed; concurrent writes to the same
// document are last-write-wins.
type Repository interface {
	// Create a new document. The repository assigns ID and CreatedAt.
	Create(ctx context.Context, collection string, fields map[string]string) (Document, error)

	// Get a single document. If no data, MUST return ErrNotFound
	Get(ctx context.Context, collection string, ID string) (Document, error)

	// List every document of the collection, CreatedAt descending
	List(ctx context.Context, collection string) ([]Document, error)

	// Update merges patch into the document fields. If no data, MUST return ErrNotFound
	Update(ctx context.Context, collection string, ID string, patch map[string]string) (Document, error)

	// Delete specific ID data. If no data, MUST return ErrNotFound
	Delete(ctx context.Context, collection string, ID string) (Document, error)

	// Count documents in the collection
	Count(ctx context.Context, collection string) (int, error)
}

type Document struct {
	ID        string
	CreatedAt time.Time // server assigned, immutable
	Fields    map[string]string
}

// CopyFields returns a copy safe to hand out to callers
func CopyFields(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
