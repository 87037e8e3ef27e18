package documents

import (
	"context"
	"io"
)

// Repository persists document rows
type Repository interface {
	// Insert stores d. Inserting an id that already exists is a no-op.
	Insert(ctx context.Context, d *Document) error
	ListByProject(ctx context.Context, projectID string) ([]*Document, error)
}

// ObjectStore keeps the uploaded bytes and returns a URL for them
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// TextExtractor pulls plain text out of a document, when it has any
type TextExtractor interface {
	Extract(data []byte, mediaType string) (string, error)
}
