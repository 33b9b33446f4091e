package search

import (
	"context"
	"time"
)

// Record is the denormalized form of a document pushed into the search index.
type Record struct {
	ID         string
	FileName   string
	Content    string
	WordCount  int
	PageCount  int
	UploadedAt time.Time
	Embedding  []float32
}

// Index abstracts the external hybrid search service. Query combines the
// free-text query with vector similarity and returns document ids in the
// service's ranking order.
type Index interface {
	Upsert(ctx context.Context, rec Record) error
	Delete(ctx context.Context, id string) error
	Query(ctx context.Context, text string, embedding []float32, limit int) ([]string, error)
}
