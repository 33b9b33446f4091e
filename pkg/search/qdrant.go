package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantIndex implements Index backed by a Qdrant collection. Documents are
// stored as single points keyed by the document id (a UUID); hybrid queries
// fuse vector nearest-neighbour ranking with a full-text match on the
// content payload.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	dim        int
}

// QdrantConfig holds connection settings for the index.
type QdrantConfig struct {
	Host       string
	Port       int
	Collection string
	// EmbeddingDim is the vector size the collection is created with.
	EmbeddingDim int
}

// NewQdrantIndex connects to Qdrant and ensures the collection and the
// content full-text index exist.
func NewQdrantIndex(cfg QdrantConfig) (*QdrantIndex, error) {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		return nil, fmt.Errorf("qdrant host required")
	}
	collection := strings.TrimSpace(cfg.Collection)
	if collection == "" {
		return nil, fmt.Errorf("qdrant collection required")
	}
	if cfg.EmbeddingDim <= 0 {
		return nil, fmt.Errorf("embedding dim required")
	}
	port := cfg.Port
	if port <= 0 {
		port = 6334
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("connect qdrant: %w", err)
	}
	idx := &QdrantIndex{client: client, collection: collection, dim: cfg.EmbeddingDim}
	if err := idx.ensureCollection(context.Background()); err != nil {
		return nil, err
	}
	return idx, nil
}

func (q *QdrantIndex) ensureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if !exists {
		if err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: q.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(q.dim),
				Distance: qdrant.Distance_Cosine,
			}),
		}); err != nil {
			return fmt.Errorf("create collection: %w", err)
		}
	}
	// Text index on content enables the hybrid match condition. Creating it
	// again on restart is a no-op server side.
	if _, err := q.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: q.collection,
		FieldName:      "content",
		FieldType:      qdrant.FieldType_FieldTypeText.Enum(),
	}); err != nil {
		return fmt.Errorf("create content index: %w", err)
	}
	return nil
}

// Upsert pushes one document record into the collection.
func (q *QdrantIndex) Upsert(ctx context.Context, rec Record) error {
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("record id required")
	}
	if len(rec.Embedding) != q.dim {
		return fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(rec.Embedding), q.dim)
	}
	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(rec.ID),
		Vectors: qdrant.NewVectors(rec.Embedding...),
		Payload: qdrant.NewValueMap(map[string]any{
			"doc_id":      rec.ID,
			"file_name":   rec.FileName,
			"content":     rec.Content,
			"word_count":  int64(rec.WordCount),
			"page_count":  int64(rec.PageCount),
			"uploaded_at": rec.UploadedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}),
	}
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points:         []*qdrant.PointStruct{point},
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("upsert point: %w", err)
	}
	return nil
}

// Delete removes the document's point from the collection.
func (q *QdrantIndex) Delete(ctx context.Context, id string) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Points:         qdrant.NewPointsSelector(qdrant.NewIDUUID(id)),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("delete point: %w", err)
	}
	return nil
}

// Query runs the hybrid search and returns ranked document ids.
func (q *QdrantIndex) Query(ctx context.Context, text string, embedding []float32, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	if len(embedding) != q.dim {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(embedding), q.dim)
	}
	hits, err := q.client.Query(ctx, hybridQueryRequest(q.collection, text, embedding, limit))
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		if id := hitDocID(hit); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// hybridQueryRequest builds the search request. With query text present it
// fuses two prefetch branches with reciprocal rank fusion: a pure vector
// branch and a text-filtered vector branch. The text condition boosts lexical
// matches without gating out candidates that only score on similarity.
func hybridQueryRequest(collection, text string, embedding []float32, limit int) *qdrant.QueryPoints {
	topN := uint64(limit)
	req := &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          &topN,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return req
	}
	prefetchN := topN * 2
	req.Prefetch = []*qdrant.PrefetchQuery{
		{
			Query: qdrant.NewQuery(embedding...),
			Limit: &prefetchN,
		},
		{
			Query: qdrant.NewQuery(embedding...),
			Filter: &qdrant.Filter{
				Must: []*qdrant.Condition{
					qdrant.NewMatchText("content", text),
				},
			},
			Limit: &prefetchN,
		},
	}
	req.Query = qdrant.NewQueryFusion(qdrant.Fusion_RRF)
	return req
}

func hitDocID(hit *qdrant.ScoredPoint) string {
	if payload := hit.GetPayload(); payload != nil {
		if val, ok := payload["doc_id"]; ok {
			if s := val.GetStringValue(); s != "" {
				return s
			}
		}
	}
	return hit.GetId().GetUuid()
}
