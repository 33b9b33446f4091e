package app

import (
	"context"
	"fmt"
	"strings"

	"docuchat/pkg/domain"
)

// Retrieve resolves relevant documents for a query. With a scoped document id
// it is a direct lookup and no search service is touched; otherwise the query
// is embedded and sent to the hybrid index. The index's ranking order is
// preserved in the result. No match is an empty slice, not an error.
func (a *App) Retrieve(ctx context.Context, query, scopedDocumentID string, maxResults int) ([]domain.Document, error) {
	if maxResults <= 0 {
		maxResults = a.topK
	}
	if scopedDocumentID = strings.TrimSpace(scopedDocumentID); scopedDocumentID != "" {
		doc, ok, err := a.store.GetDocument(scopedDocumentID)
		if err != nil {
			return nil, fmt.Errorf("load document: %w", err)
		}
		if !ok {
			return []domain.Document{}, nil
		}
		return []domain.Document{doc}, nil
	}

	embedding, err := a.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	ids, err := a.index.Query(ctx, query, embedding, maxResults)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Document{}, nil
	}
	// Re-fetch full records; GetDocuments keeps the ranking order of ids.
	docs, err := a.store.GetDocuments(ids)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	return docs, nil
}
