package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"docuchat/internal/util"
	"docuchat/pkg/domain"
	"docuchat/pkg/extract"
	"docuchat/pkg/queue"
	"docuchat/pkg/search"
)

// ProcessDocument runs the ingestion pipeline for one uploaded file:
// store raw bytes, extract text and page count, embed, persist, index.
// Steps run strictly in order; a failure before the database write fails the
// whole ingestion with nothing retained. A search-index failure after the
// database write enqueues a compensating reindex job rather than losing the
// persisted document.
func (a *App) ProcessDocument(ctx context.Context, fileName, contentType string, r io.Reader) (domain.Document, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return domain.Document{}, fmt.Errorf("file name required")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return domain.Document{}, fmt.Errorf("empty file")
	}

	id := uuid.NewString()
	key := id + "_" + fileName
	if err := a.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return domain.Document{}, fmt.Errorf("store file: %w", err)
	}
	url, err := a.objects.PresignGet(ctx, key, a.presignExpiry)
	if err != nil {
		return domain.Document{}, fmt.Errorf("presign file: %w", err)
	}

	extracted, err := a.extractor.Extract(ctx, extract.File{
		FileName:    fileName,
		ContentType: contentType,
		URL:         url,
		Data:        data,
	})
	if err != nil {
		return domain.Document{}, fmt.Errorf("extract text: %w", err)
	}

	embedding, err := a.embedder.EmbedText(ctx, extracted.Text)
	if err != nil {
		return domain.Document{}, fmt.Errorf("embed content: %w", err)
	}

	doc := domain.Document{
		ID:          id,
		FileName:    fileName,
		Content:     extracted.Text,
		StorageKey:  key,
		StorageURL:  url,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		PageCount:   extracted.Pages,
		WordCount:   countWords(extracted.Text),
		Embedding:   embedding,
		UploadedAt:  time.Now().UTC(),
	}
	if err := a.store.CreateDocument(doc); err != nil {
		return domain.Document{}, fmt.Errorf("persist document: %w", err)
	}

	if err := a.index.Upsert(ctx, indexRecord(doc)); err != nil {
		// The row is already durable; queue a retry instead of reporting
		// the whole ingestion as failed.
		if qerr := a.enqueueCompensation(ctx, doc.ID, queue.ActionIndex); qerr != nil {
			return domain.Document{}, fmt.Errorf("index document: %w", err)
		}
		util.LoggerFromContext(ctx).Warn("index push failed, queued for reindex",
			"document_id", doc.ID, "err", err)
	}
	return doc, nil
}

// DeleteDocument removes the document row, its stored object and its search
// index entry. Sessions scoped to it keep running with the reference cleared.
func (a *App) DeleteDocument(ctx context.Context, id string) error {
	doc, ok, err := a.store.GetDocument(id)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	if !ok {
		return ErrDocumentNotFound
	}
	if err := a.store.DeleteDocument(id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if doc.StorageKey != "" {
		if err := a.objects.Delete(ctx, doc.StorageKey); err != nil {
			util.LoggerFromContext(ctx).Warn("object delete failed",
				"document_id", id, "key", doc.StorageKey, "err", err)
		}
	}
	if err := a.index.Delete(ctx, id); err != nil {
		if qerr := a.enqueueCompensation(ctx, id, queue.ActionDeindex); qerr != nil {
			return fmt.Errorf("remove index entry: %w", err)
		}
		util.LoggerFromContext(ctx).Warn("index delete failed, queued for deindex",
			"document_id", id, "err", err)
	}
	return nil
}

// GetDocument returns one document by id.
func (a *App) GetDocument(id string) (domain.Document, bool, error) {
	return a.store.GetDocument(id)
}

// ListDocuments returns all documents, newest upload first.
func (a *App) ListDocuments() ([]domain.Document, error) {
	return a.store.ListDocuments()
}

func (a *App) enqueueCompensation(ctx context.Context, documentID, action string) error {
	if a.reindex == nil {
		return fmt.Errorf("no reindex queue configured")
	}
	_, err := a.reindex.Enqueue(ctx, documentID, action)
	return err
}

func indexRecord(doc domain.Document) search.Record {
	return search.Record{
		ID:         doc.ID,
		FileName:   doc.FileName,
		Content:    doc.Content,
		WordCount:  doc.WordCount,
		PageCount:  doc.PageCount,
		UploadedAt: doc.UploadedAt,
		Embedding:  doc.Embedding,
	}
}

// countWords counts whitespace-delimited tokens, discarding empty ones.
func countWords(text string) int {
	return len(strings.Fields(text))
}
