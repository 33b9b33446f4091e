package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"docuchat/internal/util"
	"docuchat/pkg/queue"
)

// StartReindexWorker consumes compensation jobs and replays the failed
// search-index write. It is a no-op when no queue is configured.
func (a *App) StartReindexWorker(ctx context.Context, concurrency int) {
	if a.reindex == nil {
		return
	}
	a.reindex.Start(ctx, concurrency, a.handleReindexJob)
}

// ReindexAll rebuilds the search index from every persisted document.
// Recovers from index drift in bulk; upserts run with bounded parallelism
// and the first failure cancels the rest.
func (a *App) ReindexAll(ctx context.Context, concurrency int) (int, error) {
	if concurrency <= 0 {
		concurrency = 4
	}
	docs, err := a.store.ListDocuments()
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, doc := range docs {
		g.Go(func() error {
			if len(doc.Embedding) == 0 {
				embedding, err := a.embedder.EmbedText(gctx, doc.Content)
				if err != nil {
					return fmt.Errorf("embed %s: %w", doc.ID, err)
				}
				doc.Embedding = embedding
			}
			if err := a.index.Upsert(gctx, indexRecord(doc)); err != nil {
				return fmt.Errorf("index %s: %w", doc.ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (a *App) handleReindexJob(ctx context.Context, job queue.JobStatus) error {
	log := util.LoggerFromContext(ctx)
	switch job.Action {
	case queue.ActionIndex:
		doc, ok, err := a.store.GetDocument(job.DocumentID)
		if err != nil {
			return fmt.Errorf("load document: %w", err)
		}
		if !ok {
			// Deleted since the job was queued; nothing left to index.
			log.Info("reindex job skipped, document gone", "document_id", job.DocumentID)
			return nil
		}
		if len(doc.Embedding) == 0 {
			doc.Embedding, err = a.embedder.EmbedText(ctx, doc.Content)
			if err != nil {
				return fmt.Errorf("embed content: %w", err)
			}
		}
		if err := a.index.Upsert(ctx, indexRecord(doc)); err != nil {
			return fmt.Errorf("index document: %w", err)
		}
		log.Info("reindex job done", "document_id", job.DocumentID)
		return nil
	case queue.ActionDeindex:
		if err := a.index.Delete(ctx, job.DocumentID); err != nil {
			return fmt.Errorf("remove index entry: %w", err)
		}
		log.Info("deindex job done", "document_id", job.DocumentID)
		return nil
	default:
		// Unknown actions are dropped, not retried.
		log.Warn("unknown reindex action", "action", job.Action, "job_id", job.ID)
		return nil
	}
}
