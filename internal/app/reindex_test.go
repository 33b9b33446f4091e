package app

import (
	"context"
	"strings"
	"testing"

	"docuchat/pkg/queue"
	"docuchat/pkg/search"
)

func TestHandleReindexJobIndexesPersistedDocument(t *testing.T) {
	env := newTestEnv(t)
	env.index.upsertErr = errFake
	_, err := env.app.ProcessDocument(context.Background(), "a.txt", "text/plain", strings.NewReader("alpha"))
	if err == nil {
		t.Fatalf("expected surfaced index failure without a queue")
	}
	docs, err := env.store.ListDocuments()
	if err != nil || len(docs) != 1 {
		t.Fatalf("expected one persisted document, got %d (err %v)", len(docs), err)
	}

	// Index recovers; the compensation handler replays the write.
	env.index.upsertErr = nil
	job := queue.JobStatus{ID: "job-1", DocumentID: docs[0].ID, Action: queue.ActionIndex}
	if err := env.app.handleReindexJob(context.Background(), job); err != nil {
		t.Fatalf("handle job: %v", err)
	}
	if _, ok := env.index.records[docs[0].ID]; !ok {
		t.Fatalf("document not indexed by compensation job")
	}
}

func TestHandleReindexJobSkipsDeletedDocument(t *testing.T) {
	env := newTestEnv(t)
	job := queue.JobStatus{ID: "job-1", DocumentID: "gone", Action: queue.ActionIndex}
	if err := env.app.handleReindexJob(context.Background(), job); err != nil {
		t.Fatalf("expected deleted document to be a no-op, got %v", err)
	}
}

func TestHandleReindexJobDeindexes(t *testing.T) {
	env := newTestEnv(t)
	doc := env.uploadText(t, "a.txt", "alpha")

	job := queue.JobStatus{ID: "job-1", DocumentID: doc.ID, Action: queue.ActionDeindex}
	if err := env.app.handleReindexJob(context.Background(), job); err != nil {
		t.Fatalf("handle job: %v", err)
	}
	if _, ok := env.index.records[doc.ID]; ok {
		t.Fatalf("index entry not removed")
	}
}

func TestReindexAllRebuildsIndex(t *testing.T) {
	env := newTestEnv(t)
	a := env.uploadText(t, "a.txt", "alpha")
	b := env.uploadText(t, "b.txt", "beta")

	// Wipe the index to simulate drift, then rebuild.
	env.index.records = make(map[string]search.Record)
	indexed, err := env.app.ReindexAll(context.Background(), 2)
	if err != nil {
		t.Fatalf("reindex all: %v", err)
	}
	if indexed != 2 {
		t.Fatalf("expected 2 documents indexed, got %d", indexed)
	}
	for _, id := range []string{a.ID, b.ID} {
		if _, ok := env.index.records[id]; !ok {
			t.Fatalf("document %s missing after rebuild", id)
		}
	}
}

func TestReindexAllSurfacesIndexFailure(t *testing.T) {
	env := newTestEnv(t)
	env.uploadText(t, "a.txt", "alpha")
	env.index.upsertErr = errFake
	if _, err := env.app.ReindexAll(context.Background(), 2); err == nil {
		t.Fatalf("expected failure to surface")
	}
}

func TestHandleReindexJobReembedsWhenEmbeddingMissing(t *testing.T) {
	env := newTestEnv(t)
	doc := env.uploadText(t, "a.txt", "alpha")

	// Simulate a record persisted before embeddings were enabled.
	doc.Embedding = nil
	if err := env.store.CreateDocument(doc); err != nil {
		t.Fatalf("update document: %v", err)
	}
	embedsBefore := env.embedder.calls

	job := queue.JobStatus{ID: "job-1", DocumentID: doc.ID, Action: queue.ActionIndex}
	if err := env.app.handleReindexJob(context.Background(), job); err != nil {
		t.Fatalf("handle job: %v", err)
	}
	if env.embedder.calls != embedsBefore+1 {
		t.Fatalf("expected one re-embedding call")
	}
	rec, ok := env.index.records[doc.ID]
	if !ok || len(rec.Embedding) == 0 {
		t.Fatalf("reindexed record missing embedding")
	}
}
