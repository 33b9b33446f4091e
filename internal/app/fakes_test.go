package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"docuchat/pkg/ai"
	"docuchat/pkg/extract"
	"docuchat/pkg/search"
)

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string][]byte)}
}

func (f *fakeObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeObjects) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "http://objects.test/" + key, nil
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

type fakeExtractor struct {
	pages int
}

func (f *fakeExtractor) Extract(_ context.Context, file extract.File) (extract.Result, error) {
	pages := f.pages
	if pages <= 0 {
		pages = 1
	}
	return extract.Result{Text: string(file.Data), Pages: pages}, nil
}

type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{float32(len(text)), 1, 2}, nil
}

type fakeCompleter struct {
	reply    string
	err      error
	received [][]ai.Message
}

func (f *fakeCompleter) Complete(_ context.Context, messages []ai.Message) (string, error) {
	copied := make([]ai.Message, len(messages))
	copy(copied, messages)
	f.received = append(f.received, copied)
	if f.err != nil {
		return "", f.err
	}
	if f.reply == "" {
		return "fake reply", nil
	}
	return f.reply, nil
}

type fakeIndex struct {
	mu        sync.Mutex
	records   map[string]search.Record
	deleted   []string
	queries   []string
	results   []string
	upsertErr error
	deleteErr error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{records: make(map[string]search.Record)}
}

func (f *fakeIndex) Upsert(_ context.Context, rec search.Record) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.ID] = rec
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndex) Query(_ context.Context, text string, _ []float32, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, text)
	if limit > 0 && len(f.results) > limit {
		return f.results[:limit], nil
	}
	return f.results, nil
}

func (f *fakeIndex) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

var errFake = fmt.Errorf("fake failure")
