package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docuchat/internal/prompts"
	"docuchat/pkg/domain"
)

func TestSummarizeSendsDocumentContent(t *testing.T) {
	completer := &fakeCompleter{reply: "a summary"}
	doc := domain.Document{FileName: "notes.txt", Content: "meeting notes body"}

	got, err := Summarize(context.Background(), completer, prompts.NewStore(), doc)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if got != "a summary" {
		t.Fatalf("unexpected summary: %q", got)
	}
	if len(completer.received) != 1 || len(completer.received[0]) != 1 {
		t.Fatalf("expected a single one-message completion call")
	}
	if !strings.Contains(completer.received[0][0].Content, "meeting notes body") {
		t.Fatalf("prompt missing document content")
	}
}

func TestCompareRequiresTwoDocuments(t *testing.T) {
	completer := &fakeCompleter{}
	_, err := Compare(context.Background(), completer, prompts.NewStore(), []domain.Document{{FileName: "only.txt"}})
	if err == nil {
		t.Fatalf("expected error for single document")
	}
	if len(completer.received) != 0 {
		t.Fatalf("completer must not be called on validation failure")
	}
}

func TestEnhanceQueryFallsBackToOriginal(t *testing.T) {
	completer := &fakeCompleter{reply: "   "}
	got, err := EnhanceQuery(context.Background(), completer, prompts.NewStore(), "raw query")
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}
	if got != "raw query" {
		t.Fatalf("expected fallback to original query, got %q", got)
	}
}

func TestValidateContextParsesVerdict(t *testing.T) {
	store := prompts.NewStore()
	docs := []domain.Document{{FileName: "a.txt", Content: "facts"}}

	ok, _, err := ValidateContext(context.Background(), &fakeCompleter{reply: "YES, the documents cover it."}, store, "q", docs)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !ok {
		t.Fatalf("expected YES verdict to be sufficient")
	}

	ok, _, err = ValidateContext(context.Background(), &fakeCompleter{reply: "NO, unrelated."}, store, "q", docs)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if ok {
		t.Fatalf("expected NO verdict to be insufficient")
	}
}

func TestCompareDocumentsRejectsDanglingID(t *testing.T) {
	env := newTestEnv(t)
	doc := env.uploadText(t, "a.txt", "alpha")

	_, err := env.app.CompareDocuments(context.Background(), []string{doc.ID, "gone"})
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestSummarizeDocumentUnknownID(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.app.SummarizeDocument(context.Background(), "gone")
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}
