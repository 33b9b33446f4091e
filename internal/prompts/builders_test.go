package prompts

import (
	"strings"
	"testing"
	"unicode/utf8"

	"docuchat/pkg/domain"
)

func TestFormatDocumentsTruncatesLongContent(t *testing.T) {
	content := strings.Repeat("x", chatContextLimit+500)
	doc := domain.Document{FileName: "big.txt", Content: content}

	got := FormatDocuments([]domain.Document{doc}, chatContextLimit)

	want := "--- big.txt ---\n" + content[:chatContextLimit] + truncationMarker
	if got != want {
		t.Fatalf("truncated block mismatch:\n got len %d\nwant len %d", len(got), len(want))
	}
}

func TestFormatDocumentsKeepsShortContent(t *testing.T) {
	doc := domain.Document{FileName: "small.txt", Content: "short content"}
	got := FormatDocuments([]domain.Document{doc}, chatContextLimit)
	if got != "--- small.txt ---\nshort content" {
		t.Fatalf("unexpected block: %q", got)
	}
}

func TestFormatDocumentsCountsCharactersNotBytes(t *testing.T) {
	// Two bytes per character, but well under the cap: must pass through whole.
	content := strings.Repeat("é", 2000)
	doc := domain.Document{FileName: "accents.txt", Content: content}

	got := FormatDocuments([]domain.Document{doc}, chatContextLimit)

	if got != "--- accents.txt ---\n"+content {
		t.Fatalf("multibyte content below the cap was modified (len %d)", len(got))
	}
}

func TestFormatDocumentsTruncatesOnRuneBoundary(t *testing.T) {
	content := strings.Repeat("é", chatContextLimit+10)
	doc := domain.Document{FileName: "accents.txt", Content: content}

	got := FormatDocuments([]domain.Document{doc}, chatContextLimit)

	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid utf-8")
	}
	body := strings.TrimPrefix(got, "--- accents.txt ---\n")
	if !strings.HasSuffix(body, truncationMarker) {
		t.Fatalf("missing truncation marker: %q", body[len(body)-40:])
	}
	kept := strings.TrimSuffix(body, truncationMarker)
	if n := utf8.RuneCountInString(kept); n != chatContextLimit {
		t.Fatalf("kept %d characters, want %d", n, chatContextLimit)
	}
}

func TestFormatDocumentsEmpty(t *testing.T) {
	if got := FormatDocuments(nil, chatContextLimit); got != "(no documents)" {
		t.Fatalf("unexpected empty block: %q", got)
	}
}

func TestFormatDocumentsSeparatesMultiple(t *testing.T) {
	docs := []domain.Document{
		{FileName: "a.txt", Content: "alpha"},
		{FileName: "b.txt", Content: "beta"},
	}
	got := FormatDocuments(docs, chatContextLimit)
	if !strings.Contains(got, "--- a.txt ---\nalpha") || !strings.Contains(got, "--- b.txt ---\nbeta") {
		t.Fatalf("missing document blocks: %q", got)
	}
	if !strings.Contains(got, "alpha\n\n---") {
		t.Fatalf("missing separator: %q", got)
	}
}

func TestDocumentChatPromptEmbedsDocuments(t *testing.T) {
	s := NewStore()
	doc := domain.Document{FileName: "notes.txt", Content: "quarterly numbers"}
	got := s.DocumentChatPrompt([]domain.Document{doc})
	if !strings.Contains(got, "quarterly numbers") {
		t.Fatalf("prompt missing document content: %q", got)
	}
	if strings.Contains(got, "{DOCUMENTS}") {
		t.Fatalf("placeholder left unrendered: %q", got)
	}
}

func TestComparisonPromptUsesTighterCap(t *testing.T) {
	s := NewStore()
	content := strings.Repeat("y", comparisonContextLimit+100)
	docs := []domain.Document{
		{FileName: "a.txt", Content: content},
		{FileName: "b.txt", Content: "beta"},
	}
	got := s.ComparisonPrompt(docs)
	if !strings.Contains(got, content[:comparisonContextLimit]+truncationMarker) {
		t.Fatalf("comparison content not capped at %d", comparisonContextLimit)
	}
	if strings.Contains(got, content[:comparisonContextLimit+1]) {
		t.Fatalf("comparison content exceeds cap")
	}
}

func TestSearchEnhancementPromptEmbedsQuery(t *testing.T) {
	s := NewStore()
	got := s.SearchEnhancementPrompt("q3 revenue")
	if !strings.Contains(got, "q3 revenue") {
		t.Fatalf("prompt missing query: %q", got)
	}
}
