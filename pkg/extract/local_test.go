package extract

import (
	"context"
	"strings"
	"testing"
)

func TestLocalExtractorPlainText(t *testing.T) {
	e := NewLocalExtractor()
	res, err := e.Extract(context.Background(), File{
		FileName: "notes.txt",
		Data:     []byte("  hello\n\n  world  "),
	})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Text != "hello world" {
		t.Fatalf("unexpected text: %q", res.Text)
	}
	if res.Pages != 1 {
		t.Fatalf("expected one page, got %d", res.Pages)
	}
}

func TestLocalExtractorHTMLStripsMarkup(t *testing.T) {
	e := NewLocalExtractor()
	res, err := e.Extract(context.Background(), File{
		FileName: "page.html",
		Data: []byte(`<html><head><style>body{color:red}</style>
<script>alert("x")</script></head>
<body><p>first paragraph</p><div>second block</div></body></html>`),
	})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(res.Text, "first paragraph") || !strings.Contains(res.Text, "second block") {
		t.Fatalf("missing body text: %q", res.Text)
	}
	if strings.Contains(res.Text, "alert") || strings.Contains(res.Text, "color:red") {
		t.Fatalf("script/style leaked into text: %q", res.Text)
	}
}

func TestLocalExtractorRejectsEmptyInput(t *testing.T) {
	e := NewLocalExtractor()
	if _, err := e.Extract(context.Background(), File{FileName: "empty.txt"}); err == nil {
		t.Fatalf("expected error for empty data")
	}
	if _, err := e.Extract(context.Background(), File{FileName: "blank.txt", Data: []byte("   ")}); err == nil {
		t.Fatalf("expected error for whitespace-only content")
	}
}

func TestNormalizeTextCollapsesWhitespaceAndNUL(t *testing.T) {
	got := normalizeText("a\x00b\t c\n\nd")
	if got != "a b c d" {
		t.Fatalf("unexpected normalized text: %q", got)
	}
}
