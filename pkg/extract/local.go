package extract

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

// LocalExtractor extracts text in-process, without an external analysis
// service. PDF and HTML files get a real parse; anything else is treated as
// plain text. Page counts other than PDF's are reported as 1.
type LocalExtractor struct{}

// NewLocalExtractor builds the in-process extractor.
func NewLocalExtractor() *LocalExtractor {
	return &LocalExtractor{}
}

// Extract parses the raw bytes by file extension.
func (e *LocalExtractor) Extract(_ context.Context, file File) (Result, error) {
	if len(file.Data) == 0 {
		return Result{}, fmt.Errorf("file data required")
	}
	ext := strings.ToLower(filepath.Ext(file.FileName))
	switch ext {
	case ".pdf":
		return extractPDF(file.Data)
	case ".html", ".htm", ".xhtml":
		return extractHTML(file.Data)
	default:
		text := normalizeText(string(file.Data))
		if text == "" {
			return Result{}, fmt.Errorf("no text extracted")
		}
		return Result{Text: text, Pages: 1}, nil
	}
}

func extractPDF(data []byte) (Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("open pdf: %w", err)
	}
	totalPages := reader.NumPage()
	var sb strings.Builder
	for i := 1; i <= totalPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip problematic pages instead of failing entirely.
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	text := normalizeText(sb.String())
	if text == "" {
		return Result{}, fmt.Errorf("no text extracted from pdf")
	}
	return Result{Text: text, Pages: totalPages}, nil
}

func extractHTML(data []byte) (Result, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("parse html: %w", err)
	}
	text := normalizeText(htmlText(doc))
	if text == "" {
		return Result{}, fmt.Errorf("no text extracted from html")
	}
	return Result{Text: text, Pages: 1}, nil
}

func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\x00", " ")
	text = strings.ToValidUTF8(text, "")
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(text), " ")
}

func htmlText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			buf.WriteString(node.Data)
			buf.WriteString(" ")
		case html.ElementNode:
			if node.Data == "script" || node.Data == "style" {
				return
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if node.Type == html.ElementNode && (node.Data == "p" || node.Data == "br" || node.Data == "div" || node.Data == "li") {
			buf.WriteString(" ")
		}
	}
	walk(n)
	return buf.String()
}
