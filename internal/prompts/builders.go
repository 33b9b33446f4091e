package prompts

import (
	"strings"

	"docuchat/pkg/domain"
)

// Per-document character caps for serialized context blocks. These are
// character heuristics, not token-accurate truncation.
const (
	chatContextLimit       = 3000
	comparisonContextLimit = 2000
	truncationMarker       = "... [truncated]"
)

// DocumentChatPrompt renders the system prompt for a chat turn grounded on
// the given documents.
func (s *Store) DocumentChatPrompt(docs []domain.Document) string {
	return s.Get(TemplateDocumentChat, map[string]string{
		"DOCUMENTS": FormatDocuments(docs, chatContextLimit),
	})
}

// ComparisonPrompt renders the prompt for comparing documents.
func (s *Store) ComparisonPrompt(docs []domain.Document) string {
	return s.Get(TemplateDocumentComparison, map[string]string{
		"DOCUMENTS": FormatDocuments(docs, comparisonContextLimit),
	})
}

// SummaryPrompt renders the summarization prompt for one document.
func (s *Store) SummaryPrompt(doc domain.Document) string {
	return s.Get(TemplateDocumentSummary, map[string]string{
		"DOCUMENTS": FormatDocuments([]domain.Document{doc}, chatContextLimit),
	})
}

// SearchEnhancementPrompt renders the query-rewrite prompt.
func (s *Store) SearchEnhancementPrompt(query string) string {
	return s.Get(TemplateSearchEnhancement, map[string]string{
		"QUERY": query,
	})
}

// ContextValidationPrompt renders the prompt that checks whether retrieved
// documents can answer the question.
func (s *Store) ContextValidationPrompt(query string, docs []domain.Document) string {
	return s.Get(TemplateContextValidation, map[string]string{
		"QUERY":     query,
		"DOCUMENTS": FormatDocuments(docs, chatContextLimit),
	})
}

// FormatDocuments serializes documents into a readable block, capping each
// document's content at maxChars with a truncation marker when exceeded.
func FormatDocuments(docs []domain.Document, maxChars int) string {
	if len(docs) == 0 {
		return "(no documents)"
	}
	var sb strings.Builder
	for i, doc := range docs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("--- ")
		sb.WriteString(doc.FileName)
		sb.WriteString(" ---\n")
		sb.WriteString(truncate(doc.Content, maxChars))
	}
	return sb.String()
}

// truncate caps s at maxChars characters, counting runes so multibyte text
// is never cut mid-sequence.
func truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars]) + truncationMarker
}
