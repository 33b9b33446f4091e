package prompts

import (
	"sort"
	"strings"
	"sync"
)

// Fallback is returned by Get for any unregistered template name. Lookups
// never fail; callers always get a usable prompt.
const Fallback = "You are a helpful assistant. Answer the question as accurately as you can based on the information available."

// Built-in template names.
const (
	TemplateDocumentChat       = "document_chat"
	TemplateDocumentComparison = "document_comparison"
	TemplateDocumentSummary    = "document_summary"
	TemplateSearchEnhancement  = "search_enhancement"
	TemplateContextValidation  = "context_validation"
)

var defaultTemplates = map[string]string{
	TemplateDocumentChat: "You are a document assistant. Answer the user's question using only the documents below. " +
		"If the documents do not contain the answer, say so instead of guessing. Cite the document name you used.\n\n" +
		"Documents:\n{DOCUMENTS}",
	TemplateDocumentComparison: "You are a document analyst. Compare the documents below: summarize what they have in common, " +
		"how they differ, and anything one covers that the others do not.\n\n" +
		"Documents:\n{DOCUMENTS}",
	TemplateDocumentSummary: "Summarize the document below in a few short paragraphs. Keep the key facts, " +
		"figures and conclusions; drop boilerplate.\n\n" +
		"Document:\n{DOCUMENTS}",
	TemplateSearchEnhancement: "Rewrite the following search query to maximize retrieval quality. " +
		"Expand abbreviations and add likely synonyms. Return only the rewritten query.\n\n" +
		"Query: {QUERY}",
	TemplateContextValidation: "Decide whether the documents below contain enough information to answer the question. " +
		"Answer with YES or NO followed by a one-sentence reason.\n\n" +
		"Question: {QUERY}\n\nDocuments:\n{DOCUMENTS}",
}

// Store holds named prompt templates with `{KEY}` placeholders. The mapping
// is process-wide and mutable at runtime, so all access goes through a lock.
type Store struct {
	mu        sync.RWMutex
	templates map[string]string
}

// NewStore initializes the store with the built-in templates.
func NewStore() *Store {
	templates := make(map[string]string, len(defaultTemplates))
	for name, body := range defaultTemplates {
		templates[name] = body
	}
	return &Store{templates: templates}
}

// Get renders the named template with the given parameters. Unknown names
// render the fallback. Placeholders with no matching parameter stay in the
// output verbatim.
func (s *Store) Get(name string, params map[string]string) string {
	s.mu.RLock()
	body, ok := s.templates[name]
	s.mu.RUnlock()
	if !ok {
		body = Fallback
	}
	return Render(body, params)
}

// Has reports whether a template is registered under the given name.
func (s *Store) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.templates[name]
	return ok
}

// List returns all registered template names, sorted for stable output.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Update inserts or replaces a template body. No placeholder validation is
// performed; a name collision overwrites silently.
func (s *Store) Update(name, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[name] = body
}

// EstimateTokens renders as Get does and returns a rough token count of
// ceil(len/4). This is a character heuristic, not a tokenizer.
func (s *Store) EstimateTokens(name string, params map[string]string) (string, int) {
	rendered := s.Get(name, params)
	return rendered, EstimateTokenCount(rendered)
}

// EstimateTokenCount approximates tokens as ceil(characters/4).
func EstimateTokenCount(text string) int {
	return (len(text) + 3) / 4
}

// Render performs literal substitution of every `{KEY}` token for every key
// present in params. It is a pure function; tokens without a matching key
// are left untouched.
func Render(template string, params map[string]string) string {
	if len(params) == 0 {
		return template
	}
	rendered := template
	for key, value := range params {
		rendered = strings.ReplaceAll(rendered, "{"+key+"}", value)
	}
	return rendered
}
