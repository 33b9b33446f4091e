package app

import (
	"context"
	"fmt"
	"strings"

	"docuchat/internal/prompts"
	"docuchat/pkg/ai"
	"docuchat/pkg/domain"
)

// The advanced operations are stateless helpers over a completer and the
// prompt store. They hold no conversation state, so they take their
// collaborators explicitly and are usable outside the App as well.

// Summarize generates a summary of one document.
func Summarize(ctx context.Context, completer ai.ChatCompleter, store *prompts.Store, doc domain.Document) (string, error) {
	return completeOne(ctx, completer, store.SummaryPrompt(doc))
}

// Compare generates a comparison across two or more documents.
func Compare(ctx context.Context, completer ai.ChatCompleter, store *prompts.Store, docs []domain.Document) (string, error) {
	if len(docs) < 2 {
		return "", fmt.Errorf("comparison needs at least two documents")
	}
	return completeOne(ctx, completer, store.ComparisonPrompt(docs))
}

// EnhanceQuery rewrites a search query for better retrieval. A useless model
// reply falls back to the original query rather than an error.
func EnhanceQuery(ctx context.Context, completer ai.ChatCompleter, store *prompts.Store, query string) (string, error) {
	reply, err := completeOne(ctx, completer, store.SearchEnhancementPrompt(query))
	if err != nil {
		return "", err
	}
	if reply = strings.TrimSpace(reply); reply == "" {
		return query, nil
	}
	return reply, nil
}

// ValidateContext asks the model whether the documents can answer the query.
// Any reply starting with YES counts as sufficient.
func ValidateContext(ctx context.Context, completer ai.ChatCompleter, store *prompts.Store, query string, docs []domain.Document) (bool, string, error) {
	reply, err := completeOne(ctx, completer, store.ContextValidationPrompt(query, docs))
	if err != nil {
		return false, "", err
	}
	reply = strings.TrimSpace(reply)
	ok := strings.HasPrefix(strings.ToUpper(reply), "YES")
	return ok, reply, nil
}

func completeOne(ctx context.Context, completer ai.ChatCompleter, prompt string) (string, error) {
	reply, err := completer.Complete(ctx, []ai.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	return reply, nil
}

// SummarizeDocument loads a document by id and summarizes it.
func (a *App) SummarizeDocument(ctx context.Context, id string) (string, error) {
	doc, ok, err := a.store.GetDocument(id)
	if err != nil {
		return "", fmt.Errorf("load document: %w", err)
	}
	if !ok {
		return "", ErrDocumentNotFound
	}
	return Summarize(ctx, a.completer, a.prompts, doc)
}

// CompareDocuments loads the given documents and compares them. Every id must
// resolve; a dangling id fails the whole comparison.
func (a *App) CompareDocuments(ctx context.Context, ids []string) (string, error) {
	if len(ids) < 2 {
		return "", fmt.Errorf("comparison needs at least two documents")
	}
	docs, err := a.store.GetDocuments(ids)
	if err != nil {
		return "", fmt.Errorf("load documents: %w", err)
	}
	if len(docs) != len(ids) {
		return "", ErrDocumentNotFound
	}
	return Compare(ctx, a.completer, a.prompts, docs)
}
