package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"docuchat/pkg/ai"
	"docuchat/pkg/domain"
)

const defaultSessionTitle = "New Chat"

// SessionWithMessages pairs a session with its full ordered history.
type SessionWithMessages struct {
	domain.ChatSession
	Messages []domain.ChatMessage `json:"messages"`
}

// CreateSession starts a conversation, optionally scoped to one document.
// A scoped session requires the document to exist at creation time.
func (a *App) CreateSession(ctx context.Context, title, documentID string) (domain.ChatSession, error) {
	documentID = strings.TrimSpace(documentID)
	var docSummary *domain.DocumentSummary
	if documentID != "" {
		doc, ok, err := a.store.GetDocument(documentID)
		if err != nil {
			return domain.ChatSession{}, fmt.Errorf("load document: %w", err)
		}
		if !ok {
			return domain.ChatSession{}, ErrDocumentNotFound
		}
		s := doc.Summary()
		docSummary = &s
	}
	if title = strings.TrimSpace(title); title == "" {
		title = defaultSessionTitle
	}
	now := time.Now().UTC()
	session := domain.ChatSession{
		ID:         uuid.NewString(),
		Title:      title,
		DocumentID: documentID,
		Document:   docSummary,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := a.store.CreateSession(session); err != nil {
		return domain.ChatSession{}, fmt.Errorf("persist session: %w", err)
	}
	return session, nil
}

// ListSessions returns all sessions, most recently active first.
func (a *App) ListSessions(ctx context.Context) ([]domain.ChatSession, error) {
	return a.store.ListSessions()
}

// GetSession returns one session together with its complete message history.
func (a *App) GetSession(ctx context.Context, id string) (SessionWithMessages, error) {
	session, ok, err := a.store.GetSession(id)
	if err != nil {
		return SessionWithMessages{}, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return SessionWithMessages{}, ErrSessionNotFound
	}
	messages, err := a.store.ListSessionMessages(id, 0)
	if err != nil {
		return SessionWithMessages{}, fmt.Errorf("load messages: %w", err)
	}
	return SessionWithMessages{ChatSession: session, Messages: messages}, nil
}

// SendMessage runs one conversation turn: persist the user message, retrieve
// context, complete, persist and return the assistant reply. The session must
// exist before anything is written. History is captured before the new user
// message so the completion sees at most historyLimit prior turns plus the
// system prompt and the current question.
func (a *App) SendMessage(ctx context.Context, sessionID, content string) (domain.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.ChatMessage{}, fmt.Errorf("message content required")
	}
	session, ok, err := a.store.GetSession(sessionID)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return domain.ChatMessage{}, ErrSessionNotFound
	}

	history, err := a.store.ListSessionMessages(sessionID, a.historyLimit)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("load history: %w", err)
	}

	now := time.Now().UTC()
	userMsg := domain.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      domain.RoleUser,
		Content:   content,
		CreatedAt: now,
	}
	if err := a.store.AppendMessage(userMsg); err != nil {
		return domain.ChatMessage{}, fmt.Errorf("persist user message: %w", err)
	}

	docs, err := a.Retrieve(ctx, content, session.DocumentID, a.topK)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("retrieve context: %w", err)
	}

	messages := make([]ai.Message, 0, len(history)+2)
	messages = append(messages, ai.Message{Role: "system", Content: a.prompts.DocumentChatPrompt(docs)})
	for _, m := range history {
		messages = append(messages, ai.Message{Role: string(m.Role), Content: m.Content})
	}
	messages = append(messages, ai.Message{Role: string(domain.RoleUser), Content: content})

	reply, err := a.completer.Complete(ctx, messages)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("complete chat: %w", err)
	}

	sources := make([]domain.SourceRef, 0, len(docs))
	for _, doc := range docs {
		sources = append(sources, domain.SourceRef{ID: doc.ID, FileName: doc.FileName})
	}
	assistantMsg := domain.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      domain.RoleAssistant,
		Content:   reply,
		Sources:   sources,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.AppendMessage(assistantMsg); err != nil {
		return domain.ChatMessage{}, fmt.Errorf("persist assistant message: %w", err)
	}
	if err := a.store.TouchSession(sessionID, assistantMsg.CreatedAt); err != nil {
		return domain.ChatMessage{}, fmt.Errorf("touch session: %w", err)
	}
	return assistantMsg, nil
}
