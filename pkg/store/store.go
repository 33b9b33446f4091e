package store

import (
	"time"

	"docuchat/pkg/domain"
)

// Store abstracts persistence for documents, chat sessions and messages.
// Getters return (value, found, error); a missing record is not an error.
type Store interface {
	CreateDocument(doc domain.Document) error
	GetDocument(id string) (domain.Document, bool, error)
	// GetDocuments fetches the given ids, preserving the input order and
	// skipping ids that no longer resolve.
	GetDocuments(ids []string) ([]domain.Document, error)
	// ListDocuments returns all documents ordered by upload time descending.
	ListDocuments() ([]domain.Document, error)
	// DeleteDocument removes the document and clears (not cascades) the
	// document reference of any chat session scoped to it.
	DeleteDocument(id string) error

	CreateSession(session domain.ChatSession) error
	GetSession(id string) (domain.ChatSession, bool, error)
	// ListSessions returns all sessions ordered by last update descending.
	ListSessions() ([]domain.ChatSession, error)
	// TouchSession refreshes the session's updated-at timestamp.
	TouchSession(id string, at time.Time) error

	AppendMessage(msg domain.ChatMessage) error
	// ListSessionMessages returns the most recent limit messages of a session
	// in chronological order. limit <= 0 returns the full history.
	ListSessionMessages(sessionID string, limit int) ([]domain.ChatMessage, error)
}
