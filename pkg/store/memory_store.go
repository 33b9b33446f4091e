package store

import (
	"sort"
	"sync"
	"time"

	"docuchat/pkg/domain"
)

// MemoryStore keeps all records in-process. Used by tests and local runs
// without Postgres; it mirrors the Store contract of GormStore including
// the clear-on-document-delete behaviour for session references.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string]domain.Document
	sessions map[string]domain.ChatSession
	messages map[string][]domain.ChatMessage // keyed by session id, append order
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]domain.Document),
		sessions: make(map[string]domain.ChatSession),
		messages: make(map[string][]domain.ChatMessage),
	}
}

func (m *MemoryStore) CreateDocument(doc domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc
	return nil
}

func (m *MemoryStore) GetDocument(id string) (domain.Document, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	return doc, ok, nil
}

func (m *MemoryStore) GetDocuments(ids []string) ([]domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := m.docs[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (m *MemoryStore) ListDocuments() ([]domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := make([]domain.Document, 0, len(m.docs))
	for _, doc := range m.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})
	return docs, nil
}

func (m *MemoryStore) DeleteDocument(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	for sid, session := range m.sessions {
		if session.DocumentID == id {
			session.DocumentID = ""
			session.Document = nil
			m.sessions[sid] = session
		}
	}
	return nil
}

func (m *MemoryStore) CreateSession(session domain.ChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
	return nil
}

func (m *MemoryStore) GetSession(id string) (domain.ChatSession, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return domain.ChatSession{}, false, nil
	}
	return m.attachDocument(session), true, nil
}

func (m *MemoryStore) ListSessions() ([]domain.ChatSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sessions := make([]domain.ChatSession, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, m.attachDocument(session))
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

func (m *MemoryStore) TouchSession(id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	session.UpdatedAt = at.UTC()
	m.sessions[id] = session
	return nil
}

func (m *MemoryStore) AppendMessage(msg domain.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msg.SessionID] = append(m.messages[msg.SessionID], msg)
	return nil
}

func (m *MemoryStore) ListSessionMessages(sessionID string, limit int) ([]domain.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.messages[sessionID]
	msgs := make([]domain.ChatMessage, len(all))
	copy(msgs, all)
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

// attachDocument resolves the session's document summary under the read lock.
func (m *MemoryStore) attachDocument(session domain.ChatSession) domain.ChatSession {
	session.Document = nil
	if session.DocumentID != "" {
		if doc, ok := m.docs[session.DocumentID]; ok {
			summary := doc.Summary()
			session.Document = &summary
		}
	}
	return session
}
