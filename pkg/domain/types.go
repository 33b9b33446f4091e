package domain

import "time"

// Role is the author of a chat message. Only two values exist.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Document is one ingested file with its extracted content and embedding.
type Document struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	Content     string    `json:"content,omitempty"`
	StorageKey  string    `json:"-"`
	StorageURL  string    `json:"storageUrl,omitempty"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	PageCount   int       `json:"pageCount"`
	WordCount   int       `json:"wordCount"`
	Embedding   []float32 `json:"-"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// DocumentSummary is the list/search representation of a document.
type DocumentSummary struct {
	ID             string    `json:"id"`
	FileName       string    `json:"fileName"`
	ContentType    string    `json:"contentType"`
	SizeBytes      int64     `json:"sizeBytes"`
	PageCount      int       `json:"pageCount"`
	WordCount      int       `json:"wordCount"`
	UploadedAt     time.Time `json:"uploadedAt"`
	ContentPreview string    `json:"contentPreview,omitempty"`
}

// ChatSession is one conversation thread, optionally scoped to a document.
type ChatSession struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	DocumentID string           `json:"documentId,omitempty"`
	Document   *DocumentSummary `json:"document,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// ChatMessage is one turn in a conversation. Messages are append-only.
type ChatMessage struct {
	ID        string      `json:"id"`
	SessionID string      `json:"sessionId"`
	Role      Role        `json:"role"`
	Content   string      `json:"content"`
	Sources   []SourceRef `json:"sources,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// SourceRef identifies a document an assistant reply was grounded on.
type SourceRef struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
}

// Summary converts a full document to its list representation.
func (d Document) Summary() DocumentSummary {
	return DocumentSummary{
		ID:          d.ID,
		FileName:    d.FileName,
		ContentType: d.ContentType,
		SizeBytes:   d.SizeBytes,
		PageCount:   d.PageCount,
		WordCount:   d.WordCount,
		UploadedAt:  d.UploadedAt,
	}
}
