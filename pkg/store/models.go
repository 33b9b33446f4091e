package store

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// GORM models used for persistence.
type DocumentModel struct {
	ID          string `gorm:"primaryKey"`
	FileName    string `gorm:"not null"`
	Content     string `gorm:"type:text"`
	StorageKey  string
	StorageURL  string
	ContentType string
	SizeBytes   int64 `gorm:"not null"`
	PageCount   int
	WordCount   int
	Embedding   *pgvector.Vector `gorm:"type:vector(1536)"`
	UploadedAt  time.Time        `gorm:"not null;index"`
}

type ChatSessionModel struct {
	ID         string  `gorm:"primaryKey"`
	Title      string  `gorm:"not null"`
	DocumentID *string `gorm:"index"`
	Document   *DocumentModel `gorm:"foreignKey:DocumentID;constraint:OnDelete:SET NULL"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null;index"`
}

type ChatMessageModel struct {
	ID        string `gorm:"primaryKey"`
	SessionID string `gorm:"not null;index"`
	Session   *ChatSessionModel `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	Role      string            `gorm:"not null"`
	Content   string            `gorm:"type:text;not null"`
	Sources   datatypes.JSON    `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"not null;index"`
}
