package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"docuchat/pkg/domain"
)

const migrateLockID int64 = 48210482

const defaultEmbeddingDim = 1536

type GormStoreOptions struct {
	EmbeddingDim int
}

type GormStoreOption func(*GormStoreOptions)

// WithEmbeddingDim sets the embedding dimension used for the stored vector column.
func WithEmbeddingDim(dim int) GormStoreOption {
	return func(opts *GormStoreOptions) {
		opts.EmbeddingDim = dim
	}
}

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db           *gorm.DB
	embeddingDim int
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string, options ...GormStoreOption) (*GormStore, error) {
	opts := GormStoreOptions{}
	for _, option := range options {
		if option != nil {
			option(&opts)
		}
	}
	embeddingDim := opts.EmbeddingDim
	if embeddingDim <= 0 {
		embeddingDim = defaultEmbeddingDim
	}

	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
			return fmt.Errorf("create pgvector extension: %w", err)
		}
		if err := tx.AutoMigrate(&DocumentModel{}, &ChatSessionModel{}, &ChatMessageModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		if err := tx.Exec(fmt.Sprintf(`
			DO $$
			BEGIN
			IF EXISTS (
				SELECT 1 FROM information_schema.columns
				WHERE table_name = 'document_models' AND column_name = 'embedding'
			) THEN
				ALTER TABLE document_models ALTER COLUMN embedding TYPE vector(%d);
			END IF;
			END $$;
		`, embeddingDim)).Error; err != nil {
			return fmt.Errorf("alter document embedding type: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db, embeddingDim: embeddingDim}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// CreateDocument persists a new document record.
func (s *GormStore) CreateDocument(doc domain.Document) error {
	if err := s.validateEmbeddingDim(doc.Embedding); err != nil {
		return err
	}
	model := documentToModel(doc)
	return s.db.Create(&model).Error
}

// GetDocument retrieves a document by id.
func (s *GormStore) GetDocument(id string) (domain.Document, bool, error) {
	var model DocumentModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Document{}, false, nil
		}
		return domain.Document{}, false, err
	}
	return documentFromModel(model), true, nil
}

// GetDocuments fetches the given ids preserving the input order.
func (s *GormStore) GetDocuments(ids []string) ([]domain.Document, error) {
	if len(ids) == 0 {
		return []domain.Document{}, nil
	}
	var models []DocumentModel
	if err := s.db.Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]DocumentModel, len(models))
	for _, m := range models {
		byID[m.ID] = m
	}
	docs := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			docs = append(docs, documentFromModel(m))
		}
	}
	return docs, nil
}

// ListDocuments returns all documents ordered by upload time descending.
func (s *GormStore) ListDocuments() ([]domain.Document, error) {
	var models []DocumentModel
	if err := s.db.Order("uploaded_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	docs := make([]domain.Document, 0, len(models))
	for _, m := range models {
		docs = append(docs, documentFromModel(m))
	}
	return docs, nil
}

// DeleteDocument removes the document and clears session references to it.
// Sessions themselves survive; only their document scope is dropped.
func (s *GormStore) DeleteDocument(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&ChatSessionModel{}).
			Where("document_id = ?", id).
			Update("document_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&DocumentModel{}, "id = ?", id).Error
	})
}

// CreateSession creates a new chat session record.
func (s *GormStore) CreateSession(session domain.ChatSession) error {
	model := sessionToModel(session)
	return s.db.Create(&model).Error
}

// GetSession returns one session by id, with its document summary when scoped.
func (s *GormStore) GetSession(id string) (domain.ChatSession, bool, error) {
	var model ChatSessionModel
	if err := s.db.Preload("Document").First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.ChatSession{}, false, nil
		}
		return domain.ChatSession{}, false, err
	}
	return sessionFromModel(model), true, nil
}

// ListSessions returns sessions ordered by last update descending.
func (s *GormStore) ListSessions() ([]domain.ChatSession, error) {
	var models []ChatSessionModel
	if err := s.db.Preload("Document").Order("updated_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	sessions := make([]domain.ChatSession, 0, len(models))
	for _, m := range models {
		sessions = append(sessions, sessionFromModel(m))
	}
	return sessions, nil
}

// TouchSession refreshes the session's updated-at timestamp.
func (s *GormStore) TouchSession(id string, at time.Time) error {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return s.db.Model(&ChatSessionModel{}).
		Where("id = ?", id).
		Update("updated_at", at.UTC()).Error
}

// AppendMessage records a chat message.
func (s *GormStore) AppendMessage(msg domain.ChatMessage) error {
	model := messageToModel(msg)
	return s.db.Create(&model).Error
}

// ListSessionMessages returns the most recent limit messages in chronological order.
func (s *GormStore) ListSessionMessages(sessionID string, limit int) ([]domain.ChatMessage, error) {
	var models []ChatMessageModel
	if limit > 0 {
		if err := s.db.Where("session_id = ?", sessionID).
			Order("created_at DESC").
			Limit(limit).
			Find(&models).Error; err != nil {
			return nil, err
		}
		msgs := make([]domain.ChatMessage, 0, len(models))
		for i := len(models) - 1; i >= 0; i-- {
			msgs = append(msgs, messageFromModel(models[i]))
		}
		return msgs, nil
	}
	if err := s.db.Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	msgs := make([]domain.ChatMessage, 0, len(models))
	for _, m := range models {
		msgs = append(msgs, messageFromModel(m))
	}
	return msgs, nil
}

func (s *GormStore) validateEmbeddingDim(embedding []float32) error {
	if len(embedding) == 0 {
		return nil
	}
	if s.embeddingDim > 0 && len(embedding) != s.embeddingDim {
		return fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(embedding), s.embeddingDim)
	}
	return nil
}

func documentToModel(d domain.Document) DocumentModel {
	var embedding *pgvector.Vector
	if len(d.Embedding) > 0 {
		vec := pgvector.NewVector(d.Embedding)
		embedding = &vec
	}
	return DocumentModel{
		ID:          d.ID,
		FileName:    d.FileName,
		Content:     d.Content,
		StorageKey:  d.StorageKey,
		StorageURL:  d.StorageURL,
		ContentType: d.ContentType,
		SizeBytes:   d.SizeBytes,
		PageCount:   d.PageCount,
		WordCount:   d.WordCount,
		Embedding:   embedding,
		UploadedAt:  d.UploadedAt,
	}
}

func documentFromModel(m DocumentModel) domain.Document {
	var embedding []float32
	if m.Embedding != nil {
		embedding = m.Embedding.Slice()
	}
	return domain.Document{
		ID:          m.ID,
		FileName:    m.FileName,
		Content:     m.Content,
		StorageKey:  m.StorageKey,
		StorageURL:  m.StorageURL,
		ContentType: m.ContentType,
		SizeBytes:   m.SizeBytes,
		PageCount:   m.PageCount,
		WordCount:   m.WordCount,
		Embedding:   embedding,
		UploadedAt:  m.UploadedAt,
	}
}

func sessionToModel(c domain.ChatSession) ChatSessionModel {
	var documentID *string
	if strings.TrimSpace(c.DocumentID) != "" {
		value := strings.TrimSpace(c.DocumentID)
		documentID = &value
	}
	return ChatSessionModel{
		ID:         c.ID,
		Title:      c.Title,
		DocumentID: documentID,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func sessionFromModel(m ChatSessionModel) domain.ChatSession {
	documentID := ""
	if m.DocumentID != nil {
		documentID = strings.TrimSpace(*m.DocumentID)
	}
	session := domain.ChatSession{
		ID:         m.ID,
		Title:      m.Title,
		DocumentID: documentID,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if m.Document != nil {
		summary := documentFromModel(*m.Document).Summary()
		session.Document = &summary
	}
	return session
}

func messageToModel(msg domain.ChatMessage) ChatMessageModel {
	rawSources, _ := json.Marshal(msg.Sources)
	return ChatMessageModel{
		ID:        msg.ID,
		SessionID: msg.SessionID,
		Role:      string(msg.Role),
		Content:   msg.Content,
		Sources:   rawSources,
		CreatedAt: msg.CreatedAt,
	}
}

func messageFromModel(m ChatMessageModel) domain.ChatMessage {
	var sources []domain.SourceRef
	if len(m.Sources) > 0 {
		_ = json.Unmarshal(m.Sources, &sources)
	}
	return domain.ChatMessage{
		ID:        m.ID,
		SessionID: m.SessionID,
		Role:      domain.Role(m.Role),
		Content:   m.Content,
		Sources:   sources,
		CreatedAt: m.CreatedAt,
	}
}
