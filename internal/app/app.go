package app

import (
	"fmt"
	"time"

	"docuchat/internal/prompts"
	"docuchat/pkg/ai"
	"docuchat/pkg/extract"
	"docuchat/pkg/queue"
	"docuchat/pkg/search"
	"docuchat/pkg/storage"
	"docuchat/pkg/store"
)

const (
	defaultTopK          = 3
	defaultHistoryLimit  = 10
	defaultPresignExpiry = 24 * time.Hour
)

// Config wires the external collaborators into the application core.
type Config struct {
	Store     store.Store
	Objects   storage.ObjectStore
	Index     search.Index
	Extractor extract.TextExtractor
	Embedder  ai.Embedder
	Completer ai.ChatCompleter
	Prompts   *prompts.Store

	// Reindex carries compensation jobs when a search-index write fails
	// after the database write succeeded. Optional; when nil the failure
	// is surfaced to the caller instead.
	Reindex *queue.RedisJobQueue

	// TopK bounds unscoped retrieval for chat turns.
	TopK int
	// HistoryLimit bounds how many prior messages join a completion request.
	HistoryLimit int
	// PresignExpiry controls how long stored-object URLs stay valid.
	PresignExpiry time.Duration
}

// App is the orchestration core: ingestion, retrieval and conversation flows
// over the external providers. It holds no per-request state.
type App struct {
	store         store.Store
	objects       storage.ObjectStore
	index         search.Index
	extractor     extract.TextExtractor
	embedder      ai.Embedder
	completer     ai.ChatCompleter
	prompts       *prompts.Store
	reindex       *queue.RedisJobQueue
	topK          int
	historyLimit  int
	presignExpiry time.Duration
}

// New validates dependencies and constructs the application core.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	if cfg.Objects == nil {
		return nil, fmt.Errorf("object store required")
	}
	if cfg.Index == nil {
		return nil, fmt.Errorf("search index required")
	}
	if cfg.Extractor == nil {
		return nil, fmt.Errorf("text extractor required")
	}
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if cfg.Completer == nil {
		return nil, fmt.Errorf("chat completer required")
	}
	promptStore := cfg.Prompts
	if promptStore == nil {
		promptStore = prompts.NewStore()
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	presignExpiry := cfg.PresignExpiry
	if presignExpiry <= 0 {
		presignExpiry = defaultPresignExpiry
	}
	return &App{
		store:         cfg.Store,
		objects:       cfg.Objects,
		index:         cfg.Index,
		extractor:     cfg.Extractor,
		embedder:      cfg.Embedder,
		completer:     cfg.Completer,
		prompts:       promptStore,
		reindex:       cfg.Reindex,
		topK:          topK,
		historyLimit:  historyLimit,
		presignExpiry: presignExpiry,
	}, nil
}

// Prompts exposes the template store for the HTTP surface.
func (a *App) Prompts() *prompts.Store {
	return a.prompts
}
