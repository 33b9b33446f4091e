package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"docuchat/internal/app"
	"docuchat/internal/config"
	"docuchat/internal/server"
	"docuchat/internal/util"
	"docuchat/pkg/ai"
	"docuchat/pkg/extract"
	"docuchat/pkg/queue"
	"docuchat/pkg/search"
	"docuchat/pkg/storage"
	"docuchat/pkg/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		util.Fatal("failed to load config", "err", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	trustedProxies, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		util.Fatal("failed to parse trusted proxies", "err", err)
	}

	db, err := store.NewGormStore(cfg.DatabaseURL, store.WithEmbeddingDim(cfg.EmbeddingDim))
	if err != nil {
		util.Fatal("failed to init database", "err", err)
	}

	objects, err := storage.NewMinioStore(cfg.StorageEndpoint, cfg.StorageAccessKey,
		cfg.StorageSecretKey, cfg.StorageBucket, cfg.StorageUseSSL)
	if err != nil {
		util.Fatal("failed to init object storage", "err", err)
	}

	index, err := search.NewQdrantIndex(search.QdrantConfig{
		Host:         cfg.QdrantHost,
		Port:         cfg.QdrantPort,
		Collection:   cfg.QdrantCollection,
		EmbeddingDim: cfg.EmbeddingDim,
	})
	if err != nil {
		util.Fatal("failed to init search index", "err", err)
	}

	aiClient := ai.NewOpenAICompatClient(ai.OpenAICompatConfig{
		BaseURL:         cfg.AIBaseURL,
		APIKey:          cfg.AIAPIKey,
		GenerationModel: cfg.GenerationModel,
		EmbeddingModel:  cfg.EmbeddingModel,
		EmbeddingDim:    cfg.EmbeddingDim,
	})

	var extractor extract.TextExtractor
	if cfg.ExtractorProvider == "http" {
		extractor, err = extract.NewHTTPExtractor(cfg.ExtractorEndpoint, cfg.ExtractorAPIKey)
		if err != nil {
			util.Fatal("failed to init extractor", "err", err)
		}
	} else {
		extractor = extract.NewLocalExtractor()
	}

	var reindexQueue *queue.RedisJobQueue
	if cfg.RedisAddr != "" {
		reindexQueue, err = queue.NewRedisJobQueue(queue.RedisQueueConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Stream:   cfg.ReindexStream,
			Group:    "reindex",
		})
		if err != nil {
			util.Fatal("failed to init reindex queue", "err", err)
		}
	}

	appCore, err := app.New(app.Config{
		Store:        db,
		Objects:      objects,
		Index:        index,
		Extractor:    extractor,
		Embedder:     aiClient,
		Completer:    aiClient,
		Reindex:      reindexQueue,
		TopK:         cfg.TopK,
		HistoryLimit: cfg.HistoryLimit,
	})
	if err != nil {
		util.Fatal("failed to init app", "err", err)
	}

	ctx := util.ContextWithLogger(context.Background(), logger)
	appCore.StartReindexWorker(ctx, cfg.ReindexConcurrency)

	httpServer := server.New(server.Config{
		App:            appCore,
		TrustedProxies: trustedProxies,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("docuchat server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
