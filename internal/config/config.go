package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML. Environment
// variables override file values; required fields fail startup when absent.
type FileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`

	DatabaseURL string `yaml:"databaseURL"`

	StorageEndpoint  string `yaml:"storageEndpoint"`
	StorageAccessKey string `yaml:"storageAccessKey"`
	StorageSecretKey string `yaml:"storageSecretKey"`
	StorageBucket    string `yaml:"storageBucket"`
	StorageUseSSL    bool   `yaml:"storageUseSSL"`

	QdrantHost       string `yaml:"qdrantHost"`
	QdrantPort       int    `yaml:"qdrantPort"`
	QdrantCollection string `yaml:"qdrantCollection"`

	AIBaseURL       string `yaml:"aiBaseURL"`
	AIAPIKey        string `yaml:"aiApiKey"`
	GenerationModel string `yaml:"generationModel"`
	EmbeddingModel  string `yaml:"embeddingModel"`
	EmbeddingDim    int    `yaml:"embeddingDim"`

	ExtractorProvider string `yaml:"extractorProvider"`
	ExtractorEndpoint string `yaml:"extractorEndpoint"`
	ExtractorAPIKey   string `yaml:"extractorApiKey"`

	RedisAddr          string `yaml:"redisAddr"`
	RedisPassword      string `yaml:"redisPassword"`
	ReindexStream      string `yaml:"reindexStream"`
	ReindexConcurrency int    `yaml:"reindexConcurrency"`

	TopK           int      `yaml:"topK"`
	HistoryLimit   int      `yaml:"historyLimit"`
	MaxUploadBytes int64    `yaml:"maxUploadBytes"`
	TrustedProxies []string `yaml:"trustedProxies"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *FileConfig) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("STORAGE_ENDPOINT"); v != "" {
		cfg.StorageEndpoint = v
	}
	if v := os.Getenv("STORAGE_ACCESS_KEY"); v != "" {
		cfg.StorageAccessKey = v
	}
	if v := os.Getenv("STORAGE_SECRET_KEY"); v != "" {
		cfg.StorageSecretKey = v
	}
	if v := os.Getenv("STORAGE_BUCKET"); v != "" {
		cfg.StorageBucket = v
	}
	if v := os.Getenv("STORAGE_USE_SSL"); v != "" {
		if useSSL, err := strconv.ParseBool(v); err == nil {
			cfg.StorageUseSSL = useSSL
		}
	}
	if v := os.Getenv("QDRANT_HOST"); v != "" {
		cfg.QdrantHost = v
	}
	if v := os.Getenv("QDRANT_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QdrantPort = n
		}
	}
	if v := os.Getenv("QDRANT_COLLECTION"); v != "" {
		cfg.QdrantCollection = v
	}
	if v := os.Getenv("AI_BASE_URL"); v != "" {
		cfg.AIBaseURL = v
	}
	if v := os.Getenv("AI_API_KEY"); v != "" {
		cfg.AIAPIKey = v
	}
	if v := os.Getenv("AI_GENERATION_MODEL"); v != "" {
		cfg.GenerationModel = v
	}
	if v := os.Getenv("AI_EMBEDDING_MODEL"); v != "" {
		cfg.EmbeddingModel = v
	}
	if v := os.Getenv("AI_EMBEDDING_DIM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.EmbeddingDim = n
		}
	}
	if v := os.Getenv("EXTRACTOR_PROVIDER"); v != "" {
		cfg.ExtractorProvider = v
	}
	if v := os.Getenv("EXTRACTOR_ENDPOINT"); v != "" {
		cfg.ExtractorEndpoint = v
	}
	if v := os.Getenv("EXTRACTOR_API_KEY"); v != "" {
		cfg.ExtractorAPIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("REINDEX_STREAM"); v != "" {
		cfg.ReindexStream = v
	}
	if v := os.Getenv("REINDEX_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ReindexConcurrency = n
		}
	}
	if v := os.Getenv("TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TopK = n
		}
	}
	if v := os.Getenv("HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HistoryLimit = n
		}
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		parts := strings.Split(v, ",")
		cfg.TrustedProxies = cfg.TrustedProxies[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cfg.TrustedProxies = append(cfg.TrustedProxies, p)
			}
		}
	}
}

func applyDefaults(cfg *FileConfig) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.EmbeddingDim <= 0 {
		cfg.EmbeddingDim = 1536
	}
	if cfg.ExtractorProvider == "" {
		cfg.ExtractorProvider = "local"
	}
	if cfg.ReindexStream == "" {
		cfg.ReindexStream = "reindex_jobs"
	}
	if cfg.ReindexConcurrency <= 0 {
		cfg.ReindexConcurrency = 1
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml or PORT)")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	if cfg.StorageEndpoint == "" {
		return errors.New("config: storageEndpoint is required (set in config.yaml or STORAGE_ENDPOINT)")
	}
	if cfg.StorageAccessKey == "" || cfg.StorageSecretKey == "" {
		return errors.New("config: storage credentials are required (STORAGE_ACCESS_KEY + STORAGE_SECRET_KEY)")
	}
	if cfg.StorageBucket == "" {
		return errors.New("config: storageBucket is required (set in config.yaml or STORAGE_BUCKET)")
	}
	if cfg.QdrantHost == "" {
		return errors.New("config: qdrantHost is required (set in config.yaml or QDRANT_HOST)")
	}
	if cfg.QdrantCollection == "" {
		return errors.New("config: qdrantCollection is required (set in config.yaml or QDRANT_COLLECTION)")
	}
	if cfg.AIBaseURL == "" {
		return errors.New("config: aiBaseURL is required (set in config.yaml or AI_BASE_URL)")
	}
	if cfg.GenerationModel == "" || cfg.EmbeddingModel == "" {
		return errors.New("config: generationModel and embeddingModel are required")
	}
	switch cfg.ExtractorProvider {
	case "local":
	case "http":
		if strings.TrimSpace(cfg.ExtractorEndpoint) == "" {
			return errors.New("config: extractorEndpoint is required when extractorProvider=http")
		}
	default:
		return fmt.Errorf("config: unknown extractorProvider %q (expected http or local)", cfg.ExtractorProvider)
	}
	if cfg.TopK < 0 {
		return errors.New("config: topK must be >= 0")
	}
	if cfg.HistoryLimit < 0 {
		return errors.New("config: historyLimit must be >= 0")
	}
	if cfg.MaxUploadBytes < 0 {
		return errors.New("config: maxUploadBytes must be >= 0")
	}
	return nil
}
