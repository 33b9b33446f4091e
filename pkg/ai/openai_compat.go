package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OpenAICompatClient calls any OpenAI-compatible API for both chat
// completions and embeddings. Works with OpenAI, Azure OpenAI fronted by a
// compat proxy, vLLM, LiteLLM, Ollama's compat endpoint, OpenRouter, etc.
type OpenAICompatClient struct {
	baseURL         string
	apiKey          string
	generationModel string
	embeddingModel  string
	embeddingDim    int
	httpClient      *http.Client
}

// OpenAICompatConfig holds client settings.
type OpenAICompatConfig struct {
	// BaseURL should include the /v1 prefix, e.g. "https://api.openai.com/v1".
	BaseURL         string
	APIKey          string
	GenerationModel string
	EmbeddingModel  string
	// EmbeddingDim, when > 0, is sent as the dimensions parameter and
	// validated against the response.
	EmbeddingDim int
}

// NewOpenAICompatClient builds a client. APIKey can be empty for local
// endpoints that do not require authentication.
func NewOpenAICompatClient(cfg OpenAICompatConfig) *OpenAICompatClient {
	return &OpenAICompatClient{
		baseURL:         strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:          strings.TrimSpace(cfg.APIKey),
		generationModel: strings.TrimSpace(cfg.GenerationModel),
		embeddingModel:  strings.TrimSpace(cfg.EmbeddingModel),
		embeddingDim:    cfg.EmbeddingDim,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Complete implements ChatCompleter using the chat completions API.
func (c *OpenAICompatClient) Complete(ctx context.Context, messages []Message) (string, error) {
	if c.generationModel == "" {
		return "", fmt.Errorf("generation model required")
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("messages required")
	}
	reqBody := oaiChatRequest{
		Model:    c.generationModel,
		Messages: messages,
	}
	var chatResp oaiChatResponse
	if err := c.doJSON(ctx, "/chat/completions", reqBody, &chatResp); err != nil {
		return "", err
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from completion api")
	}
	text := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("empty response from completion api")
	}
	return text, nil
}

// EmbedText implements Embedder using the embeddings API.
func (c *OpenAICompatClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if c.embeddingModel == "" {
		return nil, fmt.Errorf("embedding model required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("embedding text required")
	}
	reqBody := oaiEmbedRequest{
		Model: c.embeddingModel,
		Input: text,
	}
	if c.embeddingDim > 0 {
		reqBody.Dimensions = c.embeddingDim
	}
	var embedResp oaiEmbedResponse
	if err := c.doJSON(ctx, "/embeddings", reqBody, &embedResp); err != nil {
		return nil, err
	}
	if len(embedResp.Data) == 0 || len(embedResp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding response missing embedding")
	}
	embedding := embedResp.Data[0].Embedding
	if c.embeddingDim > 0 && len(embedding) != c.embeddingDim {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(embedding), c.embeddingDim)
	}
	return embedding, nil
}

func (c *OpenAICompatClient) doJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ai request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp oaiErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return fmt.Errorf("ai api error: %s", errResp.Error.Message)
		}
		return fmt.Errorf("ai api error: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ai decode: %w", err)
	}
	return nil
}

// OpenAI-compatible request/response types.

type oaiChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type oaiChatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type oaiEmbedRequest struct {
	Model      string `json:"model"`
	Input      string `json:"input"`
	Dimensions int    `json:"dimensions,omitempty"`
}

type oaiEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

type oaiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
