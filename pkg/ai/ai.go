package ai

import "context"

// Message is one entry in a chat-completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Embedder provides embeddings for text.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// ChatCompleter generates a single reply for an ordered message sequence.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}
