package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCompleteSendsMessagesAndReadsFirstChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req oaiChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" || len(req.Messages) != 2 {
			t.Errorf("unexpected request: %+v", req)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  the answer  "}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAICompatClient(OpenAICompatConfig{
		BaseURL:         srv.URL + "/v1",
		GenerationModel: "test-model",
	})
	got, err := c.Complete(context.Background(), []Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "question"},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got != "the answer" {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestEmbedTextValidatesDimension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req oaiEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Dimensions != 3 {
			t.Errorf("expected dimensions=3, got %d", req.Dimensions)
		}
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()

	c := NewOpenAICompatClient(OpenAICompatConfig{
		BaseURL:        srv.URL + "/v1",
		EmbeddingModel: "embed-model",
		EmbeddingDim:   3,
	})
	got, err := c.EmbedText(context.Background(), "some text")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("unexpected embedding: %v", got)
	}
}

func TestEmbedTextRejectsDimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2]}]}`))
	}))
	defer srv.Close()

	c := NewOpenAICompatClient(OpenAICompatConfig{
		BaseURL:        srv.URL + "/v1",
		EmbeddingModel: "embed-model",
		EmbeddingDim:   3,
	})
	if _, err := c.EmbedText(context.Background(), "some text"); err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
}

func TestCompleteSurfacesAPIErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	c := NewOpenAICompatClient(OpenAICompatConfig{
		BaseURL:         srv.URL + "/v1",
		GenerationModel: "test-model",
	})
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "q"}})
	if err == nil {
		t.Fatalf("expected api error")
	}
	if got := err.Error(); got != "ai api error: rate limited" {
		t.Fatalf("unexpected error text: %q", got)
	}
}
