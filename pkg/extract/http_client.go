package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPExtractor calls an external document-analysis service. The service
// fetches the file from the pre-signed URL, runs OCR/layout analysis and
// returns the full text plus a page count. The call is synchronous.
type HTTPExtractor struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPExtractor builds an extractor against the given analysis endpoint.
func NewHTTPExtractor(endpoint, apiKey string) (*HTTPExtractor, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("extractor endpoint required")
	}
	return &HTTPExtractor{
		endpoint: endpoint,
		apiKey:   strings.TrimSpace(apiKey),
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

type analyzeRequest struct {
	URL      string `json:"url"`
	FileName string `json:"fileName,omitempty"`
}

type analyzeResponse struct {
	Content   string `json:"content"`
	PageCount int    `json:"pageCount"`
	Error     string `json:"error,omitempty"`
}

// Extract submits the stored file's URL for analysis and waits for the result.
func (e *HTTPExtractor) Extract(ctx context.Context, file File) (Result, error) {
	if strings.TrimSpace(file.URL) == "" {
		return Result{}, fmt.Errorf("file url required")
	}
	body, err := json.Marshal(analyzeRequest{URL: file.URL, FileName: file.FileName})
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+"/analyze", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("analyze request: %w", err)
	}
	defer resp.Body.Close()
	var analyzed analyzeResponse
	if resp.StatusCode >= 400 {
		_ = json.NewDecoder(resp.Body).Decode(&analyzed)
		if analyzed.Error != "" {
			return Result{}, fmt.Errorf("analyze api error: %s", analyzed.Error)
		}
		return Result{}, fmt.Errorf("analyze api error: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&analyzed); err != nil {
		return Result{}, fmt.Errorf("analyze decode: %w", err)
	}
	if strings.TrimSpace(analyzed.Content) == "" {
		return Result{}, fmt.Errorf("analyze returned no text")
	}
	pages := analyzed.PageCount
	if pages <= 0 {
		pages = 1
	}
	return Result{Text: analyzed.Content, Pages: pages}, nil
}
