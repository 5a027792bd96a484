// Package ai talks to the extraction/generation collaborator service. The
// service owns the models; this client only shapes requests and decodes the
// three call styles the product needs: URL text extraction, schema-bound
// object generation and free-form text generation.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"folioforge/internal/config"
)

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client from config.
func NewClient(cfg config.AIConfig) *Client {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type extractRequest struct {
	URL string `json:"url"`
}

type extractResponse struct {
	Text string `json:"text"`
}

// ExtractFromURL pulls plain text out of the document at the given URL.
func (c *Client) ExtractFromURL(ctx context.Context, url string) (string, error) {
	var resp extractResponse
	if err := c.post(ctx, "/v1/extract", extractRequest{URL: url}, &resp); err != nil {
		return "", fmt.Errorf("extract from url: %w", err)
	}
	return resp.Text, nil
}

type generateObjectRequest struct {
	Prompt string         `json:"prompt"`
	Schema map[string]any `json:"schema"`
}

type generateObjectResponse struct {
	Object json.RawMessage `json:"object"`
}

// GenerateObject asks the service for a JSON object conforming to schema and
// unmarshals it into out. The schema is advisory to the model; callers must
// treat missing fields as possible (see content.AnalysisResult).
func (c *Client) GenerateObject(ctx context.Context, prompt string, schema map[string]any, out any) error {
	var resp generateObjectResponse
	if err := c.post(ctx, "/v1/generate-object", generateObjectRequest{Prompt: prompt, Schema: schema}, &resp); err != nil {
		return fmt.Errorf("generate object: %w", err)
	}
	if len(resp.Object) == 0 {
		return fmt.Errorf("generate object: empty object in response")
	}
	if err := json.Unmarshal(resp.Object, out); err != nil {
		return fmt.Errorf("decode generated object: %w", err)
	}
	return nil
}

type generateTextRequest struct {
	Prompt string `json:"prompt"`
}

type generateTextResponse struct {
	Text string `json:"text"`
}

// GenerateText returns free-form model output for the prompt. Output is not
// deterministic across calls with identical input.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	var resp generateTextResponse
	if err := c.post(ctx, "/v1/generate-text", generateTextRequest{Prompt: prompt}, &resp); err != nil {
		return "", fmt.Errorf("generate text: %w", err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", fmt.Errorf("generate text: empty response")
	}
	return resp.Text, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call ai service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
		return fmt.Errorf("ai service status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
