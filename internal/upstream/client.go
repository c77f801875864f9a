package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Generator issues one image-generation call against the upstream API. The
// payload carries the full upstream vocabulary (model, prompt, image,
// image_size, seed, batch_size, ...); the response preserves upstream order.
type Generator interface {
	Generate(ctx context.Context, payload map[string]any) (*GenerateResponse, error)
}

// Fetcher retrieves the bytes behind a generated image URL, used when a client
// asks for base64 output. The content type is the upstream's, sniffed when the
// upstream doesn't declare one.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (data []byte, contentType string, err error)
}

// GenerateResponse is the upstream image-generation response body.
type GenerateResponse struct {
	Images []Image `json:"images"`
	Seed   int64   `json:"seed,omitempty"`
}

// Image is a single generated image in an upstream response.
type Image struct {
	URL string `json:"url"`
}

// Client talks to the SiliconFlow image-generation API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

func (c *Client) Generate(ctx context.Context, payload map[string]any) (*GenerateResponse, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode upstream request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Error().Int("status", resp.StatusCode).Str("body", string(body)).Msg("Upstream generation failed")
		// Surfaced verbatim so callers can see the upstream's own diagnosis.
		return nil, fmt.Errorf("upstream error: %s: %s", resp.Status, string(body))
	}

	var generateResponse GenerateResponse
	if err := json.Unmarshal(body, &generateResponse); err != nil {
		return nil, fmt.Errorf("failed to decode upstream response: %w", err)
	}

	return &generateResponse, nil
}

func (c *Client) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("image fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("image fetch failed: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return data, contentType, nil
}
