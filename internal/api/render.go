package api

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sfproxy/siliconflow-openai-proxy/internal/upstream"
)

const (
	formatURL     = "url"
	formatB64JSON = "b64_json"
)

// Renderer shapes orchestrator output into the two OpenAI-compatible response
// bodies. The fetcher is only exercised for b64_json output.
type Renderer struct {
	fetcher  upstream.Fetcher
	provider string
}

func NewRenderer(fetcher upstream.Fetcher, provider string) *Renderer {
	return &Renderer{fetcher: fetcher, provider: provider}
}

// RenderImages builds the images-generations response. With b64_json every
// URL is fetched and inlined; a single failed fetch fails the whole response.
func (r *Renderer) RenderImages(ctx context.Context, urls []string, format string) (*ImagesResponse, error) {
	data := make([]ImageData, 0, len(urls))
	for _, url := range urls {
		if format == formatB64JSON {
			raw, _, err := r.fetcher.Fetch(ctx, url)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch generated image: %w", err)
			}
			data = append(data, ImageData{B64JSON: base64.StdEncoding.EncodeToString(raw)})
		} else {
			data = append(data, ImageData{URL: url})
		}
	}

	return &ImagesResponse{
		Created: time.Now().Unix(),
		Data:    data,
	}, nil
}

// RenderChat builds a full chat-completion envelope whose assistant message is
// one Markdown image block per URL, blocks separated by a blank line. With
// b64_json the fetched bytes are embedded as data URIs instead of remote URLs.
func (r *Renderer) RenderChat(ctx context.Context, urls []string, model, format string) (*ChatCompletionResponse, error) {
	blocks := make([]string, 0, len(urls))
	for _, url := range urls {
		target := url
		if format == formatB64JSON {
			raw, contentType, err := r.fetcher.Fetch(ctx, url)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch generated image: %w", err)
			}
			target = "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(raw)
		}
		blocks = append(blocks, "![image]("+target+")")
	}

	return &ChatCompletionResponse{
		ID:       "chatcmpl-" + uuid.New().String(),
		Object:   "chat.completion",
		Created:  time.Now().Unix(),
		Model:    model,
		Provider: r.provider,
		Choices: []ChatChoice{{
			Index: 0,
			Message: ChatMessage{
				Role:    "assistant",
				Content: strings.Join(blocks, "\n\n"),
			},
			FinishReason: "stop",
		}},
	}, nil
}
