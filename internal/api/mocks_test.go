package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/sfproxy/siliconflow-openai-proxy/internal/upstream"
)

// mockGenerator records every upstream payload and replays canned responses.
// When it runs out of queued responses it synthesizes one URL per call.
type mockGenerator struct {
	calls     []map[string]any
	responses []*upstream.GenerateResponse
	failAfter int // fail on call index failAfter (0-based); -1 disables
	err       error
}

func newMockGenerator() *mockGenerator {
	return &mockGenerator{failAfter: -1}
}

func (m *mockGenerator) Generate(_ context.Context, payload map[string]any) (*upstream.GenerateResponse, error) {
	clone := make(map[string]any, len(payload))
	for k, v := range payload {
		clone[k] = v
	}
	m.calls = append(m.calls, clone)

	call := len(m.calls) - 1
	if m.failAfter >= 0 && call >= m.failAfter {
		if m.err != nil {
			return nil, m.err
		}
		return nil, errors.New("upstream error: 500 Internal Server Error: boom")
	}

	if call < len(m.responses) {
		return m.responses[call], nil
	}
	return &upstream.GenerateResponse{
		Images: []upstream.Image{{URL: fmt.Sprintf("https://img.example/%d.png", call+1)}},
	}, nil
}

// mockFetcher serves fixed bytes for known URLs.
type mockFetcher struct {
	data        map[string][]byte
	contentType string
	err         error
	fetched     []string
}

func (m *mockFetcher) Fetch(_ context.Context, url string) ([]byte, string, error) {
	m.fetched = append(m.fetched, url)
	if m.err != nil {
		return nil, "", m.err
	}
	data, ok := m.data[url]
	if !ok {
		return nil, "", errors.New("image fetch failed: 404 Not Found")
	}
	contentType := m.contentType
	if contentType == "" {
		contentType = "image/png"
	}
	return data, contentType, nil
}
