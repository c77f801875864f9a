package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfproxy/siliconflow-openai-proxy/internal/upstream"
)

func fixedSeeds(seeds ...int64) func() int64 {
	i := 0
	return func() int64 {
		seed := seeds[i%len(seeds)]
		i++
		return seed
	}
}

func TestOrchestrator_SequentialCalls(t *testing.T) {
	gen := newMockGenerator()
	orch := NewOrchestrator(gen)
	orch.seedFn = fixedSeeds(101, 202, 303)

	urls, err := orch.Generate(context.Background(), map[string]any{
		"model":  "Qwen/Qwen-Image",
		"prompt": "a cat",
	}, 3)

	require.NoError(t, err)
	require.Len(t, gen.calls, 3)
	assert.Equal(t, []string{
		"https://img.example/1.png",
		"https://img.example/2.png",
		"https://img.example/3.png",
	}, urls)

	assert.Equal(t, int64(101), gen.calls[0]["seed"])
	assert.Equal(t, int64(202), gen.calls[1]["seed"])
	assert.Equal(t, int64(303), gen.calls[2]["seed"])
}

func TestOrchestrator_InjectedSeedsDiffer(t *testing.T) {
	gen := newMockGenerator()
	orch := NewOrchestrator(gen)

	_, err := orch.Generate(context.Background(), map[string]any{
		"model":  "Qwen/Qwen-Image",
		"prompt": "a cat",
	}, 2)

	require.NoError(t, err)
	require.Len(t, gen.calls, 2)
	assert.NotEqual(t, gen.calls[0]["seed"], gen.calls[1]["seed"])
}

func TestOrchestrator_ClientSeedPreserved(t *testing.T) {
	gen := newMockGenerator()
	orch := NewOrchestrator(gen)
	orch.seedFn = func() int64 {
		t.Fatal("seed must not be injected when the client supplied one")
		return 0
	}

	_, err := orch.Generate(context.Background(), map[string]any{
		"model":  "Qwen/Qwen-Image",
		"prompt": "a cat",
		"seed":   float64(1234),
	}, 2)

	require.NoError(t, err)
	require.Len(t, gen.calls, 2)
	assert.Equal(t, float64(1234), gen.calls[0]["seed"])
	assert.Equal(t, float64(1234), gen.calls[1]["seed"])
}

func TestOrchestrator_BatchCall(t *testing.T) {
	gen := newMockGenerator()
	gen.responses = []*upstream.GenerateResponse{{
		Images: []upstream.Image{
			{URL: "https://img.example/b1.png"},
			{URL: "https://img.example/b2.png"},
			{URL: "https://img.example/b3.png"},
		},
	}}
	orch := NewOrchestrator(gen)

	template := map[string]any{
		"model":      "Qwen/Qwen-Image",
		"prompt":     "a cat",
		"batch_size": float64(3),
	}
	urls, err := orch.Generate(context.Background(), template, 1)

	require.NoError(t, err)
	require.Len(t, gen.calls, 1)
	assert.Equal(t, []string{
		"https://img.example/b1.png",
		"https://img.example/b2.png",
		"https://img.example/b3.png",
	}, urls)
	// template goes through as-is, no injected seed
	_, hasSeed := gen.calls[0]["seed"]
	assert.False(t, hasSeed)
}

func TestOrchestrator_BatchIgnoredWhenCountAboveOne(t *testing.T) {
	gen := newMockGenerator()
	orch := NewOrchestrator(gen)

	urls, err := orch.Generate(context.Background(), map[string]any{
		"model":      "Qwen/Qwen-Image",
		"prompt":     "a cat",
		"batch_size": float64(4),
	}, 2)

	require.NoError(t, err)
	assert.Len(t, gen.calls, 2)
	assert.Len(t, urls, 2)
}

func TestOrchestrator_FailureAbortsWithoutPartials(t *testing.T) {
	gen := newMockGenerator()
	gen.failAfter = 1
	orch := NewOrchestrator(gen)

	urls, err := orch.Generate(context.Background(), map[string]any{
		"model":  "Qwen/Qwen-Image",
		"prompt": "a cat",
	}, 3)

	require.Error(t, err)
	assert.Nil(t, urls)
	// second call failed, third is never issued
	assert.Len(t, gen.calls, 2)
}

func TestOrchestrator_EmptyResponseFails(t *testing.T) {
	gen := newMockGenerator()
	gen.responses = []*upstream.GenerateResponse{{Images: nil}}
	orch := NewOrchestrator(gen)

	_, err := orch.Generate(context.Background(), map[string]any{
		"model":  "Qwen/Qwen-Image",
		"prompt": "a cat",
	}, 1)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no image")
}

func TestOrchestrator_CallCountMatchesRequested(t *testing.T) {
	for n := 1; n <= 10; n++ {
		gen := newMockGenerator()
		orch := NewOrchestrator(gen)

		urls, err := orch.Generate(context.Background(), map[string]any{
			"model":  "Qwen/Qwen-Image",
			"prompt": "a cat",
		}, n)

		require.NoError(t, err, "n=%d", n)
		assert.Len(t, gen.calls, n, "n=%d", n)
		assert.Len(t, urls, n, "n=%d", n)
	}
}
