package api

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/sfproxy/siliconflow-openai-proxy/internal/upstream"
)

// maxSeed bounds injected seeds; large enough that sequential calls never
// collide by accident.
const maxSeed = int64(10_000_000_000)

// Orchestrator turns one logical generation request into upstream calls and
// collects the resulting image URLs in call order.
type Orchestrator struct {
	generator upstream.Generator
	seedFn    func() int64
}

func NewOrchestrator(generator upstream.Generator) *Orchestrator {
	return &Orchestrator{
		generator: generator,
		seedFn:    func() int64 { return rand.Int63n(maxSeed) },
	}
}

// Generate produces count images from the payload template.
//
// A template that carries batch_size with count == 1 is sent as a single call
// and the upstream's whole batch, in its order, becomes the result. Everything
// else falls back to count sequential calls, one image each; when the client
// supplied no seed, each call gets a fresh random one so repeated calls don't
// collapse to identical output. Any failed call aborts the whole request.
func (o *Orchestrator) Generate(ctx context.Context, template map[string]any, count int) ([]string, error) {
	if _, batched := template["batch_size"]; batched && count == 1 {
		resp, err := o.generator.Generate(ctx, template)
		if err != nil {
			return nil, err
		}
		urls := make([]string, 0, len(resp.Images))
		for _, img := range resp.Images {
			urls = append(urls, img.URL)
		}
		return urls, nil
	}

	_, hasSeed := template["seed"]
	urls := make([]string, 0, count)
	for i := 0; i < count; i++ {
		payload := template
		if !hasSeed {
			payload = make(map[string]any, len(template)+1)
			for k, v := range template {
				payload[k] = v
			}
			payload["seed"] = o.seedFn()
		}

		resp, err := o.generator.Generate(ctx, payload)
		if err != nil {
			return nil, err
		}
		if len(resp.Images) == 0 || resp.Images[0].URL == "" {
			return nil, fmt.Errorf("upstream returned no image for call %d of %d", i+1, count)
		}
		urls = append(urls, resp.Images[0].URL)
	}
	return urls, nil
}
