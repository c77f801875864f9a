package api

import (
	"strconv"
	"strings"
)

const (
	minImageCount = 1
	maxImageCount = 10
)

// paramRule maps one upstream payload field to its client-facing sources.
// Sources are applied in order and a later present source overwrites an
// earlier one, so the canonical name wins over its sf_ alias when a client
// supplies both.
type paramRule struct {
	dest    string
	sources []string
}

var paramRules = []paramRule{
	{"negative_prompt", []string{"sf_negative_prompt", "negative_prompt"}},
	{"num_inference_steps", []string{"sf_num_steps", "num_inference_steps"}},
	{"guidance_scale", []string{"sf_guidance_scale", "guidance_scale"}},
	{"cfg", []string{"sf_cfg", "cfg"}},
	{"seed", []string{"sf_seed", "seed"}},
	{"batch_size", []string{"sf_batch_size"}},
	{"image_size", []string{"sf_image_size", "size"}},
}

// mapParams copies the tunable generation fields from the decoded request body
// into the upstream payload. Absent fields stay absent; nothing is defaulted.
func mapParams(body map[string]any, payload map[string]any) {
	for _, rule := range paramRules {
		for _, source := range rule.sources {
			if v, ok := body[source]; ok && v != nil {
				payload[rule.dest] = v
			}
		}
	}
}

// clampCount normalizes the requested image count. Missing or non-numeric
// values default to 1; numeric values are clamped to [1,10]. Numeric strings
// are accepted because loosely-typed clients send them.
func clampCount(v any) int {
	n := 1
	switch value := v.(type) {
	case float64:
		n = int(value)
	case int:
		n = value
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			n = parsed
		}
	}
	if n < minImageCount {
		n = minImageCount
	}
	if n > maxImageCount {
		n = maxImageCount
	}
	return n
}

// stringField reads a string-typed field from the decoded body, returning ""
// for anything else.
func stringField(body map[string]any, key string) string {
	s, _ := body[key].(string)
	return s
}
