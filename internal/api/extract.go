package api

import (
	"regexp"
	"strings"
)

// RefKind distinguishes the two accepted image reference forms.
type RefKind string

const (
	RefURL     RefKind = "url"
	RefDataURI RefKind = "data_uri"
)

// ImageRef is a validated reference to an input image: either a remote
// http(s) URL or an inline base64 data URI. No other string is ever accepted;
// unrecognized input yields "no reference", never an invalid ImageRef.
type ImageRef struct {
	Kind  RefKind
	Value string
}

// textRule matches one way an image can be embedded in free text. Rules are
// tried in order and the first match wins.
type textRule struct {
	pattern *regexp.Regexp
	group   int
}

var textRules = []textRule{
	// inline data URI
	{regexp.MustCompile(`data:image/[a-zA-Z0-9.+-]+;base64,[A-Za-z0-9+/=]+`), 0},
	// Markdown image block
	{regexp.MustCompile(`!\[[^\]]*\]\((https?://[^)\s]+)\)`), 1},
	// bare URL token
	{regexp.MustCompile(`https?://[^\s)\]>"']+`), 0},
}

// partImageKeys are the fields of a structured content part that may carry an
// image, in scan order. This covers {type: image_url}, {type: input_image} and
// generic objects exposing a URL-ish field.
var partImageKeys = []string{"image_url", "url", "image", "src", "data", "href"}

// bodyImageFields are the top-level request fields checked when the current
// user message carries no image, in scan order.
var bodyImageFields = []string{"image", "image_url"}

// bodyImageListFields are top-level fields holding a list of candidates; the
// first coercible item wins.
var bodyImageListFields = []string{"images", "image_urls"}

var editModelPattern = regexp.MustCompile(`(?i)edit`)

// IsEditModel reports whether a model id names an edit variant, which
// requires an input image to transform.
func IsEditModel(model string) bool {
	return editModelPattern.MatchString(model)
}

// coerceImageRef normalizes a candidate value into an ImageRef. Candidates may
// be plain strings or objects carrying a url field; only strings in one of the
// two recognized forms are accepted.
func coerceImageRef(v any) (ImageRef, bool) {
	switch value := v.(type) {
	case string:
		if strings.HasPrefix(value, "data:image/") {
			return ImageRef{Kind: RefDataURI, Value: value}, true
		}
		if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
			return ImageRef{Kind: RefURL, Value: value}, true
		}
		return ImageRef{}, false
	case map[string]any:
		if url, ok := value["url"]; ok {
			return coerceImageRef(url)
		}
		return ImageRef{}, false
	default:
		return ImageRef{}, false
	}
}

// extractFromText scans a raw string for an embedded image reference.
func extractFromText(text string) (ImageRef, bool) {
	for _, rule := range textRules {
		if m := rule.pattern.FindStringSubmatch(text); m != nil {
			if ref, ok := coerceImageRef(m[rule.group]); ok {
				return ref, true
			}
		}
	}
	return ImageRef{}, false
}

func extractFromContentPart(part map[string]any) (ImageRef, bool) {
	for _, key := range partImageKeys {
		if v, ok := part[key]; ok {
			if ref, ok := coerceImageRef(v); ok {
				return ref, true
			}
		}
	}
	return ImageRef{}, false
}

// extractFromMessage pulls an image reference out of a single chat message.
// Structured content is scanned part by part; string content goes through the
// plain-text rules. Only the first image found is used.
func extractFromMessage(msg map[string]any) (ImageRef, bool) {
	switch content := msg["content"].(type) {
	case string:
		return extractFromText(content)
	case []any:
		for _, entry := range content {
			part, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			if ref, ok := extractFromContentPart(part); ok {
				return ref, true
			}
		}
	}
	return ImageRef{}, false
}

func extractFromBody(body map[string]any) (ImageRef, bool) {
	for _, field := range bodyImageFields {
		if v, ok := body[field]; ok {
			if ref, ok := coerceImageRef(v); ok {
				return ref, true
			}
		}
	}
	for _, field := range bodyImageListFields {
		list, ok := body[field].([]any)
		if !ok {
			continue
		}
		for _, item := range list {
			if ref, ok := coerceImageRef(item); ok {
				return ref, true
			}
		}
	}
	return ImageRef{}, false
}

func messageRole(msg map[string]any) string {
	role, _ := msg["role"].(string)
	return role
}

// ExtractImageRef resolves the input image for a request. Precedence: the most
// recent user message, then the request body's own image fields, then (for
// edit models only) prior assistant output scanned newest first.
func ExtractImageRef(messages []any, body map[string]any, editModel bool) (ImageRef, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		msg, ok := messages[i].(map[string]any)
		if !ok || messageRole(msg) != "user" {
			continue
		}
		if ref, ok := extractFromMessage(msg); ok {
			return ref, true
		}
		break
	}

	if ref, ok := extractFromBody(body); ok {
		return ref, true
	}

	if editModel {
		for i := len(messages) - 1; i >= 0; i-- {
			msg, ok := messages[i].(map[string]any)
			if !ok || messageRole(msg) != "assistant" {
				continue
			}
			if ref, ok := extractFromMessage(msg); ok {
				return ref, true
			}
		}
	}

	return ImageRef{}, false
}
