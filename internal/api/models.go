package api

import "net/http"

// Error is the OpenAI-style error body.
type Error struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ErrorResponse is the envelope every failure is reported in.
type ErrorResponse struct {
	Error Error `json:"error"`
}

// NewError maps an HTTP status to the OpenAI error envelope.
func NewError(code int, message string) ErrorResponse {
	var etype string
	switch code {
	case http.StatusBadRequest, http.StatusUnauthorized:
		etype = "invalid_request_error"
	default:
		etype = "internal_error"
	}
	return ErrorResponse{Error{Message: message, Type: etype}}
}

// ImageData is one entry of an images-generations response, carrying either a
// URL or inline base64 data depending on the requested response format.
type ImageData struct {
	URL     string `json:"url,omitempty"`
	B64JSON string `json:"b64_json,omitempty"`
}

// ImagesResponse is the OpenAI images-generations response body.
type ImagesResponse struct {
	Created int64       `json:"created"`
	Data    []ImageData `json:"data"`
}

// ChatMessage is an assistant message inside a chat-completion response.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatChoice is the single choice of a chat-completion response.
type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// Usage is always zeroed: this proxy runs no tokenizer.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatCompletionResponse is the OpenAI chat-completion response body.
type ChatCompletionResponse struct {
	ID       string       `json:"id"`
	Object   string       `json:"object"`
	Created  int64        `json:"created"`
	Model    string       `json:"model"`
	Provider string       `json:"provider,omitempty"`
	Choices  []ChatChoice `json:"choices"`
	Usage    Usage        `json:"usage"`
}

// Model is one entry of the models listing.
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// ModelList is the OpenAI models listing body.
type ModelList struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}
