package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/sfproxy/siliconflow-openai-proxy/internal/config"
	"github.com/sfproxy/siliconflow-openai-proxy/internal/upstream"
)

type Router struct {
	router       *mux.Router
	cfg          config.Config
	orchestrator *Orchestrator
	renderer     *Renderer
}

func NewRouter(cfg config.Config, generator upstream.Generator, fetcher upstream.Fetcher) *Router {
	r := mux.NewRouter()
	router := &Router{
		router:       r,
		cfg:          cfg,
		orchestrator: NewOrchestrator(generator),
		renderer:     NewRenderer(fetcher, cfg.ProviderName),
	}

	r.Use(corsMiddleware)
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(router.authMiddleware)
	v1.HandleFunc("/images/generations", router.imageGenerationsHandler).Methods(http.MethodPost, http.MethodOptions)
	v1.HandleFunc("/chat/completions", router.chatCompletionsHandler).Methods(http.MethodPost, http.MethodOptions)
	v1.HandleFunc("/models", router.modelsHandler).Methods(http.MethodGet, http.MethodOptions)

	return router
}

func (router *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	router.router.ServeHTTP(w, r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authMiddleware gates the v1 endpoints behind the proxy credentials. With no
// keys configured the endpoints are open.
func (router *Router) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || len(router.cfg.ProxyAPIKeys) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		var key string
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			key = strings.TrimPrefix(auth, "Bearer ")
		}
		if key == "" {
			key = r.URL.Query().Get("key")
		}

		for _, accepted := range router.cfg.ProxyAPIKeys {
			if key == accepted {
				next.ServeHTTP(w, r)
				return
			}
		}

		respondWithError(w, http.StatusUnauthorized, "invalid or missing API key")
	})
}

// decodeBody parses the request body into a generic map; the inbound surface
// is too shape-heterogeneous for a fixed struct.
func decodeBody(r *http.Request) (map[string]any, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	return body, nil
}

func (router *Router) imageGenerationsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := decodeBody(r)
	if err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	model := stringField(body, "model")
	if model == "" {
		respondWithError(w, http.StatusBadRequest, "model is required")
		return
	}
	prompt := stringField(body, "prompt")
	if prompt == "" {
		respondWithError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	payload := map[string]any{
		"model":  model,
		"prompt": prompt,
	}

	editModel := IsEditModel(model)
	if ref, ok := ExtractImageRef(nil, body, editModel); ok {
		payload["image"] = ref.Value
	} else if editModel {
		respondWithError(w, http.StatusBadRequest, "model "+model+" requires an input image")
		return
	}

	mapParams(body, payload)

	count := clampCount(body["n"])
	format := stringField(body, "response_format")

	urls, err := router.orchestrator.Generate(r.Context(), payload, count)
	if err != nil {
		log.Error().Err(err).Str("model", model).Msg("Generation failed")
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response, err := router.renderer.RenderImages(r.Context(), urls, format)
	if err != nil {
		log.Error().Err(err).Str("model", model).Msg("Failed to render response")
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Info().
		Str("endpoint", "images.generations").
		Str("model", model).
		Int("n", count).
		Dur("duration", time.Since(start)).
		Msg("Handled request")

	respondWithJSON(w, http.StatusOK, response)
}

func (router *Router) chatCompletionsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := decodeBody(r)
	if err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	model := stringField(body, "model")
	if model == "" {
		respondWithError(w, http.StatusBadRequest, "model is required")
		return
	}

	messages, ok := body["messages"].([]any)
	if !ok || len(messages) == 0 {
		respondWithError(w, http.StatusBadRequest, "messages must be a non-empty array")
		return
	}

	prompt, ok := latestUserPrompt(messages)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "no user message found")
		return
	}

	payload := map[string]any{
		"model":  model,
		"prompt": prompt,
	}

	editModel := IsEditModel(model)
	if ref, ok := ExtractImageRef(messages, body, editModel); ok {
		payload["image"] = ref.Value
	} else if editModel {
		respondWithError(w, http.StatusBadRequest, "model "+model+" requires an input image")
		return
	}

	mapParams(body, payload)

	count := clampCount(body["n"])
	format := stringField(body, "response_format")

	urls, err := router.orchestrator.Generate(r.Context(), payload, count)
	if err != nil {
		log.Error().Err(err).Str("model", model).Msg("Generation failed")
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response, err := router.renderer.RenderChat(r.Context(), urls, model, format)
	if err != nil {
		log.Error().Err(err).Str("model", model).Msg("Failed to render response")
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Info().
		Str("endpoint", "chat.completions").
		Str("model", model).
		Int("n", count).
		Dur("duration", time.Since(start)).
		Msg("Handled request")

	respondWithJSON(w, http.StatusOK, response)
}

func (router *Router) modelsHandler(w http.ResponseWriter, r *http.Request) {
	ids, err := config.ParseModelList(router.cfg.Models)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	created := time.Now().Unix()
	data := make([]Model, 0, len(ids))
	for _, id := range ids {
		data = append(data, Model{
			ID:      id,
			Object:  "model",
			Created: created,
			OwnedBy: "system",
		})
	}

	respondWithJSON(w, http.StatusOK, ModelList{Object: "list", Data: data})
}

// latestUserPrompt returns the text of the most recent user message: string
// content as-is, or the text parts of a structured content array joined by
// newlines.
func latestUserPrompt(messages []any) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		msg, ok := messages[i].(map[string]any)
		if !ok || messageRole(msg) != "user" {
			continue
		}

		switch content := msg["content"].(type) {
		case string:
			return content, true
		case []any:
			var parts []string
			for _, entry := range content {
				part, ok := entry.(map[string]any)
				if !ok {
					continue
				}
				if text, ok := part["text"].(string); ok {
					parts = append(parts, text)
				}
			}
			return strings.Join(parts, "\n"), true
		}
		return "", true
	}
	return "", false
}
