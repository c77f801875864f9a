package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	defaultBaseURL      = "https://api.siliconflow.cn/v1"
	defaultProviderName = "SiliconFlow"
	defaultListenAddr   = ":8080"
)

// Config captures the runtime configuration for the proxy. It is read once at
// startup and treated as immutable afterwards.
type Config struct {
	// UpstreamAPIKey is the bearer credential for the SiliconFlow API. It is
	// never exposed to clients.
	UpstreamAPIKey string
	// UpstreamBaseURL is the base URL of the SiliconFlow API, without a
	// trailing slash.
	UpstreamBaseURL string
	// Models is the raw model-list value. It is parsed per request so a
	// malformed value surfaces as a request error rather than a crash.
	Models string
	// ProxyAPIKeys are the credentials clients must present. Empty means the
	// endpoints are open.
	ProxyAPIKeys []string
	// ProviderName is the provider label echoed in chat-completion envelopes.
	ProviderName string
	ListenAddr   string
}

// Load builds a Config from the environment.
func Load() (Config, error) {
	cfg := Config{
		UpstreamAPIKey:  os.Getenv("SILICONFLOW_API_KEY"),
		UpstreamBaseURL: strings.TrimRight(os.Getenv("SILICONFLOW_BASE_URL"), "/"),
		Models:          os.Getenv("MODELS"),
		ProxyAPIKeys:    splitKeys(os.Getenv("PROXY_API_KEYS")),
		ProviderName:    os.Getenv("PROVIDER_NAME"),
		ListenAddr:      os.Getenv("LISTEN_ADDR"),
	}

	if cfg.UpstreamAPIKey == "" {
		return Config{}, fmt.Errorf("SILICONFLOW_API_KEY is not set")
	}
	if cfg.UpstreamBaseURL == "" {
		cfg.UpstreamBaseURL = defaultBaseURL
	}
	if cfg.ProviderName == "" {
		cfg.ProviderName = defaultProviderName
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}

	return cfg, nil
}

func splitKeys(raw string) []string {
	var keys []string
	for _, key := range strings.Split(raw, ",") {
		key = strings.TrimSpace(key)
		if key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// ParseModelList interprets the MODELS value as either a JSON array of model
// ids or a comma/whitespace-delimited list. An empty value yields an empty
// list; a value that looks like JSON but fails to parse is a configuration
// error.
func ParseModelList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	if strings.HasPrefix(raw, "[") {
		var models []string
		if err := json.Unmarshal([]byte(raw), &models); err != nil {
			return nil, fmt.Errorf("malformed model list: %w", err)
		}
		return models, nil
	}

	var models []string
	for _, field := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	}) {
		if field != "" {
			models = append(models, field)
		}
	}
	return models, nil
}
