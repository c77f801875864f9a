package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sfproxy/siliconflow-openai-proxy/internal/api"
	"github.com/sfproxy/siliconflow-openai-proxy/internal/config"
	"github.com/sfproxy/siliconflow-openai-proxy/internal/upstream"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	client := upstream.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamAPIKey)
	router := api.NewRouter(cfg, client, client)

	log.Info().Str("addr", cfg.ListenAddr).Msg("Server is running")
	if err := http.ListenAndServe(cfg.ListenAddr, router); err != nil {
		log.Fatal().Err(err).Msg("Server exited")
	}
}
