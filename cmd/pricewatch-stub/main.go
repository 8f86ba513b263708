package main

import (
	"fmt"
	"os"

	"github.com/pricewatch-dev/pricewatch/internal/config"
	"github.com/pricewatch-dev/pricewatch/internal/logger"
	"github.com/pricewatch-dev/pricewatch/internal/stubserver"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	// Create server
	srv, err := stubserver.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create stub server")
	}

	log.Info().Str("port", cfg.Server.Port).Msg("Starting Pricewatch stub API...")

	// Start HTTP server (this blocks)
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}
