package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/JackFeatherston/Osprey/internal/di"
	"github.com/JackFeatherston/Osprey/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	// Credentials come from .env in local development; missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s symbols=%v sentiment=%t", cfg.Environment, cfg.Engine.Symbols, cfg.Sentiment.Enabled)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
