package main

import (
	"log"

	"github.com/saliou-conde/vending-machine/internal/app"
	"github.com/saliou-conde/vending-machine/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.Log()

	// Build собирает граф зависимостей: хранилище, кэш, Kafka, HTTP
	application, err := app.Build(cfg)
	if err != nil {
		log.Fatalf("Failed to build app: %v", err)
	}

	// Run блокируется до SIGINT/SIGTERM и graceful shutdown
	if err := application.Run(); err != nil {
		log.Fatalf("Service error: %v", err)
	}
}
