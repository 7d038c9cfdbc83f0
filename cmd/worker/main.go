package main

import (
	"log"
	"time"

	"secondbrain/internal/engine/content"
	"secondbrain/internal/pkg/logger"
	"secondbrain/internal/platform/config"
	"secondbrain/internal/platform/database"
	"secondbrain/internal/workers"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	contentRepo := content.NewRepository(db)

	interval := cfg.Worker.PurgeInterval
	if interval <= 0 {
		interval = time.Hour
	}
	retention := cfg.Worker.PurgeRetention
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}

	log.Printf("Purge worker running every %v, retention %v", interval, retention)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		if err := workers.PurgeDeletedContent(contentRepo, retention); err != nil {
			log.Printf("Error purging deleted content: %v", err)
		}
	}
}
