package main

import (
	"context"
	"log"

	"engram-be/internal/bootstrap"
	"engram-be/internal/config"
	"engram-be/internal/server"
	"engram-be/internal/tracer"
	"engram-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	ctx := context.Background()

	go container.WebSocketHub.Run()

	if container.EventService != nil {
		go func() {
			log.Println("Background: Starting Event Bridge...")
			if err := container.EventService.Listen(); err != nil {
				log.Printf("Background Event Bridge Error: %v", err)
			}
		}()
	}

	log.Println("Background: Starting Embedding Worker...")
	if err := container.EmbeddingWorker.Start(ctx); err != nil {
		log.Printf("Background Embedding Worker Error: %v", err)
	}

	log.Println("Background: Starting Insight Worker...")
	container.InsightWorker.Start(ctx)

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
