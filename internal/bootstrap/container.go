package bootstrap

import (
	"log"

	"engram-be/internal/config"
	"engram-be/internal/controller"
	"engram-be/internal/pkg/logger"
	"engram-be/internal/repository/implementation"
	"engram-be/internal/repository/memory"
	"engram-be/internal/repository/unitofwork"
	"engram-be/internal/service"
	"engram-be/internal/websocket"
	"engram-be/internal/worker"
	"engram-be/pkg/aigate"
	"engram-be/pkg/embedding"
	"engram-be/pkg/engrammer"
	"engram-be/pkg/enrichment"
	"engram-be/pkg/llm/factory"

	pktNats "engram-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	NoteController       controller.INoteController
	RelationController   controller.IRelationController
	EnrichmentController controller.IEnrichmentController
	EngrammerController  controller.IEngrammerController

	// Background Services (Exposed for main.go to run)
	EmbeddingWorker *worker.EmbeddingWorker
	InsightWorker   *worker.InsightWorker
	EventService    service.IEventService

	// WebSockets
	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	eventLogger := logger.NewIsolatedLogger(cfg.App.EventLogFilePath)

	// 2. Event Bus (in-process wake-up topic)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	enrichmentClient := enrichment.NewAIClient(embeddingProvider, llmProvider)

	// 4. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		natsSub = nil
	}

	var rdb *redis.Client
	if opts, err := redis.ParseURL(cfg.App.RedisURL); err == nil {
		rdb = redis.NewClient(opts)
	} else {
		log.Printf("[WARN] Invalid Redis URL, continuing without Redis: %v", err)
	}

	// 5. AI Gate (shared busy flag for insight worker + engrammer engine)
	var gate *aigate.Gate
	if cfg.Engrammer.UseSharedGate && rdb != nil {
		gate = aigate.NewShared(rdb)
	} else {
		gate = aigate.New()
	}

	// 6. Engrammer Engine
	var checkpointer engrammer.Checkpointer = implementation.NewCheckpointRepository(db)
	if natsPub != nil {
		checkpointer = service.NewEventingCheckpointer(checkpointer, natsPub)
	}
	runRepo := memory.NewRunRepository()
	retriever := service.NewNoteContextRetriever(uowFactory, embeddingProvider)
	reflector := engrammer.NewReflectorNode(llmProvider, retriever)
	graph := engrammer.NewGraph(reflector)
	engine := engrammer.NewEngine(graph, checkpointer, runRepo, gate, sysLogger)

	// 7. Services
	publisherService := service.NewPublisherService(cfg.Keys.EmbedNoteTopic, pubSub)
	noteService := service.NewNoteService(uowFactory, publisherService, embeddingProvider, natsPub, sysLogger)
	relationService := service.NewRelationService(uowFactory)
	enrichmentService := service.NewEnrichmentService(enrichmentClient)
	engrammerService := service.NewEngrammerService(engine, uowFactory)

	// 8. Workers
	embeddingWorker := worker.NewEmbeddingWorker(
		uowFactory,
		enrichmentClient,
		natsPub,
		pubSub,
		cfg.Keys.EmbedNoteTopic,
		cfg.Worker.EmbeddingInterval,
		cfg.Worker.BatchSize,
		sysLogger,
	)
	insightWorker := worker.NewInsightWorker(
		uowFactory,
		enrichmentClient,
		gate,
		natsPub,
		cfg.Worker.InsightInterval,
		cfg.Worker.BatchSize,
		sysLogger,
	)

	// 9. WebSocket Hub + event bridge
	hub := websocket.NewHub(rdb, eventLogger)
	var eventService service.IEventService
	if natsSub != nil {
		eventService = service.NewEventService(natsSub, hub, eventLogger)
	}

	return &Container{
		NoteController:       controller.NewNoteController(noteService),
		RelationController:   controller.NewRelationController(relationService),
		EnrichmentController: controller.NewEnrichmentController(enrichmentService),
		EngrammerController:  controller.NewEngrammerController(engrammerService),
		EmbeddingWorker:      embeddingWorker,
		InsightWorker:        insightWorker,
		EventService:         eventService,
		WebSocketHub:         hub,
	}
}
