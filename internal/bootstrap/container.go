package bootstrap

import (
	"context"
	"log"

	"veritas-data-pipeline/internal/config"
	"veritas-data-pipeline/internal/controller"
	"veritas-data-pipeline/internal/model"
	"veritas-data-pipeline/internal/pkg/apperror"
	"veritas-data-pipeline/internal/pkg/logger"
	"veritas-data-pipeline/internal/pkg/progress"
	"veritas-data-pipeline/internal/repository/unitofwork"
	"veritas-data-pipeline/internal/service"
	"veritas-data-pipeline/pkg/embedding"
	"veritas-data-pipeline/pkg/extract"
	"veritas-data-pipeline/pkg/ipfs"

	pktNats "veritas-data-pipeline/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	DocumentController controller.IDocumentController
	SearchController   controller.ISearchController
	HealthController   controller.IHealthController

	// Background Services (Exposed for main.go to run)
	ConsumerService    service.IConsumerService
	MaintenanceService service.IMaintenanceService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus (in-process work queue)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Embedding Provider based on Config
	embeddingProvider, err := newEmbeddingProvider(cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] Using Embedding Provider: %s (%d dimensions)", embeddingProvider.Name(), embeddingProvider.Dimensions())

	// 4. Content Store
	ipfsClient, err := ipfs.NewClient(ipfs.Config{
		APIURLs:     cfg.Ipfs.APIURLs,
		GatewayURLs: cfg.Ipfs.GatewayURLs,
		MaxRetries:  cfg.Ipfs.MaxRetries,
		RetryDelay:  cfg.Ipfs.RetryDelay,
	})
	if err != nil {
		return nil, err
	}

	extractRegistry := extract.NewRegistry()

	// 5. Infrastructure
	// NATS (domain events; degraded mode without it)
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}

	// Redis (progress channel; in-memory fallback)
	tracker := newProgressTracker(cfg)

	metricsService := service.NewMetricsService()

	// 6. Services
	publisherService := service.NewPublisherService(pubSub, cfg.Pipeline.TopicName)

	ingestionService := service.NewIngestionService(
		uowFactory,
		publisherService,
		ipfsClient,
		extractRegistry,
		tracker,
		natsPub,
		metricsService,
		cfg.App.UploadDir,
		cfg.Pipeline.MaxFileSize,
		cfg.Pipeline.BatchSizeLimit,
	)

	consumerService, err := service.NewConsumerService(
		pubSub,
		service.ConsumerOptions{
			TopicName:        cfg.Pipeline.TopicName,
			WorkerCount:      cfg.Pipeline.WorkerCount,
			MaxChunkSize:     cfg.Pipeline.MaxChunkSize,
			ChunkOverlap:     cfg.Pipeline.ChunkOverlap,
			ProcessTimeout:   cfg.Pipeline.ProcessTimeout,
			EmbedConcurrency: cfg.Pipeline.EmbedBatchLimit,
		},
		uowFactory,
		embeddingProvider,
		ipfsClient,
		extractRegistry,
		tracker,
		natsPub,
		metricsService,
	)
	if err != nil {
		return nil, err
	}

	searchService := service.NewSearchService(uowFactory, embeddingProvider)
	maintenanceService := service.NewMaintenanceService(uowFactory, embeddingProvider, ipfsClient, tracker)

	// 7. Controllers
	return &Container{
		DocumentController: controller.NewDocumentController(ingestionService),
		SearchController:   controller.NewSearchController(searchService),
		HealthController:   controller.NewHealthController(metricsService, ipfsClient),
		ConsumerService:    consumerService,
		MaintenanceService: maintenanceService,
		Logger:             sysLogger,
	}, nil
}

// newEmbeddingProvider selects the provider once at startup and verifies its
// dimensionality against the deployment config. A mismatch would silently
// corrupt the vector column, so it is fatal.
func newEmbeddingProvider(cfg *config.Config) (embedding.Provider, error) {
	var provider embedding.Provider
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		provider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel, cfg.Ai.EmbeddingDimensions)
	case "openai":
		if cfg.Ai.OpenAIAPIKey == "" {
			return nil, apperror.Configuration("OPENAI_API_KEY is required for the openai embedding provider")
		}
		provider = embedding.NewOpenAIProvider(cfg.Ai.OpenAIAPIKey, cfg.Ai.OpenAIModel, cfg.Ai.EmbeddingDimensions)
	default:
		return nil, apperror.Configuration("unknown embedding provider: " + cfg.Ai.EmbeddingProvider)
	}

	if provider.Dimensions() != model.EmbeddingDim {
		return nil, apperror.Configuration("embedding provider dimensionality does not match the vector column")
	}
	return provider, nil
}

func newProgressTracker(cfg *config.Config) progress.Tracker {
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Progress tracking falls back to memory", err)
		return progress.NewMemoryTracker()
	}
	return progress.NewRedisTracker(rdb)
}
