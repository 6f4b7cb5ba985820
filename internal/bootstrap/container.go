package bootstrap

import (
	"context"
	"fmt"
	"time"

	"ai-docqa-be/internal/config"
	"ai-docqa-be/internal/controller"
	"ai-docqa-be/internal/handler"
	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/internal/pkg/ratelimit"
	"ai-docqa-be/internal/pkg/serverutils"
	"ai-docqa-be/internal/repository/implementation"
	"ai-docqa-be/internal/repository/unitofwork"
	"ai-docqa-be/internal/service"
	"ai-docqa-be/pkg/embedding"
	"ai-docqa-be/pkg/embedding/jina"
	"ai-docqa-be/pkg/events"
	"ai-docqa-be/pkg/llm/factory"
	pktNats "ai-docqa-be/pkg/nats"
	"ai-docqa-be/pkg/rag/chunker"
	"ai-docqa-be/pkg/rag/classifier"
	"ai-docqa-be/pkg/rag/evaluator"
	"ai-docqa-be/pkg/rag/generator"
	"ai-docqa-be/pkg/rag/pipeline"
	"ai-docqa-be/pkg/rag/retriever"
	"ai-docqa-be/pkg/retry"
	"ai-docqa-be/pkg/vectorindex"
	"ai-docqa-be/pkg/vectorindex/qdrant"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const bootstrapModule = "BOOTSTRAP"

type Container struct {
	// Controllers
	DocumentController controller.IDocumentController
	ChatController     controller.IChatController
	FeedbackController controller.IFeedbackController

	// Background services, started by main
	ConsumerService service.IConsumerService
	EventHandler    *handler.DomainEventHandler
	EventSubscriber *pktNats.Subscriber

	// Exposed for the CLI
	Pipeline        *pipeline.Pipeline
	DocumentService service.IDocumentService
	ChatService     service.IChatService

	Logger logger.ILogger

	closers []func()
}

// Engine is the RAG core built from configuration, without HTTP or queues.
type Engine struct {
	Registry *embedding.Registry
	Index    vectorindex.Index
	Chunker  *chunker.Chunker
	Pipeline *pipeline.Pipeline
	closers  []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	engine, err := NewEngine(db, cfg, sysLogger)
	if err != nil {
		return nil, err
	}
	c := &Container{Logger: sysLogger, closers: engine.closers}

	// 2. Ingestion queue
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		logger.NewWatermillAdapter(sysLogger),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Domain events; NATS is optional
	var eventPublisher events.Publisher = events.NopPublisher{}
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn(bootstrapModule, "NATS publisher unavailable, domain events disabled", map[string]interface{}{"error": err.Error()})
	} else {
		eventPublisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}
	if natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL); err != nil {
		sysLogger.Warn(bootstrapModule, "NATS subscriber unavailable", map[string]interface{}{"error": err.Error()})
	} else {
		c.EventSubscriber = natsSub
		c.EventHandler = handler.NewDomainEventHandler(logger.NewIsolatedLogger("logs/events.log"))
		c.closers = append(c.closers, natsSub.Close)
	}

	// 4. Services
	publisherService := service.NewPublisherService(cfg.App.ProcessTopic, pubSub)
	documentService := service.NewDocumentService(
		uowFactory,
		engine.Registry,
		engine.Index,
		engine.Chunker,
		publisherService,
		eventPublisher,
		service.DocumentServiceConfig{EmbeddingBatchSize: cfg.Rag.EmbeddingBatchSize},
		sysLogger,
	)
	chatService := service.NewChatService(
		uowFactory,
		engine.Pipeline,
		engine.Registry,
		eventPublisher,
		service.ChatServiceConfig{HistoryWindow: cfg.Rag.HistoryWindow, TopK: cfg.Rag.TopK},
		sysLogger,
	)
	feedbackService := service.NewFeedbackService(uowFactory, sysLogger)

	c.ConsumerService = service.NewConsumerService(pubSub, cfg.App.ProcessTopic, documentService, sysLogger)
	c.Pipeline = engine.Pipeline
	c.DocumentService = documentService
	c.ChatService = chatService

	// 5. HTTP
	auth := serverutils.NewJwtMiddleware(cfg.Keys.JwtSecret)
	askLimit := newAskLimiter(cfg, sysLogger, c)

	c.DocumentController = controller.NewDocumentController(documentService, auth)
	c.ChatController = controller.NewChatController(chatService, auth, askLimit)
	c.FeedbackController = controller.NewFeedbackController(feedbackService, auth)

	return c, nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

// newAskLimiter returns nil when rate limiting is disabled. An unreachable
// redis still yields a limiter; the middleware lets requests through while
// the limiter errors.
func newAskLimiter(cfg *config.Config, log logger.ILogger, c *Container) fiber.Handler {
	if !cfg.RateLimit.Enabled {
		return nil
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Warn(bootstrapModule, "Failed to parse Redis URL, using it as address", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)
	c.closers = append(c.closers, func() { _ = rdb.Close() })

	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn(bootstrapModule, "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
	}

	limiter := ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	return serverutils.RateLimitMiddleware(limiter, "ask", log)
}

// NewEngine builds the embedding registry, vector index and query pipeline.
func NewEngine(db *gorm.DB, cfg *config.Config, sysLogger logger.ILogger) (*Engine, error) {
	ragLogger := logger.NewIsolatedLogger(cfg.App.LLMLogFilePath)
	e := &Engine{}

	registry, err := NewEmbeddingRegistry(cfg, sysLogger)
	if err != nil {
		return nil, err
	}
	e.Registry = registry

	index, closeIndex, err := NewVectorIndex(db, cfg, sysLogger)
	if err != nil {
		return nil, err
	}
	e.Index = index
	if closeIndex != nil {
		e.closers = append(e.closers, closeIndex)
	}

	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  firstNonEmpty(cfg.Ai.LLMBaseURL, cfg.Ai.OllamaBaseURL),
		APIKey:   llmAPIKey(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	sysLogger.Info(bootstrapModule, "LLM provider ready", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})

	graderModel := firstNonEmpty(cfg.Ai.GraderModel, cfg.Ai.LLMModel)
	cls := classifier.New(llmProvider, graderModel, ragLogger)

	scorer := implementation.NewFeedbackScoreRepository(db)
	chunkSource := implementation.NewDocumentChunkRepository(db)
	ret := retriever.New(cls, registry, index, scorer, chunkSource, retriever.Config{
		TopK:            cfg.Rag.TopK,
		OverFetchFactor: cfg.Rag.OverFetchFactor,
		FeedbackWeight:  cfg.Rag.FeedbackWeight,
	}, ragLogger)

	gen := generator.New(llmProvider, generator.Config{
		Timeout:     cfg.Rag.GenerationTimeout,
		MaxAttempts: uint(max(cfg.Rag.GenerationRetries, 1)),
	}, ragLogger)
	eval := evaluator.New(llmProvider, graderModel, ragLogger)

	e.Pipeline = pipeline.New(ret, gen, eval, pipeline.Config{
		Timeout:           cfg.Rag.QueryTimeout,
		Temperature:       cfg.Rag.Temperature,
		MaxTokens:         cfg.Rag.MaxTokens,
		Model:             cfg.Ai.LLMModel,
		EvaluationEnabled: cfg.Rag.EvaluationEnabled,
	}, ragLogger)

	e.Chunker = chunker.New(chunker.Config{Size: cfg.Rag.ChunkSize, Overlap: cfg.Rag.ChunkOverlap})
	return e, nil
}

// NewEmbeddingRegistry registers every enabled provider wrapped with retry
// and a query-embedding cache.
func NewEmbeddingRegistry(cfg *config.Config, log logger.ILogger) (*embedding.Registry, error) {
	var providers []embedding.Provider
	for _, kind := range cfg.Ai.EmbeddingProviders {
		var p embedding.Provider
		switch kind {
		case "ollama":
			op, err := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbeddingModel, cfg.Ai.OllamaEmbeddingDims)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize ollama embeddings: %w", err)
			}
			p = op
		case "gemini":
			p = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		case "jina":
			p = jina.NewJinaProvider(cfg.Keys.Jina)
		case "mock":
			p = embedding.NewMockEmbedder("mock", 64)
		default:
			return nil, fmt.Errorf("unknown embedding provider kind %q", kind)
		}

		p = embedding.WithRetry(p, retry.DefaultPolicy(), log)
		if cfg.Rag.QueryCacheTTL > 0 {
			p = embedding.WithCache(p, cfg.Rag.QueryCacheTTL)
		}
		providers = append(providers, p)
		log.Info(bootstrapModule, "Embedding provider registered", map[string]interface{}{
			"provider":   p.Name(),
			"dimensions": p.Dimensions(),
		})
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no embedding providers configured")
	}

	registry := embedding.NewRegistry(cfg.Ai.DefaultEmbeddingProvider, providers...)
	if _, err := registry.Get(""); err != nil {
		return nil, fmt.Errorf("default embedding provider: %w", err)
	}
	return registry, nil
}

// NewVectorIndex selects the configured backend. The returned close func may be nil.
func NewVectorIndex(db *gorm.DB, cfg *config.Config, log logger.ILogger) (vectorindex.Index, func(), error) {
	switch cfg.VectorIndex.Backend {
	case "", "pgvector":
		return implementation.NewChunkVectorIndex(db), nil, nil
	case "qdrant":
		idx, err := qdrant.New(qdrant.Config{
			Host:             cfg.VectorIndex.QdrantHost,
			Port:             cfg.VectorIndex.QdrantPort,
			APIKey:           cfg.VectorIndex.QdrantAPIKey,
			UseTLS:           cfg.VectorIndex.QdrantUseTLS,
			CollectionPrefix: cfg.VectorIndex.CollectionPrefix,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return idx, func() { _ = idx.Close() }, nil
	case "memory":
		log.Warn(bootstrapModule, "Using in-memory vector index; vectors are lost on restart", nil)
		return vectorindex.NewMemoryIndex(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown vector index backend %q", cfg.VectorIndex.Backend)
	}
}

func llmAPIKey(cfg *config.Config) string {
	switch cfg.Ai.LLMProvider {
	case "gemini":
		return cfg.Keys.GoogleGemini
	case "huggingface":
		return cfg.Keys.HuggingFace
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
