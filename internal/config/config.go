package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Keys        APIKeys
	Ai          AIConfig
	Rag         RAGConfig
	VectorIndex VectorIndexConfig
	RateLimit   RateLimitConfig
	Tracing     TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	LLMLogFilePath     string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	ProcessTopic       string // watermill topic for async document processing
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	Jina         string
	HuggingFace  string
	JwtSecret    string
}

type AIConfig struct {
	EmbeddingProviders       []string // enabled provider kinds: "ollama", "gemini", "jina"
	DefaultEmbeddingProvider string   // kind used for new documents
	OllamaBaseURL            string
	OllamaEmbeddingModel     string
	OllamaEmbeddingDims      int
	LLMProvider              string // "ollama", "huggingface", "gemini"
	LLMModel                 string
	LLMBaseURL               string
	GraderModel              string // optional override for evaluation/classification calls
}

type RAGConfig struct {
	ChunkSize          int
	ChunkOverlap       int
	TopK               int
	OverFetchFactor    int
	FeedbackWeight     float64
	HistoryWindow      int
	Temperature        float64
	MaxTokens          int
	GenerationTimeout  time.Duration
	GenerationRetries  int
	QueryTimeout       time.Duration
	EmbeddingBatchSize int
	EvaluationEnabled  bool
	QueryCacheTTL      time.Duration
}

type VectorIndexConfig struct {
	Backend          string // "pgvector", "qdrant", "memory"
	QdrantHost       string
	QdrantPort       int
	QdrantAPIKey     string
	QdrantUseTLS     bool
	CollectionPrefix string
}

type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	SampleRatio float64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			LLMLogFilePath:     getEnv("LLM_LOG_FILE_PATH", "logs/llm_rag.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			ProcessTopic:       getEnv("PROCESS_DOCUMENT_TOPIC_NAME", "PROCESS_DOCUMENT"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
			JwtSecret:    getEnv("JWT_SECRET", ""),
		},
		Ai: AIConfig{
			EmbeddingProviders:       getEnvAsList("EMBEDDING_PROVIDERS", []string{"ollama"}),
			DefaultEmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:            getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbeddingModel:     getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			OllamaEmbeddingDims:      getEnvAsInt("OLLAMA_EMBEDDING_DIMENSIONS", 768),
			LLMProvider:              getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:                 getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:               getEnv("LLM_BASE_URL", ""),
			GraderModel:              getEnv("LLM_GRADER_MODEL", ""),
		},
		Rag: RAGConfig{
			ChunkSize:          getEnvAsInt("RAG_CHUNK_SIZE", 1500),
			ChunkOverlap:       getEnvAsInt("RAG_CHUNK_OVERLAP", 200),
			TopK:               getEnvAsInt("RAG_TOP_K", 5),
			OverFetchFactor:    getEnvAsInt("RAG_OVERFETCH_FACTOR", 3),
			FeedbackWeight:     getEnvAsFloat("RAG_FEEDBACK_WEIGHT", 0.1),
			HistoryWindow:      getEnvAsInt("RAG_HISTORY_WINDOW", 6),
			Temperature:        getEnvAsFloat("RAG_TEMPERATURE", 0.2),
			MaxTokens:          getEnvAsInt("RAG_MAX_TOKENS", 1024),
			GenerationTimeout:  getEnvAsDuration("RAG_GENERATION_TIMEOUT", 60*time.Second),
			GenerationRetries:  getEnvAsInt("RAG_GENERATION_RETRIES", 3),
			QueryTimeout:       getEnvAsDuration("RAG_QUERY_TIMEOUT", 120*time.Second),
			EmbeddingBatchSize: getEnvAsInt("RAG_EMBEDDING_BATCH_SIZE", 32),
			EvaluationEnabled:  getEnvAsBool("RAG_EVALUATION_ENABLED", true),
			QueryCacheTTL:      getEnvAsDuration("RAG_QUERY_CACHE_TTL", 10*time.Minute),
		},
		VectorIndex: VectorIndexConfig{
			Backend:          getEnv("VECTOR_INDEX_BACKEND", "pgvector"),
			QdrantHost:       getEnv("QDRANT_HOST", "localhost"),
			QdrantPort:       getEnvAsInt("QDRANT_PORT", 6334),
			QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
			QdrantUseTLS:     getEnvAsBool("QDRANT_USE_TLS", false),
			CollectionPrefix: getEnv("QDRANT_COLLECTION_PREFIX", "doc_chunks"),
		},
		RateLimit: RateLimitConfig{
			Enabled:  getEnvAsBool("RATE_LIMIT_ENABLED", true),
			Requests: getEnvAsInt("RATE_LIMIT_REQUESTS", 30),
			Window:   getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "ai-docqa-backend"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1.0),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
