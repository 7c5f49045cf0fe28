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
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Ipfs     IpfsConfig
	Pipeline PipelineConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	UploadDir          string
}

type DatabaseConfig struct {
	Connection   string
	MaxOpenConns int
	MaxIdleConns int
}

type AIConfig struct {
	EmbeddingProvider   string // "ollama" or "openai"
	EmbeddingDimensions int
	OllamaBaseURL       string
	OllamaModel         string
	OpenAIAPIKey        string
	OpenAIModel         string
}

type IpfsConfig struct {
	APIURLs     []string
	GatewayURLs []string
	MaxRetries  int
	RetryDelay  time.Duration
}

type PipelineConfig struct {
	TopicName       string
	WorkerCount     int
	MaxChunkSize    int
	ChunkOverlap    int
	MaxFileSize     int64
	BatchSizeLimit  int
	ProcessTimeout  time.Duration
	EmbedBatchLimit int // max concurrent embedding calls per document
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/pipeline.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
		},
		Database: DatabaseConfig{
			Connection:   getEnv("DB_CONNECTION_STRING", ""),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		},
		Ai: AIConfig{
			EmbeddingProvider:   getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingDimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 768),
			OllamaBaseURL:       getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:         getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:         getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-ada-002"),
		},
		Ipfs: IpfsConfig{
			APIURLs: getEnvAsSlice("IPFS_API_URLS", []string{
				"https://ipfs.infura.io:5001/api/v0",
				"https://ipfs.io:5001/api/v0",
				"https://gateway.pinata.cloud:5001/api/v0",
			}),
			GatewayURLs: getEnvAsSlice("IPFS_GATEWAY_URLS", []string{
				"https://ipfs.io",
				"https://gateway.pinata.cloud",
				"https://cloudflare-ipfs.com",
				"https://dweb.link",
			}),
			MaxRetries: getEnvAsInt("IPFS_MAX_RETRIES", 3),
			RetryDelay: time.Duration(getEnvAsInt("IPFS_RETRY_DELAY_MS", 1000)) * time.Millisecond,
		},
		Pipeline: PipelineConfig{
			TopicName:       getEnv("PROCESS_DOCUMENT_TOPIC_NAME", "PROCESS_DOCUMENT"),
			WorkerCount:     getEnvAsInt("PIPELINE_WORKER_COUNT", 4),
			MaxChunkSize:    getEnvAsInt("CHUNK_MAX_SIZE", 500),
			ChunkOverlap:    getEnvAsInt("CHUNK_OVERLAP", 20),
			MaxFileSize:     int64(getEnvAsInt("MAX_FILE_SIZE_BYTES", 50*1024*1024)),
			BatchSizeLimit:  getEnvAsInt("BATCH_SIZE_LIMIT", 100),
			ProcessTimeout:  time.Duration(getEnvAsInt("PROCESS_TIMEOUT_MINUTES", 30)) * time.Minute,
			EmbedBatchLimit: getEnvAsInt("EMBED_CONCURRENCY", 4),
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

func getEnvAsSlice(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	parts := strings.Split(strValue, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}
