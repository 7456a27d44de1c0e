package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string

	HFAPIKey     string
	HFBaseURL    string
	HFModel      string
	HFEmbedModel string

	PineconeAPIKey     string
	PineconeControlURL string
	PineconeIndexName  string

	RetrievalTopK    int
	MaxNewTokens     int
	DefaultLocale    string
	GeoIPDBPath      string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	RateLimitFreePerMin  int
	RateLimitBasicPerMin int
	RateLimitProPerMin   int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		HFAPIKey:     os.Getenv("HUGGINGFACE_API_KEY"),
		HFBaseURL:    getEnv("HUGGINGFACE_BASE_URL", "https://api-inference.huggingface.co"),
		HFModel:      getEnv("HUGGINGFACE_MODEL", "Qwen/Qwen-7B-Chat"),
		HFEmbedModel: getEnv("HUGGINGFACE_EMBED_MODEL", "Qwen3-Embedding-8B"),

		PineconeAPIKey:     os.Getenv("PINECONE_API_KEY"),
		PineconeControlURL: getEnv("PINECONE_CONTROL_URL", "https://api.pinecone.io"),
		PineconeIndexName:  os.Getenv("PINECONE_INDEX_NAME"),

		RetrievalTopK:    getEnvInt("RETRIEVAL_TOP_K", 5),
		MaxNewTokens:     getEnvInt("GENERATION_MAX_NEW_TOKENS", 600),
		DefaultLocale:    getEnv("DEFAULT_LOCALE", "en"),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),

		RateLimitFreePerMin:  getEnvInt("RATE_LIMIT_FREE_PER_MINUTE", 5),
		RateLimitBasicPerMin: getEnvInt("RATE_LIMIT_BASIC_PER_MINUTE", 20),
		RateLimitProPerMin:   getEnvInt("RATE_LIMIT_PRO_PER_MINUTE", 50),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.PineconeIndexName == "" {
		return nil, fmt.Errorf("PINECONE_INDEX_NAME is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
