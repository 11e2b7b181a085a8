package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

const (
	defaultMaxResumeWords     = 1500
	defaultUpcomingWindowDays = 120
	defaultWorkerConcurrency  = 4
	defaultVisibilitySeconds  = 1200
	defaultShutdownSeconds    = 30
)

// Config holds application configuration.
type Config struct {
	Port               string
	CORSAllowOrigin    []string
	ObjectStoreType    string
	LocalStoreDir      string
	AWSRegion          string
	S3Bucket           string
	S3Prefix           string
	SSEKMSKeyID        string
	LLMProvider        string
	LLMModel           string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	GeminiAPIKey       string
	MaxResumeWords     int
	QueueURL           string
	WorkerConcurrency  int
	VisibilitySeconds  int
	ShutdownSeconds    int
	GitHubToken        string
	GitHubAPIURL       string
	UpcomingWindowDays int
	BcryptCost         int
	DatabaseURL        string
	AutoMigrate        bool
	Env                string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	provider := normalizeProvider(getEnv("LLM_PROVIDER", "openai"))

	return Config{
		Port:               getEnv("PORT", "8080"),
		CORSAllowOrigin:    splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		ObjectStoreType:    normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:      getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:          getEnv("AWS_REGION", ""),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Prefix:           getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:        getEnv("SSE_KMS_KEY_ID", ""),
		LLMProvider:        provider,
		LLMModel:           getEnv("LLM_MODEL", defaultModel(provider)),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		MaxResumeWords:     getEnvInt("RESUME_MAX_WORDS", defaultMaxResumeWords),
		QueueURL:           strings.TrimSpace(getEnv("RA_SQS_QUEUE_URL", "")),
		WorkerConcurrency:  getEnvInt("RA_WORKER_CONCURRENCY", defaultWorkerConcurrency),
		VisibilitySeconds:  getEnvInt("RA_SQS_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilitySeconds),
		ShutdownSeconds:    getEnvInt("RA_SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownSeconds),
		GitHubToken:        getEnv("GITHUB_TOKEN", ""),
		GitHubAPIURL:       getEnv("GITHUB_API_URL", "https://api.github.com"),
		UpcomingWindowDays: getEnvInt("UPCOMING_WINDOW_DAYS", defaultUpcomingWindowDays),
		BcryptCost:         getEnvInt("BCRYPT_COST", 0),
		DatabaseURL:        dbURL,
		AutoMigrate:        getEnvBool("DB_AUTO_MIGRATE", env != "production"),
		Env:                env,
	}
}

// IsDevLike reports whether env allows in-memory fallbacks.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

// IsDevLikeEnv applies the same normalization as Load to a raw ENV value.
func IsDevLikeEnv(raw string) bool {
	return Config{Env: normalizeEnv(raw)}.IsDevLike()
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return val
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("config: %s invalid bool %q, using %t", key, raw, def)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "test":
		return "test"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "gemini", "google":
		return "gemini"
	case "none", "placeholder":
		return "none"
	default:
		return "openai"
	}
}

func defaultModel(provider string) string {
	if provider == "gemini" {
		return "gemini-2.5-flash"
	}
	return "gpt-4"
}
