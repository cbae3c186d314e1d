package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	JWTSecret   string

	// WalletPath is the badger directory holding anonymous visitor wallets.
	WalletPath string
	// StoragePath is the filesystem root for persisted artifacts.
	StoragePath string
	GeoIPDBPath string

	GeminiAPIKey     string
	GeminiModel      string
	GeminiVideoModel string
	GeminiBaseURL    string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	CORSOrigins []string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int

	// Credit policy. Costs are fixed per operation; the visitor grant is
	// issued once per anonymous identity; allotments renew monthly.
	CostImage          int
	CostVideo          int
	CostPrompt         int
	CostChat           int
	VisitorGrant       int
	FreeMonthlyCredits int
	ProMonthlyCredits  int

	// Simulated foreign-turn wait bounds for the visitor queue.
	QueueWaitMin time.Duration
	QueueWaitMax time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		WalletPath:  getEnv("WALLET_PATH", "./data/wallets"),
		StoragePath: getEnv("STORAGE_PATH", "./storage"),
		GeoIPDBPath: os.Getenv("GEOIP_DB_PATH"),

		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),
		GeminiVideoModel: getEnv("GEMINI_VIDEO_MODEL", "veo-3.0-generate-001"),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),

		CostImage:          getEnvInt("CREDIT_COST_IMAGE", 3),
		CostVideo:          getEnvInt("CREDIT_COST_VIDEO", 10),
		CostPrompt:         getEnvInt("CREDIT_COST_PROMPT", 1),
		CostChat:           getEnvInt("CREDIT_COST_CHAT", 1),
		VisitorGrant:       getEnvInt("VISITOR_CREDIT_GRANT", 15),
		FreeMonthlyCredits: getEnvInt("FREE_MONTHLY_CREDITS", 30),
		ProMonthlyCredits:  getEnvInt("PRO_MONTHLY_CREDITS", 300),

		QueueWaitMin: time.Second * time.Duration(getEnvInt("QUEUE_WAIT_MIN_SECONDS", 8)),
		QueueWaitMax: time.Second * time.Duration(getEnvInt("QUEUE_WAIT_MAX_SECONDS", 15)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.QueueWaitMax < cfg.QueueWaitMin {
		return nil, fmt.Errorf("QUEUE_WAIT_MAX_SECONDS must be >= QUEUE_WAIT_MIN_SECONDS")
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

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
