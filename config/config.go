package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	MongoURI      string
	MongoDB       string
	RedisAddr     string
	PostgresDSN   string // empty disables the import run ledger
	SessionSecret string
	SessionTTL    time.Duration
	CookieSecure  bool
	CacheTTL      time.Duration
	CommentQuota  int // comments per user per day
	VenuesXML     string
	EventsXML     string
	StaticDir     string
	LogLevel      string
	LoginRPS      float64
	LoginBurst    int
}

// Load reads .env when present and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          getEnv("PORT", "3000"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "cultural_events"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		PostgresDSN:   getEnv("PG_DSN", ""),
		SessionSecret: getEnv("SESSION_SECRET", "change-me"),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		CookieSecure:  getEnvAsBool("COOKIE_SECURE", false),
		CacheTTL:      getEnvAsDuration("CACHE_TTL", 30*time.Second),
		CommentQuota:  getEnvAsInt("COMMENT_QUOTA", 50),
		VenuesXML:     getEnv("VENUES_XML", "./venues.xml"),
		EventsXML:     getEnv("EVENTS_XML", "./events.xml"),
		StaticDir:     getEnv("STATIC_DIR", "./public"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LoginRPS:      getEnvAsFloat("LOGIN_RPS", 1),
		LoginBurst:    getEnvAsInt("LOGIN_BURST", 5),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
