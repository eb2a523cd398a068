// Package config provides centralized default values for the story reader
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		if _, err := os.Stat(".env"); err != nil {
			return
		}
		log.Println("Loading configuration overrides from .env file...")
		// godotenv.Load never overrides variables already present in the environment
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Failed to load .env file: %v", err)
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, maskSecret(key, val), maskSecret(key, defaultValue))
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	log.Printf("Config override: %s=%v", key, out)
	return out
}

func maskSecret(key, value string) string {
	upper := strings.ToUpper(key)
	if value == "" {
		return value
	}
	if strings.Contains(upper, "SECRET") || strings.Contains(upper, "PASSWORD") ||
		strings.Contains(upper, "TOKEN") || strings.Contains(upper, "API_KEY") {
		return "****"
	}
	return value
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	CORSAllowedOrigins []string

	// Database
	DatabasePath             string
	TursoDatabaseURL         string
	TursoAuthToken           string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	DBConnMaxIdleMinutes     int
	SlowQueryThreshold       time.Duration

	// Admin
	AdminPassword string
	JWTSecret     string
	AdminTokenTTL time.Duration

	// Media and integrations
	MediaPath         string
	ResendAPIKey      string
	ContactEmailTo    string
	ContactEmailFrom  string
	ContactFromName   string
	AssemblyAIAPIKey  string
	TranscribeTimeout time.Duration

	// Reader settings
	ReaderDefaultTextSize     string
	ReaderDefaultReadingSpeed string
	CommentsNested            bool
	CommentDisplayDepth       int
	CommentTreeMaxDepth       int

	// Engagement and authoring
	StoryCounterBumps bool
	MaxCommentLength  int
	MaxUserNameLength int
	SplitWordsPerPage int

	// Realtime
	LiveWriteTimeout time.Duration
	LivePingInterval time.Duration

	// Content cache
	ContentCacheTTL      time.Duration
	CacheCleanupInterval time.Duration
	CacheCleanupVerbose  bool

	// Logging
	LogLevel     string
	LogJSON      bool
	LogToFile    bool
	LogDirectory string
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)
	CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	})

	// Database
	DatabasePath = getEnvString("DATABASE_PATH", "db/storyreader.db")
	TursoDatabaseURL = getEnvString("TURSO_DATABASE_URL", "")
	TursoAuthToken = getEnvString("TURSO_AUTH_TOKEN", "")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	DBConnMaxIdleMinutes = getEnvInt("DB_CONN_MAX_IDLE_MINUTES", 3)
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 500*time.Millisecond)

	// Admin
	AdminPassword = getEnvString("ADMIN_PASSWORD", "")
	JWTSecret = getEnvString("JWT_SECRET", "")
	AdminTokenTTL = getEnvDuration("ADMIN_TOKEN_TTL", 24*time.Hour)

	// Media and integrations
	MediaPath = getEnvString("MEDIA_PATH", "media")
	ResendAPIKey = getEnvString("RESEND_API_KEY", "")
	ContactEmailTo = getEnvString("CONTACT_EMAIL_TO", "")
	ContactEmailFrom = getEnvString("CONTACT_EMAIL_FROM", "noreply@storyreader.local")
	ContactFromName = getEnvString("CONTACT_EMAIL_FROM_NAME", "Story Reader")
	AssemblyAIAPIKey = getEnvString("ASSEMBLYAI_API_KEY", "")
	TranscribeTimeout = getEnvDuration("TRANSCRIBE_TIMEOUT", 10*time.Minute)

	// Reader settings
	ReaderDefaultTextSize = getEnvString("READER_DEFAULT_TEXT_SIZE", "medium")
	ReaderDefaultReadingSpeed = getEnvString("READER_DEFAULT_READING_SPEED", "1x")
	CommentsNested = getEnvBool("COMMENTS_NESTED", true)
	CommentDisplayDepth = getEnvInt("COMMENT_DISPLAY_DEPTH", 2)
	CommentTreeMaxDepth = getEnvInt("COMMENT_TREE_MAX_DEPTH", 0)

	// Engagement and authoring
	StoryCounterBumps = getEnvBool("STORY_COUNTER_BUMPS", true)
	MaxCommentLength = getEnvInt("MAX_COMMENT_LENGTH", 5000)
	MaxUserNameLength = getEnvInt("MAX_USERNAME_LENGTH", 100)
	SplitWordsPerPage = getEnvInt("SPLIT_WORDS_PER_PAGE", 500)

	// Realtime
	LiveWriteTimeout = getEnvDuration("LIVE_WRITE_TIMEOUT", 10*time.Second)
	LivePingInterval = getEnvDuration("LIVE_PING_INTERVAL", 30*time.Second)

	// Content cache
	ContentCacheTTL = getEnvDuration("CONTENT_CACHE_TTL", 10*time.Minute)
	CacheCleanupInterval = getEnvDuration("CACHE_CLEANUP_INTERVAL", 5*time.Minute)
	CacheCleanupVerbose = getEnvBool("CACHE_CLEANUP_VERBOSE", false)

	// Logging
	LogLevel = getEnvString("LOG_LEVEL", "INFO")
	LogJSON = getEnvBool("LOG_JSON", true)
	LogToFile = getEnvBool("LOG_TO_FILE", false)
	LogDirectory = getEnvString("LOG_DIRECTORY", "logs")
}
