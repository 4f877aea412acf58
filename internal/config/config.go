package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env           string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	ServerPort    string
	PublicBaseURL string
	JWT           JWTConfig
	Upload        UploadConfig
	Log           LogConfig
	RateLimit     RateLimitConfig
	BlobBreaker   BreakerConfig
}

// JWTConfig is handed to the token issuer; nothing else reads the secret.
type JWTConfig struct {
	AccessSecret    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type UploadConfig struct {
	Dir          string
	MaxSizeBytes int64
}

type LogConfig struct {
	File  string
	Level string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type BreakerConfig struct {
	MaxFailures uint32
	Timeout     time.Duration
}

// Load reads envFile (if present) and then the process environment.
// An empty envFile means ".env".
func Load(envFile string) *Config {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	port := getEnv("SERVER_PORT", "8080")

	return &Config{
		Env:           getEnv("APP_ENV", "development"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "task_user"),
		DBPassword:    getEnv("DB_PASSWORD", "task_pass"),
		DBName:        getEnv("DB_NAME", "task_db"),
		DBSSLMode:     getEnv("DB_SSLMODE", "disable"),
		ServerPort:    port,
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:"+port),
		JWT: JWTConfig{
			AccessSecret:    getEnv("JWT_ACCESS_SECRET", "supersecretkey"),
			AccessTokenTTL:  getDuration("JWT_ACCESS_TTL", 24*time.Hour),
			RefreshTokenTTL: getDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
		},
		Upload: UploadConfig{
			Dir:          getEnv("UPLOAD_DIR", "uploads"),
			MaxSizeBytes: int64(getInt("UPLOAD_MAX_SIZE_MB", 5)) * 1024 * 1024,
		},
		Log: LogConfig{
			File:  getEnv("LOG_FILE", "logs/task-api.log"),
			Level: getEnv("LOG_LEVEL", "info"),
		},
		RateLimit: RateLimitConfig{
			Requests: getInt("AUTH_RATE_LIMIT_REQUESTS", 10),
			Window:   getDuration("AUTH_RATE_LIMIT_WINDOW", 15*time.Minute),
		},
		BlobBreaker: BreakerConfig{
			MaxFailures: uint32(getInt("BLOB_BREAKER_MAX_FAILURES", 3)),
			Timeout:     getDuration("BLOB_BREAKER_TIMEOUT", 5*time.Second),
		},
	}
}

// IsProduction reports whether verbose error details must be hidden.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("⚠️  Invalid integer for %s=%q, using %d", key, value, defaultVal)
		return defaultVal
	}
	return n
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("⚠️  Invalid duration for %s=%q, using %s", key, value, defaultVal)
		return defaultVal
	}
	return d
}
