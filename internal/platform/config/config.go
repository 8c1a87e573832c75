package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AdminUsername     string
	AdminPasswordHash string // bcrypt hash of the admin password

	AgentBaseURL        string
	GeneratorTimeout    time.Duration
	GenerationQueueName string
	GenerationLockKey   string
	GenerationLockTTL   time.Duration
	GenerationResultTTL time.Duration
	DefaultBatchSize    int
	RecentThemesLimit   int

	RateLimitRequests      int
	RateLimitWindowSeconds int
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort: getEnv("API_PORT", "8080"),
		JWTKey:  []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:  time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "codele_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),

		AgentBaseURL:        getEnv("AGENT_BASE_URL", "http://localhost:2024"),
		GeneratorTimeout:    time.Duration(getEnvAsInt("GENERATOR_TIMEOUT_SECONDS", 120)) * time.Second,
		GenerationQueueName: getEnv("GENERATION_QUEUE_NAME", "generation_plans_queue"),
		GenerationLockKey:   getEnv("GENERATION_LOCK_KEY", "generation_plan_lock"),
		GenerationLockTTL:   time.Duration(getEnvAsInt("GENERATION_LOCK_TTL_SECONDS", 1800)) * time.Second,
		GenerationResultTTL: time.Duration(getEnvAsInt("GENERATION_RESULT_TTL_HOURS", 24)) * time.Hour,
		DefaultBatchSize:    getEnvAsInt("DEFAULT_BATCH_SIZE", 7),
		RecentThemesLimit:   getEnvAsInt("RECENT_THEMES_LIMIT", 10),

		RateLimitRequests:      getEnvAsInt("RATE_LIMIT_REQUESTS", 10),
		RateLimitWindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
