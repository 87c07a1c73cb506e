package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers for the photo aggregate.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"
)

type Config struct {
	LogMode string

	StoreDriver string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	MongoURI      string
	MongoDatabase string

	// RedisURL is optional. When empty, fanout runs inline and the photo
	// index cache is disabled.
	RedisURL    string
	WorkerCount int

	ServerPort string

	JWTSecret string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string

	DefaultPageSize             int
	DefaultNotificationPageSize int
	MaxPageSize                 int
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	storeDriver := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_DRIVER")))
	switch storeDriver {
	case StoreDriverPostgres, StoreDriverMongo, StoreDriverMemory:
	case "":
		storeDriver = StoreDriverPostgres
	default:
		log.Printf("Unknown STORE_DRIVER %q, falling back to %s", storeDriver, StoreDriverPostgres)
		storeDriver = StoreDriverPostgres
	}

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}

	sslMode := os.Getenv("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "require"
	}

	mongoDatabase := os.Getenv("MONGO_DATABASE")
	if mongoDatabase == "" {
		mongoDatabase = "photoshare"
	}

	return &Config{
		LogMode: logMode,

		StoreDriver: storeDriver,

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  sslMode,

		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: mongoDatabase,

		RedisURL:    os.Getenv("REDIS_URL"),
		WorkerCount: intFromEnv("WORKER_COUNT", 2),

		ServerPort: serverPort,

		JWTSecret: os.Getenv("JWT_SECRET"),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),

		DefaultPageSize:             intFromEnv("DEFAULT_PAGE_SIZE", 5),
		DefaultNotificationPageSize: intFromEnv("DEFAULT_NOTIFICATION_PAGE_SIZE", 20),
		MaxPageSize:                 intFromEnv("MAX_PAGE_SIZE", 100),
	}, nil
}

// intFromEnv returns def when the variable is unset, malformed or not positive.
func intFromEnv(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
