package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backend selectors.
const (
	StorageJSON  = "json"
	StorageMongo = "mongo"
	StorageSQL   = "sql"
)

// Revocation store selectors.
const (
	RevocationMemory = "memory"
	RevocationDynamo = "dynamodb"
)

// Publisher backend selectors.
const (
	PublishLocal = "local"
	PublishS3    = "s3"
)

type Config struct {
	Port     int
	LogDir   string
	LogLevel string

	// Operator credential: either the plain secret or its bcrypt hash.
	// At least one must be set or login fails closed.
	AdminPassword     string
	AdminPasswordHash string

	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	Storage string
	DataDir string
	Mongo   *MongoConfig
	SQL     *SQLConfig

	Revocation       string
	RevocationTable  string
	RevocationRegion string

	Publish   string
	PublicDir string
	S3        *S3Config
}

type S3Config struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Load reads configuration from the environment, after loading a local
// .env file when one exists.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              envInt("PORT", 3000),
		LogDir:            envString("LOG_DIR", "logs"),
		LogLevel:          envString("LOG_LEVEL", "info"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		AccessTTL:         envDuration("JWT_EXPIRES_IN", 2*time.Hour),
		RefreshTTL:        envDuration("REFRESH_TOKEN_EXPIRES_IN", 7*24*time.Hour),
		Storage:           envString("STORAGE_BACKEND", StorageJSON),
		DataDir:           envString("DATA_DIR", "data"),
		Revocation:        envString("REVOCATION_STORE", RevocationMemory),
		RevocationTable:   envString("REVOCATION_TABLE", "revoked-tokens"),
		RevocationRegion:  envString("AWS_REGION", "us-east-1"),
		Publish:           envString("PUBLISH_BACKEND", PublishLocal),
		PublicDir:         envString("PUBLIC_DIR", "public"),
	}

	if cfg.Storage == StorageMongo {
		cfg.Mongo = NewMongoConfig().
			WithHost(envString("MONGO_HOST", "localhost"), envInt("MONGO_PORT", 27017)).
			WithCredentials(os.Getenv("MONGO_USERNAME"), os.Getenv("MONGO_PASSWORD")).
			WithDatabase(envString("MONGO_DATABASE", "blogboot"))
	}
	if cfg.Storage == StorageSQL {
		cfg.SQL = NewSQLConfig().
			WithDriver("postgres").
			WithHost(envString("SQL_HOST", "localhost"), envInt("SQL_PORT", 5432)).
			WithCredentials(os.Getenv("SQL_USERNAME"), os.Getenv("SQL_PASSWORD")).
			WithDatabase(envString("SQL_DATABASE", "blogboot"))
	}
	if cfg.Publish == PublishS3 {
		cfg.S3 = &S3Config{
			Bucket:    os.Getenv("S3_BUCKET"),
			Region:    envString("AWS_REGION", "us-east-1"),
			AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		}
	}
	return cfg
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}
