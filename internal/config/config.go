package config

import (
	"os"
	"strconv"
	"time"
)

// Backend selector values for RepositoryBackend and StorageBackend.
const (
	RepositoryMongo    = "mongo"
	RepositoryPostgres = "postgres"
	StorageFS          = "fs"
	StorageS3          = "s3"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI        string
	Database   string
	TimeoutSec int
}

// Timeout returns the connect/ping timeout as a duration.
func (c MongoConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppEnv   string
	Port     string
	LogLevel string

	// UploadLimitMB bounds the accepted request body. Uploads stream to the
	// blob store in fixed chunks, so the limit exists to stop abusive
	// requests, not to protect memory.
	UploadLimitMB int

	// RepositoryBackend selects the metadata store: "mongo" (default) or
	// "postgres". StorageBackend selects the blob store: "fs" (default) or
	// "s3".
	RepositoryBackend string
	StorageBackend    string

	// StorageDir is the root directory of the fs blob store. It is created at
	// startup when missing.
	StorageDir string

	Database DatabaseConfig
	Mongo    MongoConfig
	MinIO    MinIOConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"), // default only for non-sensitive value
		LogLevel:          getEnv("LOG_LEVEL", ""),
		UploadLimitMB:     getEnvInt("UPLOAD_LIMIT_MB", 1024),
		RepositoryBackend: getEnv("REPOSITORY_BACKEND", RepositoryMongo),
		StorageBackend:    getEnv("STORAGE_BACKEND", StorageFS),
		StorageDir:        getEnv("STORAGE_DIR", "storage"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Mongo: MongoConfig{
			URI:        getEnv("MONGODB_URI", ""),
			Database:   getEnv("MONGODB_DATABASE", "liftdocs"),
			TimeoutSec: getEnvInt("MONGODB_TIMEOUT_SEC", 10),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
