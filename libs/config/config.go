// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Blob storage backends
const (
	BlobBackendLocal = "local"
	BlobBackendMinio = "minio"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Logging  LoggingConfig
	CORS     CORSConfig
	JWT      JWTConfig
	Blob     BlobConfig
	Session  SessionConfig

	// AdminsFile is the path of the approved-admins CSV
	AdminsFile string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port           int
	MaxUploadBytes int64
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
	// File enables rotated file output next to stdout when set
	File string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds JWT token configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// BlobConfig selects and configures the blob content backend
type BlobConfig struct {
	Backend  string
	BasePath string
	Minio    MinioConfig
}

// MinioConfig holds S3-compatible object storage settings
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// SessionConfig holds edit session expiry settings
type SessionConfig struct {
	TTL           time.Duration
	SweepSchedule string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	// Database configuration
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return nil, fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		return nil, fmt.Errorf("DB_PORT is required")
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.Database.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	// Server configuration
	serverPort, err := intFromEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.Server.Port = serverPort

	maxUploadMB, err := intFromEnv("MAX_UPLOAD_MB", 512)
	if err != nil {
		return nil, err
	}
	if maxUploadMB <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	cfg.Server.MaxUploadBytes = int64(maxUploadMB) << 20

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel
	cfg.Logging.File = os.Getenv("LOG_FILE")

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	cfg.JWT.Secret = jwtSecret

	accessExpiry, err := durationFromEnv("JWT_ACCESS_TOKEN_EXPIRY", time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWT.AccessTokenExpiry = accessExpiry

	// Approved admins
	adminsFile := os.Getenv("ADMINS_FILE")
	if adminsFile == "" {
		return nil, fmt.Errorf("ADMINS_FILE is required")
	}
	cfg.AdminsFile = adminsFile

	// Blob storage configuration
	if err := loadBlobConfig(&cfg.Blob); err != nil {
		return nil, err
	}

	// Edit session configuration
	sessionTTL, err := durationFromEnv("SESSION_TTL", 2*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.Session.TTL = sessionTTL

	cfg.Session.SweepSchedule = os.Getenv("SESSION_SWEEP_SCHEDULE")
	if cfg.Session.SweepSchedule == "" {
		cfg.Session.SweepSchedule = "@every 5m"
	}

	return cfg, nil
}

func loadBlobConfig(blob *BlobConfig) error {
	blob.Backend = strings.ToLower(os.Getenv("BLOB_BACKEND"))
	if blob.Backend == "" {
		blob.Backend = BlobBackendLocal
	}

	switch blob.Backend {
	case BlobBackendLocal:
		blob.BasePath = os.Getenv("BLOB_BASE_PATH")
		if blob.BasePath == "" {
			blob.BasePath = "./data/blobs"
		}
	case BlobBackendMinio:
		blob.Minio.Endpoint = os.Getenv("MINIO_ENDPOINT")
		if blob.Minio.Endpoint == "" {
			return fmt.Errorf("MINIO_ENDPOINT is required for the minio blob backend")
		}
		blob.Minio.AccessKey = os.Getenv("MINIO_ACCESS_KEY")
		blob.Minio.SecretKey = os.Getenv("MINIO_SECRET_KEY")
		blob.Minio.Bucket = os.Getenv("MINIO_BUCKET")
		if blob.Minio.Bucket == "" {
			blob.Minio.Bucket = "module-blobs"
		}
		useSSL := os.Getenv("MINIO_USE_SSL")
		if useSSL != "" {
			parsed, err := strconv.ParseBool(useSSL)
			if err != nil {
				return fmt.Errorf("invalid MINIO_USE_SSL: %w", err)
			}
			blob.Minio.UseSSL = parsed
		}
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", blob.Backend)
	}

	return nil
}

// parseOrigins splits a comma-separated origin list, allowing all origins when it is empty
func parseOrigins(raw string) []string {
	origins := []string{}
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func intFromEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func durationFromEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}
