package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Supported square edges for generated images
var supportedImageSizes = map[int]bool{
	256:  true,
	512:  true,
	1024: true,
}

// DBConfig holds the optional history database configuration
type DBConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Config holds all configuration for the application
type Config struct {
	CredentialsPath  string
	OutputDir        string
	ImageSize        int
	APIBaseURL       string
	HistoryRetention time.Duration
	PruneSchedule    string
	// DB is nil when no history database is configured
	DB *DBConfig
}

// Load loads the configuration from environment variables.
// Variables found in the given dotenv files (".env" by default) are applied
// first; a missing file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading %s file: %w", f, err)
		}
	}

	config := &Config{
		CredentialsPath: getEnv("CREDENTIALS_PATH", "./config"),
		OutputDir:       getEnv("OUTPUT_DIR", "./output"),
		APIBaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		PruneSchedule:   getEnv("HISTORY_PRUNE_SCHEDULE", "0 0 * * * *"),
	}

	if size, err := strconv.Atoi(os.Getenv("IMAGE_SIZE")); err == nil {
		config.ImageSize = size
	} else {
		config.ImageSize = 512 // default value
	}

	if days, err := strconv.Atoi(os.Getenv("HISTORY_RETENTION_DAYS")); err == nil {
		config.HistoryRetention = time.Duration(days) * 24 * time.Hour
	} else {
		config.HistoryRetention = 30 * 24 * time.Hour // default value
	}

	if !supportedImageSizes[config.ImageSize] {
		return nil, fmt.Errorf("IMAGE_SIZE must be one of 256, 512 or 1024, got %d", config.ImageSize)
	}
	if config.HistoryRetention <= 0 {
		return nil, fmt.Errorf("HISTORY_RETENTION_DAYS must be positive")
	}

	db, err := loadDBConfig()
	if err != nil {
		return nil, err
	}
	config.DB = db

	return config, nil
}

// loadDBConfig returns nil when DB_HOST is unset
func loadDBConfig() (*DBConfig, error) {
	dbConfig := &DBConfig{
		Host:     os.Getenv("DB_HOST"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Database: os.Getenv("DB_NAME"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}
	if dbConfig.Host == "" {
		return nil, nil
	}

	// Parse database port
	if port, err := strconv.Atoi(os.Getenv("DB_PORT")); err == nil {
		dbConfig.Port = port
	} else {
		dbConfig.Port = 5432 // default PostgreSQL port
	}

	// Parse connection pool settings
	if maxOpenConns, err := strconv.Atoi(os.Getenv("DB_MAX_OPEN_CONNS")); err == nil {
		dbConfig.MaxOpenConns = maxOpenConns
	} else {
		dbConfig.MaxOpenConns = 5 // default value
	}

	if maxIdleConns, err := strconv.Atoi(os.Getenv("DB_MAX_IDLE_CONNS")); err == nil {
		dbConfig.MaxIdleConns = maxIdleConns
	} else {
		dbConfig.MaxIdleConns = 2 // default value
	}

	if connMaxLifetime, err := strconv.Atoi(os.Getenv("DB_CONN_MAX_LIFETIME")); err == nil {
		dbConfig.ConnMaxLifetime = time.Duration(connMaxLifetime) * time.Second
	} else {
		dbConfig.ConnMaxLifetime = 5 * time.Minute // default value
	}

	if dbConfig.User == "" {
		return nil, fmt.Errorf("DB_USER is required when DB_HOST is set")
	}
	if dbConfig.Database == "" {
		return nil, fmt.Errorf("DB_NAME is required when DB_HOST is set")
	}

	return dbConfig, nil
}

// HistoryEnabled reports whether a history database is configured
func (c *Config) HistoryEnabled() bool {
	return c.DB != nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	if c.DB == nil {
		return ""
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
