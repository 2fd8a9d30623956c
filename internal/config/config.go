package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"catalog-service/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Cache and events
	RedisURL string
	NATSURL  string

	// Server
	Port        string
	Environment string

	// JWT
	JWTSecret string

	// Import / export
	ImportMaxFileBytes int
	ImportWorkers      int
	ExportWorkers      int
	JobSweepInterval   time.Duration
	JobStaleAfter      time.Duration
	JobListLimit       int

	// Per-seller limit on uploads and export requests; 0 disables it
	TransferRatePerMinute float64
	TransferRateBurst     int
}

func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	maxFileBytes, _ := strconv.Atoi(getEnv("IMPORT_MAX_FILE_BYTES", "10485760"))
	importWorkers, _ := strconv.Atoi(getEnv("IMPORT_WORKERS", "2"))
	exportWorkers, _ := strconv.Atoi(getEnv("EXPORT_WORKERS", "1"))
	jobListLimit, _ := strconv.Atoi(getEnv("JOB_LIST_LIMIT", "50"))
	transferRate, _ := strconv.ParseFloat(getEnv("TRANSFER_RATE_PER_MINUTE", "30"), 64)
	transferBurst, _ := strconv.Atoi(getEnv("TRANSFER_RATE_BURST", "5"))

	return &Config{
		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "catalog_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisURL: getEnv("REDIS_URL", ""),
		NATSURL:  getEnv("NATS_URL", ""),

		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", ""),

		ImportMaxFileBytes: maxFileBytes,
		ImportWorkers:      importWorkers,
		ExportWorkers:      exportWorkers,
		JobSweepInterval:   getDuration("JOB_SWEEP_INTERVAL", 5*time.Minute),
		JobStaleAfter:      getDuration("JOB_STALE_AFTER", 30*time.Minute),
		JobListLimit:       jobListLimit,

		TransferRatePerMinute: transferRate,
		TransferRateBurst:     transferBurst,
	}
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	var logLevel logger.LogLevel
	if cfg.IsProduction() {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		log.Printf("Warning: Auto-migration failed: %v", err)
	} else {
		log.Println("Database schema migration completed")
	}

	return db, nil
}

// Migrate creates or updates every catalog table
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Category{},
		&models.AttributeDefinition{},
		&models.AttributeUsage{},
		&models.Product{},
		&models.ImportJob{},
		&models.ExportJob{},
	)
}

// InitRedis connects to Redis. A nil client means caching is disabled.
func InitRedis(cfg *Config) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v", err)
		return nil
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching disabled)", err)
		_ = client.Close()
		return nil
	}
	log.Println("Connected to Redis")
	return client
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, "")); err == nil && d > 0 {
		return d
	}
	return defaultValue
}
