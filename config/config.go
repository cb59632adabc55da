package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

const (
	defaultFallbackThreshold   = 0.30
	defaultConfirmSimilarity   = 0.80
	defaultConfirmRepeat       = 3
	defaultTrackerExpirySecs   = 4
	defaultMaxSamples          = 20
	defaultTrainScoreThreshold = 0.90
	defaultTrainDupSimilarity  = 0.98
	defaultWriterQueueSize     = 200
	defaultRefreshMinutes      = 15
	defaultAuditRetentionDays  = 90
	defaultListenAddr          = ":8080"
)

type Config struct {
	// server
	ListenAddr     string
	AllowedOrigins []string

	// database DSN, e.g. user:pass@tcp(host:3306)/facetrack?parseTime=true
	DatabaseDSN string

	// admin session signing key
	JWTKey []byte

	// matcher settings
	FallbackThreshold float64

	// tracking session settings
	ConfirmSimilarity float64
	ConfirmRepeat     int
	TrackerExpiry     time.Duration

	// embedding bank settings
	MaxSamplesPerIdentity int

	// auto-trainer settings
	AutoTrainEnabled    bool
	TrainScoreThreshold float64
	TrainDupSimilarity  float64

	// attendance writer settings
	WriterQueueSize int

	// scheduled jobs
	EmbeddingRefreshInterval time.Duration
	AuditRetention           time.Duration
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvFloatOrDefault(envVar string, defaultVal float64) float64 {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %g. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvBoolOrDefault(envVar string, defaultVal bool) bool {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Invalid %s '%s'. Using default %t.", envVar, valStr, defaultVal)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		return Config{}, fmt.Errorf("DATABASE_DSN is required")
	}

	jwtKey := os.Getenv("JWT_KEY")
	if jwtKey == "" {
		return Config{}, fmt.Errorf("JWT_KEY is required")
	}

	cfg := Config{
		ListenAddr:     getEnvOrDefault("LISTEN_ADDR", defaultListenAddr),
		AllowedOrigins: []string{getEnvOrDefault("FRONTEND_ORIGIN", "http://localhost:3000")},
		DatabaseDSN:    dsn,
		JWTKey:         []byte(jwtKey),

		FallbackThreshold: getEnvFloatOrDefault("FALLBACK_THRESHOLD", defaultFallbackThreshold),

		ConfirmSimilarity: getEnvFloatOrDefault("CONFIRM_SIMILARITY", defaultConfirmSimilarity),
		ConfirmRepeat:     getEnvIntOrDefault("CONFIRM_REPEAT", defaultConfirmRepeat),
		TrackerExpiry:     time.Duration(getEnvIntOrDefault("TRACKER_EXPIRY_SECONDS", defaultTrackerExpirySecs)) * time.Second,

		MaxSamplesPerIdentity: getEnvIntOrDefault("MAX_SAMPLES_PER_IDENTITY", defaultMaxSamples),

		AutoTrainEnabled:    getEnvBoolOrDefault("AUTO_TRAIN_ENABLED", false),
		TrainScoreThreshold: getEnvFloatOrDefault("TRAIN_SCORE_THRESHOLD", defaultTrainScoreThreshold),
		TrainDupSimilarity:  getEnvFloatOrDefault("TRAIN_DUP_SIMILARITY", defaultTrainDupSimilarity),

		WriterQueueSize: getEnvIntOrDefault("WRITER_QUEUE_SIZE", defaultWriterQueueSize),

		EmbeddingRefreshInterval: time.Duration(getEnvIntOrDefault("EMBEDDING_REFRESH_MINUTES", defaultRefreshMinutes)) * time.Minute,
		AuditRetention:           time.Duration(getEnvIntOrDefault("AUDIT_RETENTION_DAYS", defaultAuditRetentionDays)) * 24 * time.Hour,
	}

	return cfg, nil
}
