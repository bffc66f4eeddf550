package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Load builds the configuration from environment variables, reading a .env
// file first when one is present. Every setting has a development default;
// only the JWT secret is required outside of development.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, using process environment")
	}

	cfg := &Config{
		Host:            getEnv("HOST", "0.0.0.0"),
		Port:            getEnv("PORT", "3001"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:     getEnv("MONGO_DB_NAME", "emotion_db"),
		VisionURL:       getEnv("VISION_URL", "http://localhost:5005"),
		VisionAPIKey:    getEnv("VISION_API_KEY", ""),
		AnalysisTimeout: getEnvDuration("ANALYSIS_TIMEOUT", 30*time.Second),
		MinSimilarity:   getEnvFloat("MIN_SIMILARITY", 0.85),
		GalleryDir:      getEnv("GALLERY_DIR", "user_images"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		TokenTTL:        getEnvDuration("TOKEN_TTL", time.Hour),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if _, err := url.Parse(cfg.VisionURL); err != nil {
		return nil, fmt.Errorf("invalid VISION_URL %q: %w", cfg.VisionURL, err)
	}
	if cfg.MinSimilarity <= 0 || cfg.MinSimilarity > 1 {
		return nil, fmt.Errorf("MIN_SIMILARITY must be in (0, 1], got %v", cfg.MinSimilarity)
	}
	if cfg.AnalysisTimeout <= 0 {
		return nil, fmt.Errorf("ANALYSIS_TIMEOUT must be positive, got %v", cfg.AnalysisTimeout)
	}

	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		logrus.Warnf("invalid float for %s: %q, using default %v", key, val, fallback)
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		logrus.Warnf("invalid duration for %s: %q, using default %v", key, val, fallback)
		return fallback
	}
	return parsed
}
