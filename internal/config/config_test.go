package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpulse/classpulse/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3001", cfg.Addr())
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "emotion_db", cfg.MongoDBName)
	assert.Equal(t, "http://localhost:5005", cfg.VisionURL)
	assert.Equal(t, 30*time.Second, cfg.AnalysisTimeout)
	assert.InDelta(t, 0.85, cfg.MinSimilarity, 0.001)
	assert.Equal(t, "user_images", cfg.GalleryDir)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "9000")
	t.Setenv("MIN_SIMILARITY", "0.7")
	t.Setenv("ANALYSIS_TIMEOUT", "5s")
	t.Setenv("TOKEN_TTL", "24h")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr())
	assert.InDelta(t, 0.7, cfg.MinSimilarity, 0.001)
	assert.Equal(t, 5*time.Second, cfg.AnalysisTimeout)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadRejectsBadSimilarity(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "Zero", value: "0"},
		{name: "Negative", value: "-0.3"},
		{name: "Above one", value: "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "test-secret")
			t.Setenv("MIN_SIMILARITY", tt.value)

			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("MIN_SIMILARITY", "not-a-number")
	t.Setenv("ANALYSIS_TIMEOUT", "soon")

	cfg, err := config.Load()
	require.NoError(t, err, "unparseable optional values fall back to defaults")
	assert.InDelta(t, 0.85, cfg.MinSimilarity, 0.001)
	assert.Equal(t, 30*time.Second, cfg.AnalysisTimeout)
}
