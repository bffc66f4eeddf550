package config

import "time"

// Config holds service settings loaded from the environment.
type Config struct {
	Host    string
	Port    string
	GinMode string

	MongoURI    string
	MongoDBName string

	// VisionURL is the base URL of the face analysis service.
	VisionURL string
	// VisionAPIKey authenticates calls to the analysis service.
	VisionAPIKey string
	// AnalysisTimeout bounds a single detect/recognize call.
	AnalysisTimeout time.Duration
	// MinSimilarity is the recognition acceptance threshold (0-1).
	MinSimilarity float64

	// GalleryDir is the root of the reference-image gallery, partitioned
	// as <role>/<gender>/<uuid>.jpg.
	GalleryDir string

	JWTSecret string
	TokenTTL  time.Duration

	LogLevel string
}
