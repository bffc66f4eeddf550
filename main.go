package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/classpulse/classpulse/internal/api"
	"github.com/classpulse/classpulse/internal/config"
	"github.com/classpulse/classpulse/internal/engage"
	"github.com/classpulse/classpulse/internal/faceapi"
	"github.com/classpulse/classpulse/internal/identity"
	"github.com/classpulse/classpulse/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, disconnect, err := store.Connect(ctx, cfg.MongoURI, cfg.MongoDBName)
	cancel()
	if err != nil {
		logrus.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer disconnect()

	sessions := store.NewMongoSessionStore(db)
	users := store.NewMongoUserStore(db)
	gallery := store.NewGallery(cfg.GalleryDir)

	gateway := faceapi.NewClient(cfg.VisionURL, cfg.VisionAPIKey, cfg.MinSimilarity)
	resolver := identity.NewResolver(gateway, users)
	recorder := engage.NewRecorder(sessions)
	aggregator := engage.NewAggregator(sessions)
	pipeline := engage.NewPipeline(gateway, resolver, recorder, sessions, cfg.AnalysisTimeout)

	auth := api.NewAuth(users, cfg.JWTSecret, cfg.TokenTTL)
	handlers := api.NewHandlers(pipeline, aggregator, gateway, resolver, sessions, users, gallery, gateway, auth)
	router := api.NewRouter(handlers)

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		logrus.Infof("Emotion tracking backend listening on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Forced shutdown: %v", err)
	}
	logrus.Info("Server stopped")
}

func setupLogging(level string) {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Warnf("Unknown log level %q, defaulting to info", level)
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)
}
