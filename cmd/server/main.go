package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"chronoscope-go/internal/api"
	"chronoscope-go/internal/config"
	"chronoscope-go/internal/matcher"
	"chronoscope-go/internal/metrics"
	"chronoscope-go/internal/store"
	"chronoscope-go/internal/wiki"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the TOML configuration file")
	flag.Parse()

	appConfig, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Error loading config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	setupLogging(appConfig.Server.LogLevel)
	setupGinMode(appConfig.Server.LogLevel)

	// The matcher is fully built, or degraded, before the listener opens
	slog.Info("Loading landmark matcher", "snapshot", appConfig.Catalog.SnapshotPath, "provider", appConfig.Model.Provider)
	m := matcher.Bootstrap(context.Background(), matcher.Config{
		Model:        appConfig.EmbeddingConfig(),
		SnapshotPath: appConfig.Catalog.SnapshotPath,
	}, matcher.WithIndexParams(appConfig.IndexParams()), matcher.WithTopK(appConfig.Catalog.TopK))

	history, err := store.OpenHistory(appConfig.Storage.Dir)
	if err != nil {
		slog.Error("Error opening history store", "dir", appConfig.Storage.Dir, "error", err)
		os.Exit(1)
	}
	defer history.Close()

	handler := api.NewHandler(m, wiki.NewClient(appConfig.Wiki), history, metrics.New(), appConfig.Server.MaxUpload)

	router := gin.Default()
	setupRoutes(router, appConfig, handler)

	addr := fmt.Sprintf(":%d", appConfig.Server.Port)
	slog.Info("Server listening", "address", addr, "state", m.State(), "catalog_size", m.CatalogSize())
	if err := router.Run(addr); err != nil {
		slog.Error("Error starting server", "error", err)
		os.Exit(1)
	}
}

func setupLogging(logLevel string) {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(logLevel),
	})
	slog.SetDefault(slog.New(handler))
}

func parseLevel(logLevel string) slog.Level {
	switch strings.ToLower(logLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setupGinMode(logLevel string) {
	switch strings.ToLower(logLevel) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
}

func setupRoutes(router *gin.Engine, cfg *config.AppConfig, handler *api.Handler) {
	api.SetupRoutes(router, handler, cfg.Server.APIPrefix)
}
