package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/templify/templify/internal/config"
	httpHandler "github.com/templify/templify/internal/handler/http"
	"github.com/templify/templify/internal/handler/middleware"
	"github.com/templify/templify/internal/infrastructure/processor"
	"github.com/templify/templify/internal/infrastructure/storage"
	"github.com/templify/templify/internal/infrastructure/vision"
	"github.com/templify/templify/internal/repository/memory"
	"github.com/templify/templify/internal/usecase"
)

func main() {
	zlog.Init()
	zlog.Logger.Info().Msg("Starting Templify API Server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("")
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to load config")
	}

	artifactStore, err := storage.New(&cfg.Storage)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	imageProcessor := processor.NewImageProcessor(&cfg.Processing)
	visionClient := vision.NewClient(&cfg.Vision)

	assetRepo := memory.NewAssetRepository()
	analysisRepo := memory.NewAnalysisRepository()

	deriver := usecase.NewDeriverUsecase(artifactStore, imageProcessor)
	ingestUsecase := usecase.NewIngestUsecase(
		assetRepo,
		artifactStore,
		imageProcessor,
		cfg.Processing.MaxUploadSizeBytes,
		cfg.Processing.AllowedMimeTypes,
	)
	analysisUsecase := usecase.NewAnalysisUsecase(
		assetRepo,
		analysisRepo,
		artifactStore,
		visionClient,
		deriver,
	)

	engine := ginext.New("api")
	engine.Use(
		middleware.ErrorHandlerMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.CORSMiddleware(),
	)

	engine.GET("/health", func(c *ginext.Context) {
		c.JSON(http.StatusOK, ginext.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	analysisHandler := httpHandler.NewAnalysisHandler(ingestUsecase, analysisUsecase)
	analysisHandler.RegisterRoutes(engine)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}

	go func() {
		zlog.Logger.Info().Str("addr", cfg.Server.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Logger.Fatal().Err(err).Msg("Failed to start API server")
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	} else {
		zlog.Logger.Info().Msg("HTTP server stopped gracefully")
	}

	zlog.Logger.Info().Msg("API shutdown complete")
}
