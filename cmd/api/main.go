package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/scriptreel/editor/pkg/validator"

	"github.com/scriptreel/editor/internal/adapter/handler"
	"github.com/scriptreel/editor/internal/infrastructure/cache"
	"github.com/scriptreel/editor/internal/infrastructure/external/pipeline"
	"github.com/scriptreel/editor/internal/usecase/analysis"
	editorUsecase "github.com/scriptreel/editor/internal/usecase/editor"
	pkgai "github.com/scriptreel/editor/pkg/ai"
	"github.com/scriptreel/editor/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize impact analysis
	log.Println("🤖 Initializing impact analysis...")
	analysisClient := pkgai.NewAnalysisClient(&cfg.Analysis)
	analysisStore := cache.NewAnalysisStore(cfg.Editor.DecisionTTL)
	defer analysisStore.Stop()
	gateway := analysis.NewGateway(analysisClient, analysisStore, logger, cfg.Editor.DefaultCredits)

	// Initialize pipeline client
	log.Println("🎬 Initializing pipeline client...")
	pipelineClient := pipeline.NewClient(cfg.Pipeline.BaseURL, cfg.Pipeline.APIKey, cfg.Pipeline.UseMock)
	if cfg.Pipeline.UseMock {
		log.Println("⚠️  Pipeline running in MOCK mode (no real backend needed)")
	} else {
		log.Printf("✅ Pipeline connected to: %s", cfg.Pipeline.BaseURL)
	}

	// Initialize editor service
	log.Println("✂️  Initializing editor service...")
	editorService := editorUsecase.NewService(gateway, pipelineClient, cfg, logger)
	defer editorService.Close()

	// Initialize editor handler
	log.Println("🚀 Initializing editor handler...")
	editorHandler := handler.NewEditorHandler(editorService, logger)
	log.Println("✅ Editor handler initialized successfully")

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, editorHandler)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
