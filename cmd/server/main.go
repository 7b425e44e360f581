package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/syedismail7230/Authai/internal/config"
	"github.com/syedismail7230/Authai/internal/gemini"
	"github.com/syedismail7230/Authai/internal/handler"
	"github.com/syedismail7230/Authai/internal/ledger"
	"github.com/syedismail7230/Authai/internal/progress"
	"github.com/syedismail7230/Authai/internal/registry"
	"github.com/syedismail7230/Authai/internal/service"
)

func main() {
	// Initialize logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting Verdict Service...")

	// Load configuration
	cfg, err := config.LoadConfig("configs/config.yml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Optional enrichment collaborator. A missing key means heuristic-only
	// analysis, never a startup failure.
	var enricher service.Enricher
	if cfg.Gemini.APIKey != "" && cfg.Gemini.APIKey != "YOUR_API_KEY_HERE" {
		geminiClient, err := gemini.NewClient(gemini.Config{
			APIKey:     cfg.Gemini.APIKey,
			ModelName:  cfg.Gemini.ModelName,
			MaxRetries: cfg.Gemini.MaxRetries,
		}, logger)
		if err != nil {
			logger.Warn("Failed to initialize enrichment client, running heuristic-only",
				zap.Error(err))
		} else {
			enricher = geminiClient
			defer geminiClient.Close()
		}
	} else {
		logger.Info("No Gemini API key configured, running heuristic-only")
	}

	// Certificate ledger tiers
	os.MkdirAll("./data", 0755)

	primary, err := ledger.NewSQLiteStore(cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal("Failed to initialize certificate store", zap.Error(err))
	}

	durable := []ledger.Store{primary}
	if cfg.Redis.Addr != "" {
		cache, err := ledger.NewRedisStore(ledger.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      time.Duration(cfg.Redis.TTLHours) * time.Hour,
		}, logger)
		if err != nil {
			logger.Warn("Redis cache unavailable, running without it", zap.Error(err))
		} else {
			durable = append(durable, cache)
		}
	}

	led := ledger.New(durable, []ledger.Store{ledger.NewMemoryStore()}, logger, ledger.Options{})
	defer led.Close()

	// Job registry and progress channel, constructed once and injected into
	// the analyzer rather than accessed as globals.
	reg := registry.New(logger,
		time.Duration(cfg.Jobs.RetentionMinutes)*time.Minute,
		time.Duration(cfg.Jobs.SweepIntervalMinutes)*time.Minute)
	defer reg.Close()

	hub := progress.NewHub(logger)

	analyzer := service.NewAnalyzer(reg, hub, led, enricher, service.Options{
		MaxContentBytes: cfg.Analysis.MaxContentBytes,
		StageDelay:      time.Duration(cfg.Analysis.StageDelayMS) * time.Millisecond,
		EnrichTimeout:   time.Duration(cfg.Analysis.EnrichTimeoutSeconds) * time.Second,
	}, logger)

	// Initialize HTTP handler
	apiHandler := handler.NewHandler(analyzer, logger)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register routes
	apiHandler.RegisterRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("Server starting", zap.String("address", serverAddr))

	// Graceful shutdown
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Verdict Service is running",
		zap.String("port", cfg.Server.Port),
		zap.Bool("enrichment", enricher != nil))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
