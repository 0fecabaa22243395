package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/berburumobil/listing-scraper/internal/analysis"
	"github.com/berburumobil/listing-scraper/internal/api"
	"github.com/berburumobil/listing-scraper/internal/archive"
	"github.com/berburumobil/listing-scraper/internal/browser"
	"github.com/berburumobil/listing-scraper/internal/cache"
	"github.com/berburumobil/listing-scraper/internal/config"
	"github.com/berburumobil/listing-scraper/internal/database"
	"github.com/berburumobil/listing-scraper/internal/pipeline"
	"github.com/berburumobil/listing-scraper/internal/scraper"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	// Setup logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database connection
	db, err := database.New(ctx, database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		Database:    cfg.Database.DBName,
		MaxConns:    10,
		MinConns:    2,
		MaxConnLife: time.Hour,
		MaxConnIdle: 30 * time.Minute,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Init(ctx); err != nil {
		logger.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	// Redis client for the analysis cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	var analysisCache *cache.AnalysisCache
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, analysis caching disabled", "error", err)
	} else {
		analysisCache = cache.NewAnalysisCache(redisClient, cfg.Redis.CacheTTL, logger)
	}

	// Scraping engines
	fetcher := scraper.NewFetcher(cfg.Scraper.FetchTimeout)
	renderer := scraper.NewBrowserRenderer(&browser.Options{
		Headless:       cfg.Browser.Headless,
		Timeout:        cfg.Browser.Timeout,
		UserAgent:      browser.DefaultOptions().UserAgent,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		AcceptLanguage: cfg.Browser.AcceptLanguage,
		TimezoneID:     cfg.Browser.TimezoneID,
		Locale:         cfg.Browser.Locale,
	}, logger)
	scraperService := scraper.NewService(fetcher, renderer, logger)

	// Image pipeline and analysis
	acquirer := pipeline.NewAcquirer(logger)

	var classifier analysis.Classifier
	if cfg.Classifier.Endpoint != "" {
		classifier = analysis.NewHTTPClassifier(cfg.Classifier.Endpoint, cfg.Classifier.APIKey, cfg.Classifier.Timeout)
	} else {
		logger.Warn("no classifier endpoint configured, analyses use the fallback result")
	}
	analyzer := analysis.NewService(classifier, logger)

	// Background archival of gallery URLs
	sink := archive.NewSink(db, logger)

	// Initialize API handlers
	handlers := api.NewHandlers(scraperService, acquirer, analyzer, analysisCache, sink, db, logger)

	// Setup Chi router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://localhost:*", "https://*.berburumobil.com"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", handlers.HealthCheck)

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", handlers.AnalyzeListing)
		r.Get("/stored-images", handlers.GetStoredImages)
	})

	// Start server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}

		// Let in-flight archival finish before the pool closes
		sink.Wait()
	}()

	logger.Info("starting listing scraper", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
