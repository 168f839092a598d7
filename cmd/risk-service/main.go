// Package main is the entry point for the Risk Service.
// Risk Service analyzes login events for anomalous activity and maintains
// per-user risk summaries.
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/loginsentry/loginsentry/internal/common/config"
	"github.com/loginsentry/loginsentry/internal/common/database"
	"github.com/loginsentry/loginsentry/internal/common/errors"
	"github.com/loginsentry/loginsentry/internal/common/logger"
	"github.com/loginsentry/loginsentry/internal/common/tracing"
	"github.com/loginsentry/loginsentry/internal/metrics"
	"github.com/loginsentry/loginsentry/internal/risk"
	"github.com/loginsentry/loginsentry/internal/server"
)

var (
	Version    = "dev"
	BuildTime  = "unknown"
	CommitHash = "unknown"
)

func main() {
	log := logger.New()
	defer log.Sync()

	log.Info("Starting Risk Service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit", CommitHash),
	)

	cfg, err := config.Load("risk-service")
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	shutdownTracer, err := tracing.Init(context.Background(), tracing.Config{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		SampleRate:  1.0,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	summaryStore := risk.NewPGSummaryStore(db)

	var (
		history  risk.HistoryStore
		recorder risk.EventRecorder
	)
	switch cfg.HistoryBackend {
	case "elasticsearch":
		es, err := database.NewElasticsearch(cfg.ElasticsearchURL)
		if err != nil {
			log.Fatal("Failed to connect to Elasticsearch", zap.Error(err))
		}
		esStore, err := risk.NewESLoginStore(es)
		if err != nil {
			log.Fatal("Failed to prepare login events index", zap.Error(err))
		}
		history, recorder = esStore, esStore
	default:
		pgStore := risk.NewLoginStore(db)
		history, recorder = pgStore, pgStore
	}

	cache := risk.NewRedisCache(redisClient)
	loc := risk.NewEnglishLocalizer()
	analyzer := risk.NewAnalyzer(cfg.Risk, history, summaryStore, cache, loc, log)
	handler := risk.NewHandler(analyzer, recorder, summaryStore, summaryStore, cache, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(errors.ErrorHandler())
	router.Use(logger.GinMiddleware(log))
	router.Use(metrics.Middleware(cfg.ServiceName))

	handler.RegisterRoutes(router)
	router.GET("/metrics", metrics.Handler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "risk-service",
			"version": Version,
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
			return
		}
		if err := redisClient.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	graceful := server.New(server.Config{
		Server: httpServer,
		Logger: log,
		Shutdownables: []server.Shutdownable{
			server.CloseDB(db),
			server.CloseRedis(redisClient),
			server.CloseTracer(shutdownTracer),
		},
		ShutdownTimeout: 30 * time.Second,
	})

	if err := graceful.ListenAndServe(); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}

	log.Info("Server exited")
}
