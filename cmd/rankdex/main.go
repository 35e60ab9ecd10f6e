package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/config"
	dbRedis "github.com/kailas-cloud/rankdex/internal/db/redis"
	"github.com/kailas-cloud/rankdex/internal/feature"
	logpkg "github.com/kailas-cloud/rankdex/internal/logger"
	"github.com/kailas-cloud/rankdex/internal/metrics"
	"github.com/kailas-cloud/rankdex/internal/model"
	articlerepo "github.com/kailas-cloud/rankdex/internal/repository/article"
	indexrepo "github.com/kailas-cloud/rankdex/internal/repository/index"
	"github.com/kailas-cloud/rankdex/internal/repository/rescache"
	"github.com/kailas-cloud/rankdex/internal/resilience"
	chiTransport "github.com/kailas-cloud/rankdex/internal/transport/chi"
	healthuc "github.com/kailas-cloud/rankdex/internal/usecase/health"
	rankuc "github.com/kailas-cloud/rankdex/internal/usecase/rank"
	searchuc "github.com/kailas-cloud/rankdex/internal/usecase/search"
	statsuc "github.com/kailas-cloud/rankdex/internal/usecase/stats"
	"github.com/kailas-cloud/rankdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting rankdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Search index and result cache share one Redis instance
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to search backend")

	// Canonical document store
	sqlDB, err := articlerepo.OpenDB(cfg.Postgres.DSN, cfg.Postgres.MaxOpenConns, cfg.Postgres.MaxIdleConns)
	if err != nil {
		logger.Fatal("Failed to connect to document store", zap.Error(err))
	}
	defer func() { _ = sqlDB.Close() }()
	logger.Info("Connected to document store")

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterSearchMetrics()

	// Ranking artifacts. Missing artifacts degrade to lexical-only search.
	artifacts := model.Load(model.Paths{
		Model:      cfg.Model.Path,
		Descriptor: cfg.Model.DescriptorPath,
		Vectorizer: cfg.Model.VectorizerPath,
	}, logger)

	// Repositories — composition root
	exec := resilience.NewExecutor(resilience.DefaultConfig(), logger)
	indexRepo := indexrepo.New(store, exec, cfg.Search.IndexName).
		WithTimeout(time.Duration(cfg.Timeouts.IndexMS) * time.Millisecond)
	articleRepo := articlerepo.New(sqlDB).
		WithTimeout(time.Duration(cfg.Timeouts.StoreMS) * time.Millisecond)
	cache := rescache.New(store, rescache.TTLs{
		Search:   time.Duration(cfg.Cache.SearchTTLSec) * time.Second,
		Document: time.Duration(cfg.Cache.DocumentTTLSec) * time.Second,
		Stats:    time.Duration(cfg.Cache.StatsTTLSec) * time.Second,
	}, metrics.CacheTotal, logger).
		WithTimeout(time.Duration(cfg.Timeouts.CacheMS) * time.Millisecond)

	// Pass nil interface (not typed nil pointer!) when no model is loaded.
	var scorer rankuc.Scorer
	if artifacts.Scorer != nil {
		scorer = artifacts.Scorer
	}
	rankSvc := rankuc.New(
		scorer,
		feature.NewExtractor(artifacts.Vectorizer),
		artifacts.Schema,
		rankuc.ModelInfo{
			Metrics:        artifacts.Metrics,
			TrainedAt:      artifacts.TrainedAt,
			VocabularySize: artifacts.Vectorizer.VocabularySize(),
		},
	)

	searchSvc := searchuc.New(indexRepo, articleRepo, cache, rankSvc, searchuc.Limits{
		Default:    cfg.Search.DefaultLimit,
		Max:        cfg.Search.MaxLimit,
		RerankPool: cfg.Search.RerankPool,
	})
	statsSvc := statsuc.New(articleRepo, indexRepo, cache)
	healthSvc := healthuc.New(store, sqlDB, rankSvc)

	server := chiTransport.NewServer(searchSvc, statsSvc, rankSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
