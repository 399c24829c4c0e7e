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
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/featurekit/internal/config"
	dbRedis "github.com/kailas-cloud/featurekit/internal/db/redis"
	logpkg "github.com/kailas-cloud/featurekit/internal/logger"
	"github.com/kailas-cloud/featurekit/internal/metrics"
	importancerepo "github.com/kailas-cloud/featurekit/internal/repository/importance"
	"github.com/kailas-cloud/featurekit/internal/repository/schemafile"
	snapshotrepo "github.com/kailas-cloud/featurekit/internal/repository/snapshot"
	chiTransport "github.com/kailas-cloud/featurekit/internal/transport/chi"
	featuresuc "github.com/kailas-cloud/featurekit/internal/usecase/features"
	healthuc "github.com/kailas-cloud/featurekit/internal/usecase/health"
	importanceuc "github.com/kailas-cloud/featurekit/internal/usecase/importance"
	snapshotuc "github.com/kailas-cloud/featurekit/internal/usecase/snapshot"
	"github.com/kailas-cloud/featurekit/internal/version"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting featurekit API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("schema_path", cfg.Schema.Path),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	sch, err := schemafile.Load(cfg.Schema.Path)
	if err != nil {
		logger.Fatal("Failed to load feature schema", zap.Error(err))
	}
	if inverted := sch.InvertedBounds(); len(inverted) > 0 {
		logger.Warn("Features declare min greater than max", zap.Strings("features", inverted))
	}
	logger.Info("Feature schema loaded",
		zap.Int("features", sch.Len()),
		zap.String("target", sch.Target().Name),
	)

	// valkey speaks the same protocol; both drivers share the rueidis store.
	store, err := dbRedis.NewStore(dbRedis.Config{
		Driver:   cfg.Database.Driver,
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := logpkg.ContextWithLogger(context.Background(), logger)
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register feature metrics explicitly (no init())
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Fatal("Failed to register metrics", zap.Error(err))
	}
	recorder := metrics.NewRecorder()

	featureSvc := featuresuc.New(sch, recorder)

	snapshotSvc, err := snapshotuc.New(snapshotrepo.New(store, cfg.Storage.KeyPrefix), sch)
	if err != nil {
		logger.Fatal("Failed to render schema snapshot", zap.Error(err))
	}
	if _, err := snapshotSvc.Publish(ctx); err != nil {
		logger.Fatal("Failed to publish schema snapshot", zap.Error(err))
	}
	if path := cfg.Schema.SnapshotFile(); path != "" {
		if err := snapshotSvc.Export(ctx, path); err != nil {
			logger.Warn("Failed to export schema snapshot", zap.String("path", path), zap.Error(err))
		}
	}

	importanceSvc := importanceuc.New(
		importancerepo.New(store, cfg.Storage.KeyPrefix, cfg.Storage.ImportanceTTL()),
		snapshotSvc,
		recorder,
	)

	healthSvc := healthuc.New(store, featureSvc)

	server := chiTransport.NewServer(featureSvc, importanceSvc, snapshotSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
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
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorCodeInternalError,
						Message: "internal error",
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
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
