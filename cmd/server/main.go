package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/bizlens/internal/analytics"
	"github.com/mmynk/bizlens/internal/auth"
	"github.com/mmynk/bizlens/internal/cache"
	"github.com/mmynk/bizlens/internal/config"
	"github.com/mmynk/bizlens/internal/metrics"
	"github.com/mmynk/bizlens/internal/middleware"
	"github.com/mmynk/bizlens/internal/service"
	"github.com/mmynk/bizlens/internal/storage"
	"github.com/mmynk/bizlens/internal/storage/postgres"
	"github.com/mmynk/bizlens/internal/storage/sqlite"
	"github.com/mmynk/bizlens/pkg/logging"
)

func main() {
	logging.Setup()

	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	thresholds, err := config.LoadThresholds(cfg.ThresholdsFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The local store always receives imports; it is also the analytics
	// source unless a POS database is configured.
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	var provider storage.Provider = store
	if cfg.DataSource == config.SourcePostgres {
		db, err := postgres.Connect(ctx, cfg.POSDatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to POS database: %w", err)
		}
		defer db.Close()
		provider = postgres.New(db, postgres.DefaultQueries())
		slog.Info("Reading analytics from POS database")
	}

	breaker := storage.NewBreakerProvider(provider, storage.BreakerConfig{
		Name:        cfg.DataSource,
		MaxFailures: cfg.Breaker.MaxFailures,
		OpenTimeout: cfg.Breaker.OpenTimeout,
	})
	provider = breaker

	var invalidator service.Invalidator
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			slog.Warn("Redis unavailable, snapshot cache disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			defer rdb.Close()
			snapshots := cache.NewSnapshotCache(provider, rdb, cfg.Redis.TTL, "bizlens:"+cfg.Env+":")
			provider = snapshots
			invalidator = snapshots
			slog.Info("Snapshot cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
		}
	}

	m := metrics.New()
	interceptors := []connect.Interceptor{middleware.LoggingInterceptor(m)}
	if cfg.AuthEnabled() {
		jwtManager := auth.NewJWTManager(cfg.JWTSecret, 24*time.Hour)
		interceptors = append(interceptors, middleware.RequireAuth(jwtManager))
	} else {
		slog.Warn("JWT_SECRET not set, authentication disabled")
	}
	opts := connect.WithInterceptors(interceptors...)

	engine := analytics.NewEngine(thresholds)
	analyticsSvc := service.NewAnalyticsService(provider, engine,
		service.WithMetrics(m),
		service.WithLocation(cfg.Location()),
		service.WithFetchTimeout(cfg.FetchTimeout),
	)
	ingestSvc := service.NewIngestService(store, invalidator, m)

	mux := http.NewServeMux()

	// Register Connect services
	analyticsPath, analyticsHandler := service.NewAnalyticsServiceHandler(analyticsSvc, opts)
	mux.Handle(analyticsPath, analyticsHandler)

	ingestPath, ingestHandler := service.NewIngestServiceHandler(ingestSvc, opts)
	mux.Handle(ingestPath, ingestHandler)

	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := http.StatusOK
		if breaker.State() == "open" {
			status = http.StatusServiceUnavailable
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":      http.StatusText(status),
			"data_source": cfg.DataSource,
			"breaker":     breaker.State(),
		})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if service.IsRPCPath(r.URL.Path) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "bizlens analytics API", http.StatusNotFound)
	})

	// Add logging and CORS middleware
	loggedHandler := loggingMiddleware(corsMiddleware(mux))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h2c.NewHandler(loggedHandler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", srv.Addr, "url", fmt.Sprintf("http://localhost%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	slog.Info("Server exited")
	return nil
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		slog.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms, X-Request-Id")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms, X-Request-Id")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
