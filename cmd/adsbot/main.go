// adsbot is the query gateway for the retail analytics dashboard. It exposes
// the orchestrator over HTTP along with Prometheus metrics and hot-reloads its
// routing and pricing tables.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/scout-analytics/adsbot/internal/cache"
	"github.com/scout-analytics/adsbot/internal/circuitbreaker"
	"github.com/scout-analytics/adsbot/internal/config"
	"github.com/scout-analytics/adsbot/internal/enrichment"
	"github.com/scout-analytics/adsbot/internal/httpapi"
	"github.com/scout-analytics/adsbot/internal/orchestrator"
	"github.com/scout-analytics/adsbot/internal/pricing"
	"github.com/scout-analytics/adsbot/internal/providers"
	"github.com/scout-analytics/adsbot/internal/routing"
	"github.com/scout-analytics/adsbot/internal/telemetry"
	"github.com/scout-analytics/adsbot/internal/templates"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("failed to load configuration", zap.Error(err))
	}

	logger := newLogger(cfg.Logging.Level)
	defer func() { _ = logger.Sync() }()

	provs := buildProviders(cfg, logger)
	if len(provs) == 0 {
		logger.Warn("no provider API keys configured; all queries will degrade to cached or mock responses")
	}

	store := buildCache(cfg, logger)
	router := routing.NewRouter(logger)
	if cfg.Routing.File != "" {
		if err := router.LoadFile(cfg.Routing.File); err != nil {
			logger.Warn("routing table load failed, using built-in routes",
				zap.String("path", cfg.Routing.File),
				zap.Error(err),
			)
		}
	}

	catalog := templates.NewCatalog()
	if cfg.Templates.Dir != "" {
		if err := catalog.LoadDirectory(cfg.Templates.Dir); err != nil {
			logger.Warn("template directory load failed, using built-ins",
				zap.String("dir", cfg.Templates.Dir),
				zap.Error(err),
			)
		}
	}

	orch, err := orchestrator.New(orchestrator.Config{
		Router:          router,
		Enricher:        enrichment.NewEnricher(nil, logger),
		Cache:           store,
		Templates:       catalog,
		Telemetry:       telemetry.NewStore(cfg.Telemetry.MaxEvents),
		Providers:       provs,
		ProviderTimeout: time.Duration(cfg.Providers.TimeoutMS) * time.Millisecond,
		Logger:          logger,
	})
	if err != nil {
		logger.Fatal("failed to build orchestrator", zap.Error(err))
	}

	startWatcher(cfg, router, logger)

	mux := http.NewServeMux()
	httpapi.NewHandler(orch, logger).RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		logger.Info("adsbot listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("cache_backend", cfg.Cache.Backend),
			zap.Int("providers", len(provs)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

// buildProviders creates one client per configured API key, each wrapped with
// a per-provider rate limit and circuit breaker.
func buildProviders(cfg *config.Config, logger *zap.Logger) map[string]providers.Provider {
	out := make(map[string]providers.Provider)

	wrap := func(name string, p providers.Provider, rpm int) {
		p = providers.WithRateLimit(p, rpm)
		p = providers.WithBreaker(p, circuitbreaker.New(name, circuitbreaker.DefaultConfig(), logger))
		out[name] = p
	}

	if key := cfg.Providers.OpenAI.APIKey; key != "" {
		wrap("openai", providers.NewOpenAIClient(key, logger), cfg.Providers.OpenAI.RPM)
	}
	if key := cfg.Providers.Anthropic.APIKey; key != "" {
		wrap("anthropic", providers.NewAnthropicClient(key, logger), cfg.Providers.Anthropic.RPM)
	}
	if key := cfg.Providers.Groq.APIKey; key != "" {
		wrap("groq", providers.NewGroqClient(key, logger), cfg.Providers.Groq.RPM)
	}
	return out
}

func buildCache(cfg *config.Config, logger *zap.Logger) cache.Store {
	if cfg.Cache.Backend == "redis" && cfg.Cache.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		logger.Info("using redis cache", zap.String("addr", cfg.Cache.RedisAddr))
		return cache.NewRedisStore(client, cfg.Cache.KeyPrefix, cfg.Cache.Capacity, logger)
	}
	return cache.NewMemoryStore(cfg.Cache.Capacity, logger)
}

// startWatcher hot-reloads routing.yaml and models.yaml from the config
// directory. A watcher failure is logged but never fatal: the process keeps
// running with the tables it has.
func startWatcher(cfg *config.Config, router *routing.Router, logger *zap.Logger) {
	dir := "./config"
	if cfg.Routing.File != "" {
		dir = filepath.Dir(cfg.Routing.File)
	}
	if _, err := os.Stat(dir); err != nil {
		return
	}

	w, err := config.NewWatcher(dir, logger)
	if err != nil {
		logger.Warn("config watcher unavailable", zap.Error(err))
		return
	}
	if cfg.Routing.File != "" {
		w.OnChange(filepath.Base(cfg.Routing.File), func(path string) error {
			return router.LoadFile(path)
		})
	}
	w.OnChange("models.yaml", func(string) error {
		pricing.Reload()
		return nil
	})
	w.Start()
}
