// Command graphd serves the stored decompositions of one policy over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/bootstrap"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/export/cache"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/export/handler"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/store"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy, err := bootstrap.Policy(cfg)
	if err != nil {
		slog.Error("invalid search configuration", "error", err)
		os.Exit(1)
	}
	snap, err := bootstrap.OpenSnapshotter(cfg.Store, policy.Signature())
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	st, err := bootstrap.LoadStore(ctx, snap, policy.Signature(), false)
	snap.Close()
	if err != nil {
		slog.Error("failed to load results", "error", err)
		os.Exit(1)
	}
	slog.Info("starting graph service",
		"port", cfg.Server.Port,
		"policy", policy.Name(),
		"entries", st.Len(),
	)

	var table *corpus.TranslationTable
	if cfg.Corpus.Format == corpus.FormatCMUDict {
		c, err := corpus.Open(cfg.Corpus)
		if err != nil {
			slog.Error("failed to load translation", "error", err)
			os.Exit(1)
		}
		table = c.Translation()
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.StoreEntries.Set(float64(st.Len()))

	var (
		queryCache  *cache.QueryCache
		redisClient *pkgredis.Client
	)
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, query caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, store.SnapshotName(policy.Signature()), m)
			slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	checker := health.NewChecker()
	checker.Register("results", func(ctx context.Context) health.ComponentHealth {
		if st.Len() == 0 {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "no stored results"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d words", st.Len())}
	})
	var redisPing func(context.Context) error
	if redisClient != nil {
		redisPing = redisClient.Ping
	}
	checker.Register("redis", health.Ping(redisPing, true))

	h := handler.New(st, table, queryCache, cfg.Server)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/edges", h.Edges)
	mux.HandleFunc("GET /api/v1/results/{word}", h.Result)
	mux.HandleFunc("GET /api/v1/rankings/{metric}", h.Rankings)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	mux.Handle("GET /metrics", metrics.GathererHandler(reg))

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	if cfg.Server.RateLimit > 0 {
		limiter := middleware.NewLimiter(cfg.Server.RateLimit, cfg.Server.RateWindow)
		go limiter.RunPruner(ctx)
		chain = middleware.RateLimit(limiter)(chain)
		slog.Info("rate limiting enabled", "limit", cfg.Server.RateLimit, "window", cfg.Server.RateWindow)
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		chain = middleware.CORS(cfg.Server.CORSOrigins)(chain)
	}
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("graph service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("graph service stopped")
}
