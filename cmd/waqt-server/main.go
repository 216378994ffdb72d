// Command waqt-server runs the HTTP API (internal/httpapi) over the
// location resolver and per-date schedule cache: parse flags and env,
// initialize the optional Redis tier, start the listener, then wait
// on a shutdown signal for a graceful drain.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/yusufkaya/waqt/internal/cache"
	"github.com/yusufkaya/waqt/internal/config"
	"github.com/yusufkaya/waqt/internal/httpapi"
	"github.com/yusufkaya/waqt/internal/location"
	"github.com/yusufkaya/waqt/internal/logging"
)

var logger = logging.Logger

func main() {
	addr := pflag.String("addr", ":8080", "HTTP listen address")

	cfg := config.DefaultConfig()
	cfg.FromEnv()
	cfg.BindFlags(pflag.CommandLine)
	pflag.Parse()
	cfg.ResolveFlags()

	resolver := location.NewResolver()
	localCache := cache.New(cfg.ScheduleCacheSize, cfg.ScheduleCacheTTL)

	var scheduleCache cache.Store = localCache
	if cfg.RedisAddr != "" {
		redisTier, err := cache.NewRedisTier(cfg.RedisAddr, os.Getenv("WAQT_REDIS_PASSWORD"), 0, cfg.RedisTTL)
		if err != nil {
			logger.WithError(err).Warn("Redis cache tier unavailable, continuing with in-memory cache only")
		} else {
			defer redisTier.Close()
			logger.WithField("addr", cfg.RedisAddr).Info("Redis cache tier enabled")
			scheduleCache = cache.NewTiered(localCache, redisTier)
		}
	}

	server := httpapi.NewServer(resolver, scheduleCache, cfg)
	httpServer := httpapi.NewHTTPServer(*addr, server.Handler())

	go func() {
		logger.WithField("addr", *addr).Info("waqt-server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.WithField("signal", sig).Info("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("error during shutdown")
	}
}
