package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rate-history-service/internal/adapter/cache"
	httpRouter "rate-history-service/internal/adapter/http"
	"rate-history-service/internal/adapter/repository"
	"rate-history-service/internal/config"
	"rate-history-service/internal/domain/ports"
	"rate-history-service/internal/metrics"
	"rate-history-service/internal/service"
	"rate-history-service/pkg/logger"
)

func main() {
	log := logger.NewLogger(os.Getenv("LOG_LEVEL"))
	log.Info("Starting rate history service")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	appMetrics := metrics.NewMetrics()

	var snapshotCache ports.SnapshotCache
	switch cfg.Cache.Backend {
	case "redis":
		snapshotCache, err = cache.NewRedisCache(cfg.Cache.RedisAddr, cfg.Cache.TTL, log)
		if err != nil {
			log.Error("Failed to connect to Redis cache", "error", err)
			os.Exit(1)
		}
	default:
		snapshotCache = cache.NewMemoryCache(cfg.Cache.TTL, log)
	}

	snapshotRepo := repository.NewCurrencyAPI(
		cfg.RatesAPI.BaseURL,
		cfg.RatesAPI.Timeout,
		log,
		appMetrics,
	)

	rateService := service.NewRateService(snapshotRepo, snapshotCache, cfg.Query.HistoryDays, log, appMetrics)
	controller := service.NewQueryController(rateService, log, appMetrics)

	handler := httpRouter.NewHandler(rateService, controller, cfg.Query.MaxPastDays, log)
	router := httpRouter.NewRouter(handler, log, appMetrics)
	routes := router.SetupRoutes()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      routes,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, cancelRefresh := context.WithCancel(context.Background())
	go refreshCurrencies(ctx, rateService, cfg.RatesAPI.CurrencyListRefreshRate, log)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	cancelRefresh()
	controller.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := snapshotCache.Close(); err != nil {
		log.Error("Failed to close snapshot cache", "error", err)
	}

	log.Info("Server exited")
}

// refreshCurrencies keeps the picker currency list warm and sweeps expired
// cache entries on the same cadence.
func refreshCurrencies(ctx context.Context, rateService *service.RateService, interval time.Duration, log *logger.Logger) {
	// Refresh immediately at startup
	if err := rateService.RefreshCurrencies(ctx); err != nil {
		log.Error("Failed to refresh currency list at startup", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := rateService.RefreshCurrencies(ctx); err != nil {
				log.Error("Failed to refresh currency list", "error", err)
			}
		case <-ctx.Done():
			log.Info("Stopping currency refresh goroutine")
			return
		}
	}
}
