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

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"balance_api/internal/app/service"
	"balance_api/internal/client"
	"balance_api/internal/infrastructure/configloader"
	netclient "balance_api/internal/infrastructure/network/client"
	"balance_api/internal/infrastructure/restapi"
	"balance_api/internal/pkg/cache"
	"balance_api/internal/pkg/utils"
	"balance_api/pkg/metrics"
)

func main() {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	cfgPath := utils.GetEnv("CONFIG_PATH", "config/config.yaml")
	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		zapLogger.Fatal("Failed to load configuration", zap.String("path", cfgPath), zap.Error(err))
	}

	// Rebuild the logger at the configured level.
	level, parseErr := zapcore.ParseLevel(cfg.Logging.Level)
	if parseErr != nil {
		zapLogger.Warn("Invalid log level in config, defaulting to info", zap.String("level", cfg.Logging.Level))
		level = zapcore.InfoLevel
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if rebuilt, buildErr := zapCfg.Build(); buildErr == nil {
		zapLogger = rebuilt
	}
	defer zapLogger.Sync()

	// Route log/slog users through zap as well.
	slogHandler := zapslog.NewHandler(zapLogger.Core(), &zapslog.HandlerOptions{})
	slog.SetDefault(slog.New(slogHandler))

	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	// Secrets are substituted into endpoint templates exactly once, here. A
	// missing secret is a fatal startup error.
	registry, err := configloader.ResolveNetworks(cfg, os.LookupEnv)
	if err != nil {
		zapLogger.Fatal("Failed to resolve network registry", zap.Error(err))
	}
	zapLogger.Info("Network registry resolved", zap.Strings("networks", registry.Keys()))

	metrics.MustRegisterMetrics()

	caches := cache.NewStore(cache.StoreConfig{
		BalanceTTL:      time.Duration(cfg.Cache.BalanceTTLSeconds) * time.Second,
		BalanceCapacity: cfg.Cache.BalanceCapacity,
		PriceTTL:        time.Duration(cfg.Cache.PriceTTLSeconds) * time.Second,
		PriceCapacity:   cfg.Cache.PriceCapacity,
		FiatTTL:         time.Duration(cfg.Cache.FiatRateTTLSeconds) * time.Second,
	})

	readerProvider := netclient.NewEVMClientProvider(netclient.ProviderConfig{
		ConnectionTimeout: time.Duration(cfg.RPCClient.ConnectionTimeoutSeconds) * time.Second,
		CallTimeout:       time.Duration(cfg.RPCClient.CallTimeoutSeconds) * time.Second,
		RateLimit:         rateLimit(cfg.RPCClient.RateLimit),
		RateBurst:         cfg.RPCClient.BurstLimit,
	}, zapLogger)

	llamaClient := client.NewLlamaClient(
		cfg.PriceOracle.BaseURL,
		time.Duration(cfg.PriceOracle.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
	)
	criptoYaClient := client.NewCriptoYaClient(
		cfg.FiatRates.URL,
		time.Duration(cfg.FiatRates.RequestTimeoutMillis)*time.Millisecond,
		zapLogger,
	)

	priceService := service.NewPriceService(registry, llamaClient, criptoYaClient, caches, zapLogger)
	balanceService := service.NewBalanceService(registry, readerProvider, priceService, caches, zapLogger)
	zapLogger.Info("Services initialized")

	handler := restapi.NewBalanceHandler(balanceService, priceService, registry, zapLogger)
	router := restapi.SetupRouter(handler, zapLogger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting")
}

func rateLimit(perSecond float64) rate.Limit {
	if perSecond <= 0 {
		return 0
	}
	return rate.Limit(perSecond)
}
