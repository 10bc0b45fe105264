package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"captcha-workers/internal/common/camunda"
	"captcha-workers/internal/common/captcha"
	"captcha-workers/internal/common/config"
	"captcha-workers/internal/common/database"
	httpclient "captcha-workers/internal/common/http"
	"captcha-workers/internal/common/logger"
	"captcha-workers/internal/common/observability"

	cv "captcha-workers/internal/workers/auth/captcha-verify"
)

func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	configPath := flag.String("config", "", "Path to a config file (defaults to ./configs/config.yaml)")
	flag.Parse()

	bootLog := logger.New("info", "console")
	bootLog.Info("Starting worker manager...")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}
	_ = bootLog.Sync()

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format).With(
		zap.String("service", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown(context.Background())

	ctx := context.Background()

	// --- Verifier settings ---
	var redis *database.RedisClient
	if cfg.Captcha.SettingsSource == config.SettingsSourceRedis {
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")
	}

	var settings captcha.SettingsProvider = cfg.Captcha.SettingsProvider()
	if cfg.Captcha.SettingsSource == config.SettingsSourceRedis {
		settings = database.NewSettingsStore(redis.Client, cfg.Database.Redis.KeyPrefix, log)
	}

	registry := captcha.NewRegistry(captcha.RegistryOptions{
		Settings:  settings,
		Client:    httpclient.NewClient(config.GetDuration(cfg.Captcha.HTTPTimeout)),
		Logger:    log,
		HostNames: cfg.Captcha.HostNames,
	})
	zapLog.Info("Verifier registry ready",
		zap.String("settingsSource", cfg.Captcha.SettingsSource),
		zap.Strings("hostNames", registry.HostNames()),
	)

	// --- Camunda ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(camunda.FromAppConfig(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	handler, err := cv.NewHandler(cv.HandlerOptions{
		AppConfig:     cfg,
		Camunda:       camundaClient,
		Registry:      registry,
		Observability: obs,
		Logger:        log,
	})
	if err != nil {
		zapLog.Fatal("failed to create captcha-verify handler", zap.Error(err))
	}
	if err := handler.Register(); err != nil {
		zapLog.Fatal("failed to register captcha-verify worker", zap.Error(err))
	}

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if redis != nil {
			if err := redis.Ping(checkCtx); err != nil {
				writeStatus(w, http.StatusServiceUnavailable, "not ready", err)
				return
			}
		}
		if err := handler.HealthCheck(checkCtx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err)
			return
		}
		writeStatus(w, http.StatusOK, "ready", nil)
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	handler.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func writeStatus(w http.ResponseWriter, status int, state string, err error) {
	body := map[string]string{
		"status": state,
		"time":   time.Now().Format(time.RFC3339),
	}
	if err != nil {
		body["error"] = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
