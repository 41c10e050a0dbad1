package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"monny/internal/amqp"
	"monny/internal/auth"
	"monny/internal/cache"
	"monny/internal/config"
	apphttp "monny/internal/http"
	applog "monny/internal/log"
	"monny/internal/services"
	"monny/internal/session"
	"monny/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: "web"})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	creds, err := auth.LoadCredentials(cfg.CredentialsFile)
	if err != nil {
		logger.Error("Failed to load credentials", "error", err, "path", cfg.CredentialsFile)
		os.Exit(1)
	}
	authn := auth.New(cfg.SessionSecret, cfg.SessionTTL, creds)

	var balances services.BalanceCache
	switch cfg.CacheBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		balances = cache.NewRedisBalances(client, cfg.CacheTTL)
		logger.Info("Using Redis balance cache", "addr", cfg.RedisAddr)
	default:
		mem := cache.NewMemoryBalances(1000, cfg.CacheTTL)
		balances = mem

		janitor := cache.NewJanitor()
		janitor.Register(mem)
		janitor.Start(cfg.CacheTTL)
		defer janitor.Stop()
		logger.Info("Using in-memory balance cache")
	}

	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		events = amqpClient
		logger.Info("Statement sync enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Statement sync disabled - no AMQP_URL provided")
	}

	ledger := services.NewLedgerService(repo, session.NewManager(), balances, events)

	srv := apphttp.NewServer(":"+cfg.Port, ledger, authn)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting monny server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
