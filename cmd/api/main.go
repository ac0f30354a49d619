package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aadish-25/todo-backend/internal/app/migrate"
	"github.com/aadish-25/todo-backend/internal/app/storage"
	httpx "github.com/aadish-25/todo-backend/internal/http"
	"github.com/aadish-25/todo-backend/internal/repository"
	"github.com/aadish-25/todo-backend/internal/repository/cache"
	"github.com/aadish-25/todo-backend/internal/service/auth"
	"github.com/aadish-25/todo-backend/internal/service/todo"
	"github.com/aadish-25/todo-backend/pkg/config"
	"github.com/aadish-25/todo-backend/pkg/logger"
)

func main() {
	bootLog := logger.New("api", slog.LevelInfo)
	if err := config.LoadDotEnv(); err != nil {
		bootLog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.LoadAPIConfig()
	if err != nil {
		bootLog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New("api", logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handle, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		log.Error("failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer handle.Close()

	if cfg.Storage.MigrateOnStart {
		runner, err := migrate.New(handle.SQL, handle.Driver, log)
		if err != nil {
			log.Error("failed to configure migrations", "error", err)
			os.Exit(1)
		}
		if err := runner.Ensure(ctx); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
	}

	store := repository.WithTimeout(handle.Store, cfg.Storage.Timeout)
	checks := map[string]httpx.HealthCheck{"database": store.Ping}

	var todos repository.TodoRepository = store
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		client, err := cache.NewRedisClient(addr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn("redis list cache unavailable", "error", err)
		} else {
			defer client.Close()
			todos = cache.NewTodos(store, cache.NewRedisKV(client), cfg.ListCacheTTL, log)
			checks["cache"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
			log.Info("redis list cache enabled", "addr", addr, "ttl", cfg.ListCacheTTL)
		}
	}

	authSvc, err := auth.New(store, log, cfg)
	if err != nil {
		log.Error("failed to configure auth", "error", err)
		os.Exit(1)
	}
	todoSvc := todo.New(todos, log)

	router := httpx.NewRouter(log, authSvc, todoSvc, checks)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr, "env", cfg.Environment, "storage", handle.Driver)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
