package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"resumeStudio/internal/api"
	"resumeStudio/internal/config"
	"resumeStudio/internal/editor"
	"resumeStudio/internal/localstore"
	"resumeStudio/internal/logging"
	"resumeStudio/internal/pdf"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}

	cfg := config.MustLoad()
	logger := logging.New(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("api stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, closeStorage, err := localstore.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := closeStorage(); err != nil {
			logger.Error("close storage failed", slog.Any("error", err))
		}
	}()
	logger.Info("storage ready", slog.String("backend", cfg.Storage.Backend))

	renderer, err := pdf.New(cfg.PDF)
	if err != nil {
		return fmt.Errorf("init pdf renderer: %w", err)
	}

	svc := editor.New(ctx, storage, editor.WithRenderer(renderer), editor.WithLogger(logger))

	deps := api.Deps{
		Editor:         svc,
		NotifyChannel:  cfg.Redis.NotifyChannel,
		AllowedOrigins: cfg.API.AllowedOrigins,
		Logger:         logger,
	}
	if cfg.Clamd.Addr != "" {
		deps.Scanner = api.NewClamdScanner(cfg.Clamd.Addr)
	}

	if cfg.Queue.Enabled {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), DB: cfg.Redis.DB})
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("close redis client failed", slog.Any("error", err))
			}
		}()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}

		asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr(), DB: cfg.Redis.DB})
		defer asynqClient.Close()

		deps.Queue = asynqClient
		deps.Notifications = redisClient
		logger.Info("pdf export queue enabled", slog.String("redis_addr", cfg.Redis.Addr()))
	}

	router := api.NewRouter(logger)
	api.RegisterRoutes(router, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownGrace)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		// 未到防抖时间的编辑在退出前写入。
		if ferr := svc.Close(shutdownCtx); ferr != nil {
			logger.Error("flush pending edits failed", slog.Any("error", ferr))
		}
		logger.Info("api shut down")
		return err
	})
	return g.Wait()
}
