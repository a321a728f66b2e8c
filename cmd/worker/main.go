package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/bad-Al-code/video-proccessing-service/internal/config"
	"github.com/bad-Al-code/video-proccessing-service/internal/domain/repository"
	"github.com/bad-Al-code/video-proccessing-service/internal/infrastructure/cache"
	"github.com/bad-Al-code/video-proccessing-service/internal/infrastructure/postgres"
	"github.com/bad-Al-code/video-proccessing-service/internal/infrastructure/queue"
	"github.com/bad-Al-code/video-proccessing-service/internal/infrastructure/storage"
	"github.com/bad-Al-code/video-proccessing-service/internal/ops"
	"github.com/bad-Al-code/video-proccessing-service/internal/transcoder"
	"github.com/bad-Al-code/video-proccessing-service/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.Worker.TempDir, 0755); err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}

	pgClient, err := postgres.NewClient(ctx, postgres.DefaultClientConfig(cfg.Database.DSN()))
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pgClient.Close()
	logger.Info("connected to PostgreSQL")

	storageClient, err := storage.NewClient(ctx, storage.ClientConfig{
		Endpoint:  cfg.MinIO.Endpoint,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Bucket:    cfg.MinIO.Bucket,
		UseSSL:    cfg.MinIO.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to MinIO: %w", err)
	}
	logger.Info("connected to MinIO")

	queueClient, err := queue.NewClient(ctx, queue.DefaultClientConfig(cfg.RabbitMQ.URL()))
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer queueClient.Close()
	logger.Info("connected to RabbitMQ")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("connected to Redis")

	engine := transcoder.NewFFmpegEngine(transcoder.DefaultFFmpegConfig())

	ledger := postgres.NewVideoLedger(pgClient.Pool())
	videoCache := cache.NewRedisVideoCache(redisClient)
	processSvc := usecase.NewProcessService(
		ledger,
		storageClient,
		engine,
		queueClient,
		videoCache,
		usecase.ProcessServiceConfig{
			TempDir:         cfg.Worker.TempDir,
			ProcessedPrefix: cfg.Worker.ProcessedPrefix,
			Resolutions:     cfg.Worker.Resolutions,
			StageTimeout:    cfg.Worker.StageTimeout,
		},
	)

	opsServer := ops.NewServer(
		ops.ServerConfig{
			Port:         cfg.Ops.Port,
			ReadTimeout:  cfg.Ops.ReadTimeout,
			WriteTimeout: cfg.Ops.WriteTimeout,
			CheckTimeout: ops.DefaultServerConfig().CheckTimeout,
		},
		logger,
		ops.Check{Name: "postgres", Pinger: pgClient},
		ops.Check{Name: "minio", Pinger: storageClient},
		ops.Check{Name: "redis", Pinger: pingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})},
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Tracks the in-flight job so shutdown can wait for it.
	var wg sync.WaitGroup

	errCh := make(chan error, 2)

	go func() {
		if err := opsServer.Start(); err != nil {
			errCh <- err
		}
	}()

	go func() {
		logger.Info("starting worker, consuming upload events")
		err := queueClient.Consume(ctx, func(ctx context.Context, event repository.UploadEvent) error {
			wg.Add(1)
			defer wg.Done()

			logger.Info("processing upload event",
				slog.String("video_id", event.VideoID.String()),
				slog.String("source_key", event.SourceKey),
			)

			if err := processSvc.Process(ctx, event); err != nil {
				logger.Error("processing failed",
					slog.String("video_id", event.VideoID.String()),
					slog.String("error", err.Error()),
				)
				return err
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("consumer error: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down worker", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer shutdownCancel()

	// Stop taking new deliveries, then drain the in-flight job.
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("in-flight job completed")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded, job may not have completed")
	}

	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("ops server shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("worker stopped")
	return nil
}
