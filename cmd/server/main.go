package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stocksim_backend/internal/app/di"
	"stocksim_backend/internal/app/router"
	"stocksim_backend/internal/platform/config"
	platformdb "stocksim_backend/internal/platform/db"
	"stocksim_backend/internal/platform/logging"
	platformredis "stocksim_backend/internal/platform/redis"
	"stocksim_backend/internal/platform/scheduler"
)

const (
	tickJobTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .envを読み込む
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// db
	db, err := platformdb.OpenDB(platformdb.LoadConfigFromEnv())
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()
	if cfg.RunMigrations {
		if err := platformdb.AutoMigrate(db, di.Models()...); err != nil {
			return err
		}
	}

	// Redis（未設定・接続失敗時はキャッシュなしで起動）
	rdb, err := platformredis.NewRedisClient(ctx, platformredis.LoadOptionsFromEnv())
	if err != nil {
		slog.Warn("Redis unavailable. Running without cache.", "error", err)
		rdb = nil
	}
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	app := di.NewApp(cfg, db, rdb)
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("failed to close app resources", "error", err)
		}
	}()

	// 価格ティッカー
	sched := scheduler.New(tickJobTimeout)
	if cfg.TickSchedule != "" {
		tick := scheduler.JobFunc{JobName: "price-tick", Fn: func(ctx context.Context) error {
			_, err := app.Ticker.Tick(ctx)
			return err
		}}
		if err := sched.AddJob(cfg.TickSchedule, tick); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
		slog.Info("price ticker scheduled", "schedule", cfg.TickSchedule)
	} else {
		slog.Info("TICK_SCHEDULE is empty; price ticker disabled")
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.NewRouter(app, sqlDB),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}
