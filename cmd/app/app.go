package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker/internal/clock"
	"github.com/BuzzLyutic/task-tracker/internal/config"
	"github.com/BuzzLyutic/task-tracker/internal/reconcile"
	"github.com/BuzzLyutic/task-tracker/internal/repo"
	"github.com/BuzzLyutic/task-tracker/internal/service"
	"github.com/BuzzLyutic/task-tracker/internal/worker"
)

// app собирает хранилище, пул воркеров, синхронизатор и сервис
type app struct {
	logger  *zap.Logger
	pool    *worker.Pool
	engine  *reconcile.Reconciler
	service *service.TaskService
	close   func()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(cfg.Level())
	return zc.Build()
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	pool := worker.NewPool(logger, cfg.WorkerCount)
	pool.Start(context.Background())

	clk := clock.System{}
	engine := reconcile.New(store, pool, clk, logger)

	return &app{
		logger:  logger,
		pool:    pool,
		engine:  engine,
		service: service.NewTaskService(engine, clk, logger),
		close:   closeStore,
	}, nil
}

// Close завершает сессию до остановки пула и хранилища
func (a *app) Close() {
	a.engine.End()
	a.pool.Stop()
	a.close()
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (repo.TaskStore, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL) // Создаем пул соединений к БД
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("pinging database: %w", err)
		}
		logger.Info("Successfully connected to the Database!")
		return repo.NewTaskRepo(pool, logger), pool.Close, nil

	case config.DriverSQLite:
		store, err := repo.NewSQLiteTaskRepo(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Opened sqlite store", zap.String("path", cfg.SQLitePath))
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing sqlite store", zap.Error(err))
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
