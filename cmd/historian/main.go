// cmd/historian is an asynchronous service that pops game actions from a
// Redis queue and persists them to PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/judgement/internal/cache"
	"github.com/jason-s-yu/judgement/internal/config"
	"github.com/jason-s-yu/judgement/internal/database"
	"github.com/jason-s-yu/judgement/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.DB.DSN())
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.Fatalf("database: %v", err)
	}

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	svc := historian.New(
		&historian.RedisSource{Client: rdb, Queue: cfg.HistorianQueue},
		&historian.PostgresSink{DB: pool},
		cfg.HistorianBatchSize,
		cfg.HistorianFlush,
		logger,
	)
	if err := svc.Run(ctx); err != nil {
		logger.Fatalf("historian: %v", err)
	}
}
