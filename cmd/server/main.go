// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/judgement/internal/auth"
	"github.com/jason-s-yu/judgement/internal/cache"
	"github.com/jason-s-yu/judgement/internal/config"
	"github.com/jason-s-yu/judgement/internal/connection"
	"github.com/jason-s-yu/judgement/internal/database"
	"github.com/jason-s-yu/judgement/internal/handlers"
	"github.com/jason-s-yu/judgement/internal/room"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)
	logrus.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dir, closeDir, err := openDirectory(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("directory: %v", err)
	}
	defer closeDir()

	actions, closeActions, err := openActionLog(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("action log: %v", err)
	}
	defer closeActions()

	signer, err := openSigner(cfg)
	if err != nil {
		logger.Fatalf("auth: %v", err)
	}

	srv := &handlers.Server{
		Dir:           dir,
		Rooms:         room.NewManager(dir, connection.NewRegistry(), actions, room.DefaultGameFactory, logger),
		Signer:        signer,
		Logger:        logger,
		SecureCookies: cfg.IsProduction(),
	}
	addr := "localhost:" + cfg.Port
	if cfg.IsProduction() {
		// bind to all hosts in production mode
		srv.AllowedOrigins = cfg.AllowedOrigins
		addr = ":" + cfg.Port
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Running on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
	logger.Info("server stopped")
}

func openDirectory(ctx context.Context, cfg config.Config, logger *logrus.Logger) (database.Directory, func(), error) {
	if cfg.StoreBackend == config.StoreMemory {
		logger.Info("using in-memory directory")
		return database.NewMemoryDirectory(), func() {}, nil
	}
	pool, err := database.Connect(ctx, cfg.DB.DSN())
	if err != nil {
		return nil, nil, err
	}
	if err := database.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return database.NewPostgresDirectory(pool), pool.Close, nil
}

func openActionLog(ctx context.Context, cfg config.Config, logger *logrus.Logger) (cache.ActionLog, func(), error) {
	if cfg.ActionLog == config.ActionLogNone {
		return cache.NopActionLog{}, func() {}, nil
	}
	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	logger.Infof("publishing actions to redis list %s", cfg.HistorianQueue)
	return cache.NewRedisActionLog(rdb, cfg.HistorianQueue), func() { _ = rdb.Close() }, nil
}

func openSigner(cfg config.Config) (*auth.Signer, error) {
	if cfg.PrivateKeyPath != "" && cfg.PublicKeyPath != "" {
		return auth.NewSignerFromPath(cfg.PrivateKeyPath, cfg.PublicKeyPath, cfg.TokenExpiry)
	}
	return auth.NewSigner(cfg.TokenExpiry)
}
