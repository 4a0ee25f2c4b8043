package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/02loveslollipop/climate-observations-api/services/api/config"
	"github.com/02loveslollipop/climate-observations-api/services/api/db"
	httpserver "github.com/02loveslollipop/climate-observations-api/services/api/http"
	"github.com/02loveslollipop/climate-observations-api/services/api/logging"
)

// version is overridden with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg, version)
	slog.SetDefault(logger)

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("shut down")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := db.New(ctx, cfg.DatabaseURL, db.Options{
		MaxConns: cfg.DBMaxConns,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("db connection: %w", err)
	}
	defer store.Close()
	logger.Info("data source ready", "driver", store.Driver())

	srv := httpserver.New(cfg, store, logger)
	logger.Info("REST API listening", "addr", cfg.ListenAddr())

	return srv.Run(ctx)
}
