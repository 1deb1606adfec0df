package service

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"socialfeed/app/config"
	"socialfeed/app/routes"

	"github.com/sirupsen/logrus"
)

// Serve runs the API until SIGINT or SIGTERM.
func Serve(cfg *config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return RunAppServer(ctx, cfg, logger)
}

// RunAppServer opens storage, wires the routes and serves until ctx is done.
func RunAppServer(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	store, err := OpenStorage(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.WithError(err).Error("failed to close storage")
		}
	}()

	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	router := routes.SetupRoutes(cfg, store, logger)
	logger.WithFields(logrus.Fields{
		"backend": cfg.StorageBackend,
		"addr":    cfg.Addr(),
		"env":     cfg.Env,
	}).Info("starting socialfeed")
	return routes.StartServer(ctx, cfg.Addr(), router, logger)
}
