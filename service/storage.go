package service

import (
	"fmt"
	"os"
	"time"

	"socialfeed/app/config"
	"socialfeed/app/repositories"
	"socialfeed/app/repositories/memory"

	"github.com/sirupsen/logrus"
)

// OpenStorage constructs the backend named by cfg.StorageBackend.
func OpenStorage(cfg *config.Config, logger logrus.FieldLogger) (repositories.Storage, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return memory.New(time.Now, cfg.SessionPruneInterval), nil
	case config.BackendBadger:
		if err := os.MkdirAll(cfg.DBPath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		return repositories.OpenBadgerWithLogger(cfg.DBPath, time.Now, logger.WithField("component", "badger"))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
