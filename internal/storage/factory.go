package storage

import (
	"fmt"
	"log/slog"

	"github.com/battlesim/battlesim/internal/config"
	"github.com/battlesim/battlesim/internal/storage/gormstore"
	"github.com/battlesim/battlesim/internal/storage/memory"
	sqlitestorage "github.com/battlesim/battlesim/internal/storage/sqlite"
)

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, log *slog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		return gormstore.New(gormstore.Dependencies{
			Postgres: cfg.Postgres,
			Logger:   log,
		}), nil
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{DumpPath: cfg.SQLite.Path}, log)
	case "memory":
		return memory.New(cfg.Memory), nil
	case "none", "":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
