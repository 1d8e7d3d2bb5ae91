// Package sqlitestorage implements the storage.Backend interface using an in-memory
// SQLite database that is dumped to disk via VACUUM INTO.
// It wraps the GORM backend via composition.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/battlesim/battlesim/internal/database"
	"github.com/battlesim/battlesim/internal/model/core"
	"github.com/battlesim/battlesim/internal/storage/gormstore"
	"github.com/google/uuid"

	"gorm.io/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	// DumpPath receives a VACUUM INTO copy when a battle ends. Empty keeps the
	// database in memory only.
	DumpPath      string
	FlushInterval time.Duration
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstore.Backend
	db  *gorm.DB
	cfg Config
	log *slog.Logger
}

// New creates a new SQLite storage backend over a private in-memory database.
func New(cfg Config, log *slog.Logger) (*Backend, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	db, err := database.OpenSQLite(fmt.Sprintf("file:battlesim-%s?mode=memory&cache=shared", uuid.NewString()))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	return &Backend{
		Backend: gormstore.New(gormstore.Dependencies{
			DB:            db,
			Logger:        log,
			FlushInterval: cfg.FlushInterval,
		}),
		db:  db,
		cfg: cfg,
		log: log.With("component", "sqlite"),
	}, nil
}

// EndBattle records the outcome and dumps the database to disk.
func (b *Backend) EndBattle(o *core.Outcome) error {
	if err := b.Backend.EndBattle(o); err != nil {
		return err
	}
	return b.Dump()
}

// Close flushes the embedded GORM backend, dumps and releases the database.
func (b *Backend) Close() error {
	if err := b.Backend.Close(); err != nil {
		return err
	}
	if err := b.Dump(); err != nil {
		return err
	}
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Dump writes a point-in-time copy of the database to DumpPath.
func (b *Backend) Dump() error {
	if b.cfg.DumpPath == "" {
		return nil
	}
	start := time.Now()
	if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
		b.log.Error("Error dumping to disk", "error", err)
		return err
	}
	b.log.Debug("Dumped to disk", "path", b.cfg.DumpPath, "duration", time.Since(start))
	return nil
}
