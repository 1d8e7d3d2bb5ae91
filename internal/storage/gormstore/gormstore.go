// Package gormstore implements the storage.Backend interface using GORM
// with internal queues and a background DB writer goroutine.
package gormstore

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/battlesim/battlesim/internal/config"
	"github.com/battlesim/battlesim/internal/database"
	"github.com/battlesim/battlesim/internal/model"
	"github.com/battlesim/battlesim/internal/model/convert"
	"github.com/battlesim/battlesim/internal/model/core"
	"github.com/battlesim/battlesim/internal/queue"

	"gorm.io/gorm"
)

// DefaultFlushInterval is how often queued records are written.
const DefaultFlushInterval = 2 * time.Second

// ErrNoBattle is returned when a battle is ended before it was started.
var ErrNoBattle = errors.New("no battle started")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	// DB is used as is when set. Otherwise Init connects to Postgres.
	DB            *gorm.DB
	Postgres      config.PostgresConfig
	Logger        *slog.Logger
	FlushInterval time.Duration
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Units       *queue.Queue[model.Unit]
	Attacks     *queue.Queue[model.AttackEvent]
	Damages     *queue.Queue[model.DamageEvent]
	SquadStates *queue.Queue[model.SquadStateEvent]
}

func newQueues() *queues {
	return &queues{
		Units:       queue.New[model.Unit](),
		Attacks:     queue.New[model.AttackEvent](),
		Damages:     queue.New[model.DamageEvent](),
		SquadStates: queue.New[model.SquadStateEvent](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps    Dependencies
	log     *slog.Logger
	queues  *queues
	started bool

	writeMu  sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Backend{
		deps:   deps,
		log:    log.With("component", "gormstore"),
		queues: newQueues(),
	}
}

// DB returns the underlying connection, nil before Init when none was injected.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init runs schema migration and starts the DB writer goroutine.
// If no DB was injected via Dependencies, it creates its own postgres connection.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		db, err := database.OpenPostgres(b.deps.Postgres)
		if err != nil {
			return err
		}
		b.deps.DB = db
	}

	b.log.Info("Migrating schema", "dialect", b.deps.DB.Name())
	if err := database.Migrate(b.deps.DB); err != nil {
		return err
	}

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.writer()
	b.started = true
	return nil
}

// Close stops the DB writer goroutine and writes whatever is still queued.
func (b *Backend) Close() error {
	if !b.started {
		return nil
	}
	b.stopOnce.Do(func() {
		close(b.stopChan)
		<-b.done
	})
	return b.Flush()
}

// StartBattle inserts the battle row synchronously.
func (b *Backend) StartBattle(cb *core.Battle) error {
	if b.deps.DB == nil {
		return nil
	}
	row := convert.CoreToBattle(*cb)
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert battle: %w", err)
	}
	return nil
}

// EndBattle flushes the queues and stores the outcome on the battle row.
func (b *Backend) EndBattle(o *core.Outcome) error {
	if b.deps.DB == nil {
		return ErrNoBattle
	}
	if err := b.Flush(); err != nil {
		return err
	}
	res := b.deps.DB.Model(&model.Battle{}).
		Where("id = ?", o.BattleID).
		Updates(convert.OutcomeUpdates(*o))
	if res.Error != nil {
		return fmt.Errorf("failed to update battle outcome: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("battle %s: %w", o.BattleID, ErrNoBattle)
	}
	return nil
}

// RecordUnit converts and queues a unit.
func (b *Backend) RecordUnit(u *core.Unit) error {
	b.queues.Units.Push(convert.CoreToUnit(*u))
	return nil
}

// RecordAttack converts and queues an attack.
func (b *Backend) RecordAttack(a *core.Attack) error {
	b.queues.Attacks.Push(convert.CoreToAttackEvent(*a))
	return nil
}

// RecordDamage converts and queues a damage event.
func (b *Backend) RecordDamage(d *core.Damage) error {
	b.queues.Damages.Push(convert.CoreToDamageEvent(*d))
	return nil
}

// RecordSquadState converts and queues a squad state change.
func (b *Backend) RecordSquadState(s *core.SquadState) error {
	b.queues.SquadStates.Push(convert.CoreToSquadStateEvent(*s))
	return nil
}

// Flush writes every queued record now.
func (b *Backend) Flush() error {
	if b.deps.DB == nil {
		return nil
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	return errors.Join(
		writeQueue(b.deps.DB, b.queues.Units, "units", b.log),
		writeQueue(b.deps.DB, b.queues.Attacks, "attack events", b.log),
		writeQueue(b.deps.DB, b.queues.Damages, "damage events", b.log),
		writeQueue(b.deps.DB, b.queues.SquadStates, "squad state events", b.log),
	)
}

// writeQueue writes all items from a queue to the database in a transaction.
// Items are pushed back on failure.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log *slog.Logger) error {
	if q.Empty() {
		return nil
	}

	items := q.Drain()
	if len(items) == 0 {
		return nil
	}
	tx := db.Begin()
	if err := tx.Create(&items).Error; err != nil {
		log.Error("Error creating records", "table", name, "count", len(items), "error", err)
		tx.Rollback()
		q.Push(items...)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	return tx.Commit().Error
}

// writer periodically drains queues into the DB until Close.
func (b *Backend) writer() {
	defer close(b.done)

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := b.Flush(); err != nil {
				continue
			}
			b.log.Debug("Flushed queues", "duration", time.Since(start))
		}
	}
}
