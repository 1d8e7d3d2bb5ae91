// Package worker records a battle: it turns engine events into storage
// records and time series points.
package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/battlesim/battlesim/internal/dispatcher"
	"github.com/battlesim/battlesim/internal/engine"
	"github.com/battlesim/battlesim/internal/model/core"
	"github.com/battlesim/battlesim/internal/scenario"
	"github.com/battlesim/battlesim/internal/storage"
	"github.com/google/uuid"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
)

var (
	// ErrNotStarted is returned when events arrive before Start.
	ErrNotStarted = errors.New("battle recording not started")
	// ErrBadPayload is returned when a dispatched event does not carry an engine.Event.
	ErrBadPayload = errors.New("unexpected event payload")
)

// PointWriter receives time series points. *influx.Manager implements it.
type PointWriter interface {
	WritePoint(p *influxdb2_write.Point) error
}

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Backend storage.Backend
	// Points is optional.
	Points PointWriter
	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Manager records one battle at a time.
type Manager struct {
	deps Dependencies
	log  *slog.Logger

	mu     sync.RWMutex
	battle *core.Battle
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies) *Manager {
	if deps.Backend == nil {
		deps.Backend = storage.Nop{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Manager{deps: deps, log: log.With("component", "recorder")}
}

// Layout converts a scenario into the battle record's initial layout. Squad
// strategies fall back to the army default the same way the engine does.
func Layout(cfg *scenario.Battle) []core.Army {
	armies := make([]core.Army, 0, len(cfg.Armies))
	for _, a := range cfg.Armies {
		armyStrategy, _ := engine.ParseStrategy(a.Strategy)
		ca := core.Army{Name: a.Name, Squads: make([]core.Squad, 0, len(a.Squads))}
		if armyStrategy != engine.StrategyUnspecified {
			ca.Strategy = armyStrategy.String()
		}
		for i, s := range a.Squads {
			strategy, _ := engine.ParseStrategy(s.Strategy)
			if strategy == engine.StrategyUnspecified {
				strategy = armyStrategy
			}
			ca.Squads = append(ca.Squads, core.Squad{Index: i, Strategy: strategy.String(), Units: s.Units})
		}
		armies = append(armies, ca)
	}
	return armies
}

// Start opens a new battle record. Call it after engine.Validate and before
// engine.New, which already emits unit.created events.
func (m *Manager) Start(name string, cfg *scenario.Battle) (*core.Battle, error) {
	b := &core.Battle{
		ID:        uuid.New(),
		Name:      name,
		Seed:      cfg.Seed,
		StartTime: m.deps.Now(),
		Armies:    Layout(cfg),
	}
	if err := m.deps.Backend.StartBattle(b); err != nil {
		return nil, fmt.Errorf("failed to start battle record: %w", err)
	}

	m.mu.Lock()
	m.battle = b
	m.mu.Unlock()

	m.log.Info("Battle recording started", "battle_id", b.ID, "name", name, "armies", len(b.Armies))
	return b, nil
}

// Battle returns the battle being recorded, nil before Start.
func (m *Manager) Battle() *core.Battle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.battle
}

// Finish stores the outcome. Close the dispatcher first so every queued
// event has been recorded. A non-nil runErr marks the battle as abandoned.
func (m *Manager) Finish(res engine.Result, runErr error) (*core.Outcome, error) {
	b := m.Battle()
	if b == nil {
		return nil, ErrNotStarted
	}

	o := &core.Outcome{
		BattleID:  b.ID,
		EndTime:   m.deps.Now(),
		Elapsed:   res.Elapsed,
		Winner:    res.Winner,
		Attacks:   res.Attacks,
		Hits:      res.Hits,
		Concluded: runErr == nil,
	}
	if err := m.deps.Backend.EndBattle(o); err != nil {
		return o, fmt.Errorf("failed to end battle record: %w", err)
	}

	switch {
	case errors.Is(runErr, engine.ErrStalemate):
		m.log.Warn("Battle ended in stalemate", "battle_id", b.ID, "attacks", res.Attacks, "elapsed", res.Elapsed)
	case runErr != nil:
		m.log.Warn("Battle abandoned", "battle_id", b.ID, "error", runErr, "elapsed", res.Elapsed)
	default:
		m.log.Info("Battle recorded", "battle_id", b.ID, "winner", res.Winner, "attacks", res.Attacks, "hits", res.Hits)
	}
	return o, nil
}

// Notifier returns an engine.Notifier that routes every event through d.
// It must stay cheap: it runs on the engine loop.
func (m *Manager) Notifier(d *dispatcher.Dispatcher) engine.Notifier {
	return engine.NotifierFunc(func(e engine.Event) {
		if _, err := d.Dispatch(dispatcher.Event{Kind: string(e.Kind), Payload: e}); err != nil {
			m.log.Error("Failed to dispatch event", "kind", e.Kind, "error", err)
		}
	})
}

func (m *Manager) writePoint(p *influxdb2_write.Point) {
	if m.deps.Points == nil {
		return
	}
	if err := m.deps.Points.WritePoint(p); err != nil {
		m.log.Error("Failed to write point", "error", err)
	}
}
