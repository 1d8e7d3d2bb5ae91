// Package memory keeps battle records in memory and writes an after-action
// report when the battle ends.
package memory

import (
	"errors"
	"sync"

	"github.com/battlesim/battlesim/internal/config"
	"github.com/battlesim/battlesim/internal/model/core"
)

// ErrNoBattle is returned when records arrive before StartBattle.
var ErrNoBattle = errors.New("no battle started")

// Backend stores battle data in memory and exports to JSON
type Backend struct {
	cfg     config.MemoryConfig
	battle  *core.Battle
	outcome *core.Outcome

	units       []core.Unit
	attacks     []core.Attack
	damages     []core.Damage
	squadStates []core.SquadState

	idCounter      uint
	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartBattle begins recording a new battle and drops anything from a previous one.
func (b *Backend) StartBattle(battle *core.Battle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.battle = battle
	b.outcome = nil
	b.units = nil
	b.attacks = nil
	b.damages = nil
	b.squadStates = nil
	b.idCounter = 0
	b.lastExportPath = ""

	return nil
}

// EndBattle finalizes and exports the battle data
func (b *Backend) EndBattle(o *core.Outcome) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.battle == nil {
		return ErrNoBattle
	}
	b.outcome = o
	return b.exportJSON()
}

func (b *Backend) nextID() uint {
	b.idCounter++
	return b.idCounter
}

// RecordUnit registers a generated unit and assigns its ID.
func (b *Backend) RecordUnit(u *core.Unit) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.battle == nil {
		return ErrNoBattle
	}
	u.ID = b.nextID()
	b.units = append(b.units, *u)
	return nil
}

// RecordAttack records an attack and assigns its ID.
func (b *Backend) RecordAttack(a *core.Attack) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.battle == nil {
		return ErrNoBattle
	}
	a.ID = b.nextID()
	b.attacks = append(b.attacks, *a)
	return nil
}

// RecordDamage records damage and assigns its ID.
func (b *Backend) RecordDamage(d *core.Damage) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.battle == nil {
		return ErrNoBattle
	}
	d.ID = b.nextID()
	b.damages = append(b.damages, *d)
	return nil
}

// RecordSquadState records a squad state change and assigns its ID.
func (b *Backend) RecordSquadState(s *core.SquadState) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.battle == nil {
		return ErrNoBattle
	}
	s.ID = b.nextID()
	b.squadStates = append(b.squadStates, *s)
	return nil
}

// ExportPath returns the path of the last written report.
func (b *Backend) ExportPath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// Attacks returns a copy of the recorded attacks.
func (b *Backend) Attacks() []core.Attack {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.Attack(nil), b.attacks...)
}
