// Package storage defines where battle records go.
package storage

import "github.com/battlesim/battlesim/internal/model/core"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Battle management
	StartBattle(b *core.Battle) error
	EndBattle(o *core.Outcome) error

	// Record keeping
	RecordUnit(u *core.Unit) error
	RecordAttack(a *core.Attack) error
	RecordDamage(d *core.Damage) error
	RecordSquadState(s *core.SquadState) error
}

// Exporter is an optional interface for backends that write a file per battle.
type Exporter interface {
	ExportPath() string
}

// Nop discards every record.
type Nop struct{}

func (Nop) Init() error                             { return nil }
func (Nop) Close() error                            { return nil }
func (Nop) StartBattle(*core.Battle) error          { return nil }
func (Nop) EndBattle(*core.Outcome) error           { return nil }
func (Nop) RecordUnit(*core.Unit) error             { return nil }
func (Nop) RecordAttack(*core.Attack) error         { return nil }
func (Nop) RecordDamage(*core.Damage) error         { return nil }
func (Nop) RecordSquadState(*core.SquadState) error { return nil }
