package core

import (
	"time"

	"github.com/google/uuid"
)

// Unit is a unit as generated at battle start.
type Unit struct {
	ID       uint
	BattleID uuid.UUID
	UnitID   string
	Kind     string
	Army     string
	Squad    int
}

// Attack is one squad attack, successful or not.
type Attack struct {
	ID                  uint
	BattleID            uuid.UUID
	Time                time.Time
	Elapsed             time.Duration
	AttackerArmy        string
	AttackerSquad       int
	DefenderArmy        string
	DefenderSquad       int
	Strategy            string
	AttackerProbability float64
	DefenderProbability float64
	Success             bool
}

// Damage is damage applied to a squad after a successful attack.
type Damage struct {
	ID              uint
	BattleID        uuid.UUID
	Time            time.Time
	Elapsed         time.Duration
	Army            string
	Squad           int
	Amount          float64
	RemainingHealth float64
}

// SquadState marks a squad entering a recharge cycle or becoming ready.
type SquadState struct {
	ID       uint
	BattleID uuid.UUID
	Time     time.Time
	Elapsed  time.Duration
	Army     string
	Squad    int
	State    string
}

const (
	SquadRecharging = "recharging"
	SquadReady      = "ready"
)
