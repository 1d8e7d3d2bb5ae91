package engine

import "time"

// EventKind names an engine notification.
type EventKind string

const (
	EventUnitCreated     EventKind = "unit.created"
	EventSquadRecharging EventKind = "squad.recharging"
	EventSquadReady      EventKind = "squad.ready"
	EventAttackAttempted EventKind = "attack.attempted"
	EventDamageApplied   EventKind = "damage.applied"
	EventBattleConcluded EventKind = "battle.concluded"
)

// EventKinds lists every kind the engine emits.
var EventKinds = []EventKind{
	EventUnitCreated,
	EventSquadRecharging,
	EventSquadReady,
	EventAttackAttempted,
	EventDamageApplied,
	EventBattleConcluded,
}

// SquadRef identifies a squad by its army and index.
type SquadRef struct {
	Army  string `json:"army"`
	Index int    `json:"index"`
}

// Event is a notification about something that happened in the battle.
// Only the fields relevant to Kind are set.
type Event struct {
	Kind    EventKind     `json:"kind"`
	Elapsed time.Duration `json:"elapsed"`

	// unit.created, squad.recharging, squad.ready, damage.applied
	Squad    SquadRef `json:"squad"`
	UnitID   string   `json:"unitId,omitempty"`
	UnitKind UnitKind `json:"unitKind,omitempty"`

	// attack.attempted
	Attacker            SquadRef `json:"attacker"`
	Defender            SquadRef `json:"defender"`
	Strategy            Strategy `json:"strategy,omitempty"`
	AttackerProbability float64  `json:"attackerProbability,omitempty"`
	DefenderProbability float64  `json:"defenderProbability,omitempty"`
	Success             bool     `json:"success,omitempty"`

	// damage.applied
	Amount          float64 `json:"amount,omitempty"`
	RemainingHealth float64 `json:"remainingHealth,omitempty"`

	// battle.concluded
	Winner string `json:"winner,omitempty"`
}

// Notifier receives engine events. Notify runs on the engine loop while the
// battle state is locked, so it must not call Battle.Snapshot and should hand
// slow work off to another goroutine.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

type nopNotifier struct{}

func (nopNotifier) Notify(Event) {}
