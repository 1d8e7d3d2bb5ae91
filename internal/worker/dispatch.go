package worker

import (
	"fmt"

	"github.com/battlesim/battlesim/internal/dispatcher"
	"github.com/battlesim/battlesim/internal/engine"
	"github.com/battlesim/battlesim/internal/influx"
	"github.com/battlesim/battlesim/internal/model/core"
)

// RegisterHandlers registers a handler for every engine event kind.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Unit creation - sync, happens once while the battle is built
	d.Register(string(engine.EventUnitCreated), m.handleUnitCreated, dispatcher.Logged())

	// Per-cycle events - buffered, blocking so records are never dropped
	d.Register(string(engine.EventSquadRecharging), m.handleSquadState, dispatcher.Buffered(10000), dispatcher.Blocking(), dispatcher.Logged())
	d.Register(string(engine.EventSquadReady), m.handleSquadState, dispatcher.Buffered(10000), dispatcher.Blocking(), dispatcher.Logged())
	d.Register(string(engine.EventAttackAttempted), m.handleAttack, dispatcher.Buffered(5000), dispatcher.Blocking(), dispatcher.Logged())
	d.Register(string(engine.EventDamageApplied), m.handleDamage, dispatcher.Buffered(5000), dispatcher.Blocking(), dispatcher.Logged())

	// Conclusion - sync
	d.Register(string(engine.EventBattleConcluded), m.handleConcluded, dispatcher.Logged())
}

// payload extracts the engine event and the battle it belongs to.
func (m *Manager) payload(e dispatcher.Event) (engine.Event, *core.Battle, error) {
	ev, ok := e.Payload.(engine.Event)
	if !ok {
		return engine.Event{}, nil, fmt.Errorf("%w: %T", ErrBadPayload, e.Payload)
	}
	b := m.Battle()
	if b == nil {
		return ev, nil, ErrNotStarted
	}
	return ev, b, nil
}

func (m *Manager) handleUnitCreated(e dispatcher.Event) (any, error) {
	ev, b, err := m.payload(e)
	if err != nil {
		return nil, err
	}

	u := core.Unit{
		BattleID: b.ID,
		UnitID:   ev.UnitID,
		Kind:     string(ev.UnitKind),
		Army:     ev.Squad.Army,
		Squad:    ev.Squad.Index,
	}
	if err := m.deps.Backend.RecordUnit(&u); err != nil {
		return nil, fmt.Errorf("failed to record unit %s: %w", ev.UnitID, err)
	}
	return nil, nil
}

func (m *Manager) handleSquadState(e dispatcher.Event) (any, error) {
	ev, b, err := m.payload(e)
	if err != nil {
		return nil, err
	}

	state := core.SquadRecharging
	if ev.Kind == engine.EventSquadReady {
		state = core.SquadReady
	}
	s := core.SquadState{
		BattleID: b.ID,
		Time:     b.StartTime.Add(ev.Elapsed),
		Elapsed:  ev.Elapsed,
		Army:     ev.Squad.Army,
		Squad:    ev.Squad.Index,
		State:    state,
	}
	if err := m.deps.Backend.RecordSquadState(&s); err != nil {
		return nil, fmt.Errorf("failed to record squad state: %w", err)
	}
	m.writePoint(influx.SquadStatePoint(s))
	return nil, nil
}

func (m *Manager) handleAttack(e dispatcher.Event) (any, error) {
	ev, b, err := m.payload(e)
	if err != nil {
		return nil, err
	}

	a := core.Attack{
		BattleID:            b.ID,
		Time:                b.StartTime.Add(ev.Elapsed),
		Elapsed:             ev.Elapsed,
		AttackerArmy:        ev.Attacker.Army,
		AttackerSquad:       ev.Attacker.Index,
		DefenderArmy:        ev.Defender.Army,
		DefenderSquad:       ev.Defender.Index,
		Strategy:            ev.Strategy.String(),
		AttackerProbability: ev.AttackerProbability,
		DefenderProbability: ev.DefenderProbability,
		Success:             ev.Success,
	}
	if err := m.deps.Backend.RecordAttack(&a); err != nil {
		return nil, fmt.Errorf("failed to record attack: %w", err)
	}
	m.writePoint(influx.AttackPoint(a))
	return nil, nil
}

func (m *Manager) handleDamage(e dispatcher.Event) (any, error) {
	ev, b, err := m.payload(e)
	if err != nil {
		return nil, err
	}

	d := core.Damage{
		BattleID:        b.ID,
		Time:            b.StartTime.Add(ev.Elapsed),
		Elapsed:         ev.Elapsed,
		Army:            ev.Squad.Army,
		Squad:           ev.Squad.Index,
		Amount:          ev.Amount,
		RemainingHealth: ev.RemainingHealth,
	}
	if err := m.deps.Backend.RecordDamage(&d); err != nil {
		return nil, fmt.Errorf("failed to record damage: %w", err)
	}
	m.writePoint(influx.DamagePoint(d))
	return nil, nil
}

func (m *Manager) handleConcluded(e dispatcher.Event) (any, error) {
	ev, b, err := m.payload(e)
	if err != nil {
		return nil, err
	}
	m.log.Info("Battle concluded", "battle_id", b.ID, "winner", ev.Winner, "elapsed", ev.Elapsed)
	return ev.Winner, nil
}
