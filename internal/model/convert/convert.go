// Package convert provides functions to convert core battle records to GORM models
package convert

import (
	"encoding/json"
	"time"

	"github.com/battlesim/battlesim/internal/model"
	"github.com/battlesim/battlesim/internal/model/core"
	"gorm.io/datatypes"
)

// layoutToJSON converts the initial armies to datatypes.JSON for DB storage.
func layoutToJSON(armies []core.Army) datatypes.JSON {
	if len(armies) == 0 {
		return datatypes.JSON("[]")
	}
	data, err := json.Marshal(armies)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(data)
}

// LayoutFromJSON decodes a stored layout.
func LayoutFromJSON(data datatypes.JSON) ([]core.Army, error) {
	var armies []core.Army
	if len(data) == 0 {
		return armies, nil
	}
	err := json.Unmarshal(data, &armies)
	return armies, err
}

// CoreToBattle converts a core.Battle to a GORM model.Battle.
func CoreToBattle(b core.Battle) model.Battle {
	return model.Battle{
		ID:        b.ID,
		Name:      b.Name,
		Seed:      b.Seed,
		StartTime: b.StartTime,
		Layout:    layoutToJSON(b.Armies),
	}
}

// OutcomeUpdates returns the columns EndBattle sets on a battle row.
func OutcomeUpdates(o core.Outcome) map[string]any {
	end := o.EndTime
	return map[string]any{
		"end_time":   &end,
		"elapsed_ms": o.Elapsed.Milliseconds(),
		"winner":     o.Winner,
		"concluded":  o.Concluded,
		"attacks":    o.Attacks,
		"hits":       o.Hits,
	}
}

// CoreToUnit converts a core.Unit to a GORM model.Unit.
func CoreToUnit(u core.Unit) model.Unit {
	return model.Unit{
		ID:       u.ID,
		BattleID: u.BattleID,
		UnitID:   u.UnitID,
		Kind:     u.Kind,
		Army:     u.Army,
		Squad:    u.Squad,
	}
}

// CoreToAttackEvent converts a core.Attack to a GORM model.AttackEvent.
func CoreToAttackEvent(a core.Attack) model.AttackEvent {
	return model.AttackEvent{
		ID:                  a.ID,
		BattleID:            a.BattleID,
		Time:                a.Time,
		ElapsedMs:           a.Elapsed.Milliseconds(),
		AttackerArmy:        a.AttackerArmy,
		AttackerSquad:       a.AttackerSquad,
		DefenderArmy:        a.DefenderArmy,
		DefenderSquad:       a.DefenderSquad,
		Strategy:            a.Strategy,
		AttackerProbability: a.AttackerProbability,
		DefenderProbability: a.DefenderProbability,
		Success:             a.Success,
	}
}

// AttackEventToCore converts a GORM model.AttackEvent back to a core.Attack.
func AttackEventToCore(a model.AttackEvent) core.Attack {
	return core.Attack{
		ID:                  a.ID,
		BattleID:            a.BattleID,
		Time:                a.Time,
		Elapsed:             time.Duration(a.ElapsedMs) * time.Millisecond,
		AttackerArmy:        a.AttackerArmy,
		AttackerSquad:       a.AttackerSquad,
		DefenderArmy:        a.DefenderArmy,
		DefenderSquad:       a.DefenderSquad,
		Strategy:            a.Strategy,
		AttackerProbability: a.AttackerProbability,
		DefenderProbability: a.DefenderProbability,
		Success:             a.Success,
	}
}

// CoreToDamageEvent converts a core.Damage to a GORM model.DamageEvent.
func CoreToDamageEvent(d core.Damage) model.DamageEvent {
	return model.DamageEvent{
		ID:              d.ID,
		BattleID:        d.BattleID,
		Time:            d.Time,
		ElapsedMs:       d.Elapsed.Milliseconds(),
		Army:            d.Army,
		Squad:           d.Squad,
		Amount:          d.Amount,
		RemainingHealth: d.RemainingHealth,
	}
}

// CoreToSquadStateEvent converts a core.SquadState to a GORM model.SquadStateEvent.
func CoreToSquadStateEvent(s core.SquadState) model.SquadStateEvent {
	return model.SquadStateEvent{
		ID:        s.ID,
		BattleID:  s.BattleID,
		Time:      s.Time,
		ElapsedMs: s.Elapsed.Milliseconds(),
		Army:      s.Army,
		Squad:     s.Squad,
		State:     s.State,
	}
}

// BattleToCore converts a stored battle back to its core record and outcome.
// The outcome is nil while the battle has no end time.
func BattleToCore(b model.Battle) (core.Battle, *core.Outcome, error) {
	armies, err := LayoutFromJSON(b.Layout)
	if err != nil {
		return core.Battle{}, nil, err
	}
	battle := core.Battle{
		ID:        b.ID,
		Name:      b.Name,
		Seed:      b.Seed,
		StartTime: b.StartTime,
		Armies:    armies,
	}
	if b.EndTime == nil {
		return battle, nil, nil
	}
	return battle, &core.Outcome{
		BattleID:  b.ID,
		EndTime:   *b.EndTime,
		Elapsed:   time.Duration(b.ElapsedMs) * time.Millisecond,
		Winner:    b.Winner,
		Attacks:   b.Attacks,
		Hits:      b.Hits,
		Concluded: b.Concluded,
	}, nil
}

// UnitToCore converts a GORM model.Unit back to a core.Unit.
func UnitToCore(u model.Unit) core.Unit {
	return core.Unit{
		ID:       u.ID,
		BattleID: u.BattleID,
		UnitID:   u.UnitID,
		Kind:     u.Kind,
		Army:     u.Army,
		Squad:    u.Squad,
	}
}

// DamageEventToCore converts a GORM model.DamageEvent back to a core.Damage.
func DamageEventToCore(d model.DamageEvent) core.Damage {
	return core.Damage{
		ID:              d.ID,
		BattleID:        d.BattleID,
		Time:            d.Time,
		Elapsed:         time.Duration(d.ElapsedMs) * time.Millisecond,
		Army:            d.Army,
		Squad:           d.Squad,
		Amount:          d.Amount,
		RemainingHealth: d.RemainingHealth,
	}
}

// SquadStateEventToCore converts a GORM model.SquadStateEvent back to a core.SquadState.
func SquadStateEventToCore(s model.SquadStateEvent) core.SquadState {
	return core.SquadState{
		ID:       s.ID,
		BattleID: s.BattleID,
		Time:     s.Time,
		Elapsed:  time.Duration(s.ElapsedMs) * time.Millisecond,
		Army:     s.Army,
		Squad:    s.Squad,
		State:    s.State,
	}
}
