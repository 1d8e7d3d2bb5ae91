package v1

import (
	"sort"
	"time"

	"github.com/battlesim/battlesim/internal/model/core"
)

// FormatVersion is written into every report.
const FormatVersion = 1

// BattleData contains all the data needed to build a report
type BattleData struct {
	Battle      *core.Battle
	Outcome     *core.Outcome
	Units       []core.Unit
	Attacks     []core.Attack
	Damages     []core.Damage
	SquadStates []core.SquadState
}

type squadKey struct {
	army  string
	index int
}

// Build creates a Report from the battle data.
//
// Events are ordered by elapsed time and use these shapes:
//
//	[elapsedMs, "attack", attackerArmy, attackerSquad, defenderArmy, defenderSquad, strategy, pAttack, pDefend, success]
//	[elapsedMs, "damage", army, squad, amount, remainingHealth]
//	[elapsedMs, "squad", army, squad, state]
func Build(data *BattleData) Report {
	report := Report{
		Version:   FormatVersion,
		BattleID:  data.Battle.ID.String(),
		Name:      data.Battle.Name,
		Seed:      data.Battle.Seed,
		StartTime: data.Battle.StartTime.UTC().Format(time.RFC3339Nano),
		Armies:    make([]Army, 0, len(data.Battle.Armies)),
		Events:    make([][]any, 0, len(data.Attacks)+len(data.Damages)+len(data.SquadStates)),
	}
	if o := data.Outcome; o != nil {
		report.EndTime = o.EndTime.UTC().Format(time.RFC3339Nano)
		report.ElapsedMs = o.Elapsed.Milliseconds()
		report.Winner = o.Winner
		report.Concluded = o.Concluded
		report.Attacks = o.Attacks
		report.Hits = o.Hits
	}

	squads := make(map[squadKey]*Squad)
	for _, a := range data.Battle.Armies {
		army := Army{Name: a.Name, Strategy: a.Strategy, Squads: make([]Squad, len(a.Squads))}
		for i, s := range a.Squads {
			army.Squads[i] = Squad{Index: s.Index, Strategy: s.Strategy, Units: make([]Unit, 0, s.Units)}
		}
		report.Armies = append(report.Armies, army)
	}
	for ai := range report.Armies {
		a := &report.Armies[ai]
		for si := range a.Squads {
			squads[squadKey{a.Name, a.Squads[si].Index}] = &a.Squads[si]
		}
	}

	for _, u := range data.Units {
		if s, ok := squads[squadKey{u.Army, u.Squad}]; ok {
			s.Units = append(s.Units, Unit{ID: u.UnitID, Kind: u.Kind})
		}
	}

	type timed struct {
		at    time.Duration
		seq   int
		event []any
	}
	var timeline []timed
	add := func(at time.Duration, event []any) {
		timeline = append(timeline, timed{at: at, seq: len(timeline), event: event})
	}

	for _, a := range data.Attacks {
		if s, ok := squads[squadKey{a.AttackerArmy, a.AttackerSquad}]; ok {
			s.Attacks++
			if a.Success {
				s.Hits++
			}
		}
		add(a.Elapsed, []any{
			a.Elapsed.Milliseconds(), "attack",
			a.AttackerArmy, a.AttackerSquad,
			a.DefenderArmy, a.DefenderSquad,
			a.Strategy, a.AttackerProbability, a.DefenderProbability, a.Success,
		})
	}

	for _, d := range data.Damages {
		if s, ok := squads[squadKey{d.Army, d.Squad}]; ok {
			s.DamageTaken += d.Amount
			health := d.RemainingHealth
			s.FinalHealth = &health
		}
		add(d.Elapsed, []any{d.Elapsed.Milliseconds(), "damage", d.Army, d.Squad, d.Amount, d.RemainingHealth})
	}

	for _, st := range data.SquadStates {
		add(st.Elapsed, []any{st.Elapsed.Milliseconds(), "squad", st.Army, st.Squad, st.State})
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		if timeline[i].at != timeline[j].at {
			return timeline[i].at < timeline[j].at
		}
		return timeline[i].seq < timeline[j].seq
	})
	for _, t := range timeline {
		report.Events = append(report.Events, t.event)
	}

	return report
}
