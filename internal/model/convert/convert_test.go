package convert

import (
	"testing"
	"time"

	"github.com/battlesim/battlesim/internal/model/core"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoreToBattle(t *testing.T) {
	id := uuid.New()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b := CoreToBattle(core.Battle{
		ID:        id,
		Name:      "ridge",
		Seed:      7,
		StartTime: start,
		Armies: []core.Army{
			{Name: "Red", Strategy: "weakest", Squads: []core.Squad{{Index: 0, Strategy: "weakest", Units: 5}}},
		},
	})

	assert.Equal(t, id, b.ID)
	assert.Equal(t, "ridge", b.Name)
	assert.Equal(t, int64(7), b.Seed)
	assert.Equal(t, start, b.StartTime)

	layout, err := LayoutFromJSON(b.Layout)
	require.NoError(t, err)
	require.Len(t, layout, 1)
	assert.Equal(t, "Red", layout[0].Name)
	assert.Equal(t, 5, layout[0].Squads[0].Units)
}

func TestCoreToBattle_EmptyLayout(t *testing.T) {
	b := CoreToBattle(core.Battle{})
	assert.JSONEq(t, "[]", string(b.Layout))

	layout, err := LayoutFromJSON(nil)
	require.NoError(t, err)
	assert.Empty(t, layout)
}

func TestOutcomeUpdates(t *testing.T) {
	end := time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC)
	u := OutcomeUpdates(core.Outcome{
		EndTime:   end,
		Elapsed:   1500 * time.Millisecond,
		Winner:    "Blue",
		Attacks:   40,
		Hits:      12,
		Concluded: true,
	})

	assert.Equal(t, int64(1500), u["elapsed_ms"])
	assert.Equal(t, "Blue", u["winner"])
	assert.Equal(t, true, u["concluded"])
	assert.Equal(t, 40, u["attacks"])
	assert.Equal(t, 12, u["hits"])
	assert.Equal(t, end, *(u["end_time"].(*time.Time)))
}

func TestAttackEventRoundTrip(t *testing.T) {
	a := core.Attack{
		BattleID:            uuid.New(),
		Time:                time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC),
		Elapsed:             2 * time.Second,
		AttackerArmy:        "Red",
		AttackerSquad:       1,
		DefenderArmy:        "Blue",
		DefenderSquad:       0,
		Strategy:            "strongest",
		AttackerProbability: 0.61,
		DefenderProbability: 0.42,
		Success:             true,
	}

	m := CoreToAttackEvent(a)
	assert.Equal(t, int64(2000), m.ElapsedMs)
	assert.Equal(t, a, AttackEventToCore(m))
}

func TestCoreToDamageEvent(t *testing.T) {
	d := CoreToDamageEvent(core.Damage{
		Army:            "Blue",
		Squad:           1,
		Elapsed:         250 * time.Millisecond,
		Amount:          3.5,
		RemainingHealth: 412.25,
	})
	assert.Equal(t, "Blue", d.Army)
	assert.Equal(t, int64(250), d.ElapsedMs)
	assert.Equal(t, 3.5, d.Amount)
	assert.Equal(t, 412.25, d.RemainingHealth)
}

func TestCoreToSquadStateEvent(t *testing.T) {
	s := CoreToSquadStateEvent(core.SquadState{Army: "Red", Squad: 2, State: core.SquadReady})
	assert.Equal(t, "ready", s.State)
	assert.Equal(t, 2, s.Squad)
}

func TestCoreToUnit(t *testing.T) {
	u := CoreToUnit(core.Unit{UnitID: "Red/0/3", Kind: "vehicle", Army: "Red"})
	assert.Equal(t, "Red/0/3", u.UnitID)
	assert.Equal(t, "vehicle", u.Kind)
}

func TestBattleToCore(t *testing.T) {
	id := uuid.New()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stored := CoreToBattle(core.Battle{
		ID:        id,
		Name:      "ridge",
		Seed:      7,
		StartTime: start,
		Armies:    []core.Army{{Name: "Red", Strategy: "random", Squads: []core.Squad{{Index: 0, Strategy: "random", Units: 6}}}},
	})

	b, outcome, err := BattleToCore(stored)
	require.NoError(t, err)
	assert.Nil(t, outcome)
	assert.Equal(t, id, b.ID)
	assert.Equal(t, int64(7), b.Seed)
	require.Len(t, b.Armies, 1)
	assert.Equal(t, 6, b.Armies[0].Squads[0].Units)

	end := start.Add(90 * time.Second)
	stored.EndTime = &end
	stored.ElapsedMs = 90000
	stored.Winner = "Red"
	stored.Concluded = true
	stored.Attacks = 40
	stored.Hits = 12

	_, outcome, err = BattleToCore(stored)
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.Equal(t, id, outcome.BattleID)
	assert.Equal(t, end, outcome.EndTime)
	assert.Equal(t, 90*time.Second, outcome.Elapsed)
	assert.Equal(t, "Red", outcome.Winner)
	assert.True(t, outcome.Concluded)
	assert.Equal(t, 40, outcome.Attacks)
	assert.Equal(t, 12, outcome.Hits)
}

func TestBattleToCore_BadLayout(t *testing.T) {
	stored := CoreToBattle(core.Battle{ID: uuid.New()})
	stored.Layout = []byte("{not json")

	_, _, err := BattleToCore(stored)
	assert.Error(t, err)
}

func TestEventsToCore(t *testing.T) {
	id := uuid.New()
	at := time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC)

	u := core.Unit{ID: 3, BattleID: id, UnitID: "Red/0/2", Kind: "vehicle", Army: "Red", Squad: 0}
	assert.Equal(t, u, UnitToCore(CoreToUnit(u)))

	d := core.Damage{ID: 4, BattleID: id, Time: at, Elapsed: 1500 * time.Millisecond, Army: "Blue", Squad: 1, Amount: 0.25, RemainingHealth: 380}
	assert.Equal(t, d, DamageEventToCore(CoreToDamageEvent(d)))

	s := core.SquadState{ID: 5, BattleID: id, Time: at, Elapsed: 2 * time.Second, Army: "Blue", Squad: 1, State: core.SquadReady}
	assert.Equal(t, s, SquadStateEventToCore(CoreToSquadStateEvent(s)))
}
