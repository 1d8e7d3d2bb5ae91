package engine

import (
	"testing"
	"time"

	"github.com/battlesim/battlesim/internal/scenario"
	"github.com/stretchr/testify/require"
)

// fixedRandom always rolls the top (or bottom) of every range and picks index
// pick for Intn, clamped to n-1.
type fixedRandom struct {
	high bool
	pick int
}

func (f fixedRandom) IntRange(min, max int) int {
	if f.high {
		return max
	}
	return min
}

func (f fixedRandom) Intn(n int) int {
	if f.pick >= n {
		return n - 1
	}
	return f.pick
}

var _ Random = fixedRandom{}

// testEnv collects delivered signals instead of feeding a battle loop.
type testEnv struct {
	*env
	clock   *VirtualClock
	signals []signal
	events  []Event
}

func newTestEnv(rng Random) *testEnv {
	te := &testEnv{clock: NewVirtualClock(time.Unix(0, 0))}
	te.env = &env{
		clock:    te.clock,
		rng:      rng,
		timeUnit: time.Millisecond,
		deliver:  func(s signal) { te.signals = append(te.signals, s) },
		notify:   func(e Event) { te.events = append(te.events, e) },
	}
	return te
}

// step fires the next timer and hands its signal to the owning aggregator.
func (te *testEnv) step(t *testing.T) {
	t.Helper()
	require.True(t, te.clock.Step(), "expected a pending timer")
	require.NotEmpty(t, te.signals)
	s := te.signals[0]
	te.signals = te.signals[1:]
	if s.unit.complete(s.cycle) {
		require.NoError(t, s.unit.parent.unitReady(s.unit.self))
	}
}

// readyRecorder stands in for a squad.
type readyRecorder struct {
	got []Unit
}

func (r *readyRecorder) unitReady(u Unit) error {
	r.got = append(r.got, u)
	return nil
}

func twoArmies(units int, strategy string, unitTypes ...string) *scenario.Battle {
	squad := scenario.Squad{Units: units, UnitTypes: unitTypes}
	return &scenario.Battle{
		Seed: 42,
		Armies: []scenario.Army{
			{Name: "Red", Strategy: strategy, Squads: []scenario.Squad{squad, squad}},
			{Name: "Blue", Strategy: strategy, Squads: []scenario.Squad{squad, squad}},
		},
	}
}

func findSquad(b *Battle, ref SquadRef) *Squad {
	for _, a := range b.Armies() {
		if a.Name() == ref.Army {
			return a.Squads()[ref.Index]
		}
	}
	return nil
}
