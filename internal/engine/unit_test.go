package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Unit = (*Soldier)(nil)
	_ Unit = (*Vehicle)(nil)
)

func TestParseUnitKind(t *testing.T) {
	k, err := ParseUnitKind(" Vehicle ")
	require.NoError(t, err)
	assert.Equal(t, UnitVehicle, k)

	_, err = ParseUnitKind("tank")
	assert.True(t, errors.Is(err, ErrUnsupportedUnitType))
}

func TestSoldier_Defaults(t *testing.T) {
	te := newTestEnv(fixedRandom{high: true})
	s := newSoldier("Red/0/0", te.env, &readyRecorder{})

	assert.Equal(t, "Red/0/0", s.ID())
	assert.Equal(t, UnitSoldier, s.Kind())
	assert.Equal(t, 100.0, s.Health())
	assert.Equal(t, 0, s.Experience())
	assert.True(t, s.IsActive())
	assert.Equal(t, 2000*time.Millisecond, s.RechargeDuration())
	assert.InDelta(t, 0.05, s.Damage(), 1e-9)
}

func TestSoldier_AttackProbability(t *testing.T) {
	high := newSoldier("a", newTestEnv(fixedRandom{high: true}).env, &readyRecorder{})
	assert.InDelta(t, 1.0, high.AttackProbability(), 1e-9)

	high.SetHealth(50)
	assert.InDelta(t, 0.75, high.AttackProbability(), 1e-9)

	low := newSoldier("b", newTestEnv(fixedRandom{}).env, &readyRecorder{})
	assert.InDelta(t, 0.5, low.AttackProbability(), 1e-9)
}

func TestSoldier_LevelUpCapped(t *testing.T) {
	s := newSoldier("a", newTestEnv(fixedRandom{}).env, &readyRecorder{})
	for i := 0; i < 60; i++ {
		s.LevelUp()
	}
	assert.Equal(t, 50, s.Experience())
	assert.InDelta(t, 0.55, s.Damage(), 1e-9)
	// The roll floor rises with experience.
	assert.InDelta(t, 1.0, s.AttackProbability(), 1e-9)
}

func TestSoldier_HealthClamped(t *testing.T) {
	s := newSoldier("a", newTestEnv(fixedRandom{}).env, &readyRecorder{})
	s.SetHealth(150)
	assert.Equal(t, 100.0, s.Health())
	s.ReceiveDamage(130)
	assert.Equal(t, 0.0, s.Health())
	assert.False(t, s.IsActive())
}

func TestSoldier_DeathCancelsRecharge(t *testing.T) {
	te := newTestEnv(fixedRandom{})
	rec := &readyRecorder{}
	s := newSoldier("a", te.env, rec)

	s.Recharge()
	assert.True(t, s.Recharging())
	assert.Equal(t, 1, te.clock.Pending())

	s.ReceiveDamage(100)
	assert.False(t, s.Recharging())
	assert.Equal(t, 0, te.clock.Pending())

	// A dead unit never restarts.
	s.Recharge()
	assert.False(t, s.Recharging())
	assert.Empty(t, rec.got)
}

func TestSoldier_StaleSignalDiscarded(t *testing.T) {
	te := newTestEnv(fixedRandom{})
	rec := &readyRecorder{}
	s := newSoldier("a", te.env, rec)

	s.Recharge()
	first := s.cycle
	s.Recharge()

	assert.False(t, s.complete(first))
	assert.True(t, s.complete(s.cycle))
	assert.False(t, s.complete(s.cycle), "a cycle completes once")
}

func TestVehicle_Crew(t *testing.T) {
	full := newVehicle("Red/0/1", newTestEnv(fixedRandom{high: true}).env, &readyRecorder{})
	require.Len(t, full.Operators(), 3)
	assert.Equal(t, "Red/0/1/op1", full.Operators()[0].ID())
	assert.Equal(t, "Red/0/1/op3", full.Operators()[2].ID())
	assert.Equal(t, 2000*time.Millisecond, full.RechargeDuration())

	solo := newVehicle("v", newTestEnv(fixedRandom{}).env, &readyRecorder{})
	require.Len(t, solo.Operators(), 1)
	assert.Equal(t, 1000*time.Millisecond, solo.RechargeDuration())
	assert.Equal(t, UnitVehicle, solo.Kind())
}

func TestVehicle_HealthAndProbability(t *testing.T) {
	v := newVehicle("v", newTestEnv(fixedRandom{high: true}).env, &readyRecorder{})

	assert.Equal(t, 100.0, v.Health())
	// Operators roll 1.0 each; vehicle health is not scaled down.
	assert.InDelta(t, 50.5, v.AttackProbability(), 1e-9)

	v.SetHealth(40)
	v.Operators()[0].SetHealth(80)
	assert.InDelta(t, (40.0+80+100+100)/4, v.Health(), 1e-9)

	v.Operators()[1].SetHealth(0)
	assert.InDelta(t, (40.0+80+100)/3, v.Health(), 1e-9)
}

func TestVehicle_Damage(t *testing.T) {
	v := newVehicle("v", newTestEnv(fixedRandom{high: true}).env, &readyRecorder{})
	assert.InDelta(t, 0.1, v.Damage(), 1e-9)

	v.LevelUp()
	v.LevelUp()
	assert.InDelta(t, 0.1+3*2, v.Damage(), 1e-9)

	v.Operators()[0].SetHealth(0)
	v.LevelUp()
	assert.InDelta(t, 0.1+2*3, v.Damage(), 1e-9)
	assert.Equal(t, 2, v.Operators()[0].Experience())
}

func TestVehicle_ReceiveDamageSplit(t *testing.T) {
	v := newVehicle("v", newTestEnv(fixedRandom{high: true, pick: 1}).env, &readyRecorder{})
	before := v.HullHealth()
	for _, op := range v.Operators() {
		before += op.Health()
	}

	v.ReceiveDamage(10)

	ops := v.Operators()
	assert.InDelta(t, 94.0, v.HullHealth(), 1e-9)
	assert.InDelta(t, 99.0, ops[0].Health(), 1e-9)
	assert.InDelta(t, 98.0, ops[1].Health(), 1e-9, "the randomly chosen operator takes 20%")
	assert.InDelta(t, 99.0, ops[2].Health(), 1e-9)

	after := v.HullHealth()
	for _, op := range ops {
		after += op.Health()
	}
	assert.InDelta(t, 10.0, before-after, 1e-9)
}

func TestVehicle_ReceiveDamageSoleOperator(t *testing.T) {
	v := newVehicle("v", newTestEnv(fixedRandom{}).env, &readyRecorder{})

	v.ReceiveDamage(10)

	assert.InDelta(t, 94.0, v.HullHealth(), 1e-9)
	assert.InDelta(t, 96.0, v.Operators()[0].Health(), 1e-9)
}

func TestVehicle_ReceiveDamageNoCrew(t *testing.T) {
	v := newVehicle("v", newTestEnv(fixedRandom{}).env, &readyRecorder{})
	v.Operators()[0].SetHealth(0)

	v.ReceiveDamage(10)
	assert.InDelta(t, 90.0, v.HullHealth(), 1e-9)
}

func TestVehicle_ActiveWhileAnyMemberAlive(t *testing.T) {
	te := newTestEnv(fixedRandom{high: true})
	v := newVehicle("v", te.env, &readyRecorder{})
	v.Recharge()

	v.SetHealth(0)
	assert.True(t, v.IsActive(), "crew alive keeps the vehicle active")
	assert.True(t, v.Recharging(), "hull keeps recharging while the vehicle is active")

	for _, op := range v.Operators()[:2] {
		op.SetHealth(0)
	}
	assert.True(t, v.IsActive())

	v.ReceiveDamage(1000)
	assert.False(t, v.IsActive())
	assert.False(t, v.Recharging())
	for _, op := range v.Operators() {
		assert.False(t, op.Recharging())
	}
	assert.Equal(t, 0, te.clock.Pending())
}

func TestVehicle_Barrier(t *testing.T) {
	te := newTestEnv(fixedRandom{high: true})
	rec := &readyRecorder{}
	v := newVehicle("v", te.env, rec)

	v.Recharge()
	require.Equal(t, 4, te.clock.Pending())

	// Operators were scheduled first and share the hull's duration.
	for i := 0; i < 3; i++ {
		te.step(t)
		assert.Empty(t, rec.got)
		assert.Equal(t, i+1, v.ReadyCount())
	}

	te.step(t)
	require.Len(t, rec.got, 1)
	assert.Same(t, v, rec.got[0])
	assert.Equal(t, 0, v.ReadyCount())
}

func TestVehicle_BarrierShrinksWhenOperatorDies(t *testing.T) {
	te := newTestEnv(fixedRandom{high: true})
	rec := &readyRecorder{}
	v := newVehicle("v", te.env, rec)

	v.Recharge()
	te.step(t)
	te.step(t)

	v.Operators()[2].SetHealth(0)
	assert.Equal(t, 1, te.clock.Pending(), "only the hull is left")

	te.step(t)
	require.Len(t, rec.got, 1)
}

func TestVehicle_RecheckAfterPendingOperatorDies(t *testing.T) {
	te := newTestEnv(fixedRandom{high: true})
	rec := &readyRecorder{}
	v := newVehicle("v", te.env, rec)
	v.operators[2].recharge = 3000

	v.Recharge()
	te.step(t)
	te.step(t)
	te.step(t)
	assert.Equal(t, 3, v.ReadyCount())
	require.Empty(t, rec.got)

	// Everyone still alive has reported, but no signal is left to notice.
	v.Operators()[2].SetHealth(0)
	assert.Equal(t, 0, te.clock.Pending())
	require.Empty(t, rec.got)

	require.NoError(t, v.checkBarrier())
	require.Len(t, rec.got, 1)

	require.NoError(t, v.checkBarrier())
	assert.Len(t, rec.got, 1, "re-checking after the barrier fired is a no-op")
}

func TestVehicle_DeadHullKeepsRecharging(t *testing.T) {
	te := newTestEnv(fixedRandom{high: true})
	rec := &readyRecorder{}
	v := newVehicle("v", te.env, rec)

	v.Recharge()
	require.Equal(t, 4, te.clock.Pending())

	v.SetHealth(0)
	assert.Zero(t, v.HullHealth())
	assert.True(t, v.Recharging(), "a live crew keeps the hull timer running")
	assert.Equal(t, 4, te.clock.Pending())

	// The wrecked hull still reports, so the vehicle reaches its barrier.
	for i := 0; i < 4; i++ {
		te.step(t)
	}
	require.Len(t, rec.got, 1)
	assert.Same(t, v, rec.got[0])

	v.Recharge()
	assert.Equal(t, 4, te.clock.Pending(), "the next cycle schedules the hull again")
}
