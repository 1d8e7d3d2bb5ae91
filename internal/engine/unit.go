package engine

import (
	"fmt"
	"strings"
	"time"
)

const maxHealth = 100.0

// UnitKind is the closed set of unit variants.
type UnitKind string

const (
	UnitSoldier UnitKind = "soldier"
	UnitVehicle UnitKind = "vehicle"
)

// UnitKinds lists every variant, in the order the factory samples them.
var UnitKinds = []UnitKind{UnitSoldier, UnitVehicle}

// ParseUnitKind maps a configuration token to a UnitKind.
func ParseUnitKind(token string) (UnitKind, error) {
	switch k := UnitKind(strings.ToLower(strings.TrimSpace(token))); k {
	case UnitSoldier, UnitVehicle:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedUnitType, token)
	}
}

// Unit is a combat entity owned by a squad or, for vehicle operators, by a vehicle.
type Unit interface {
	ID() string
	Kind() UnitKind
	// Health is in [0, 100].
	Health() float64
	// SetHealth clamps v to [0, 100] and cancels a pending recharge once the
	// unit is no longer active.
	SetHealth(v float64)
	IsActive() bool
	ReceiveDamage(amount float64)
	// Damage is the unit's contribution to a successful squad attack.
	Damage() float64
	// AttackProbability is the unit's contest strength for this round.
	AttackProbability() float64
	// probabilityRange bounds AttackProbability until health or experience change.
	probabilityRange() (lo, hi float64)
	LevelUp()
	// Recharge (re)starts the recharge countdown; on expiry the unit reports
	// ready to its owner.
	Recharge()
	RechargeDuration() time.Duration
	Recharging() bool

	base() *unit
}

// readyReceiver is the direct aggregator a unit reports readiness to.
type readyReceiver interface {
	unitReady(u Unit) error
}

// unit holds the state every variant shares. All mutation happens on the
// engine loop.
type unit struct {
	id       string
	health   float64
	recharge int // in time units
	env      *env
	self     Unit
	parent   readyReceiver

	cycle   uint64
	pending bool
	timer   Timer
}

func (u *unit) ID() string { return u.id }

func (u *unit) Health() float64 { return u.health }

func (u *unit) SetHealth(v float64) {
	u.health = clamp(v, 0, maxHealth)
	if !u.self.IsActive() {
		u.cancelRecharge()
	}
}

func (u *unit) IsActive() bool { return u.health > 0 }

func (u *unit) ReceiveDamage(amount float64) {
	u.SetHealth(u.health - amount)
}

func (u *unit) LevelUp() {}

func (u *unit) Recharge() { u.startRecharge() }

func (u *unit) RechargeDuration() time.Duration {
	return time.Duration(u.recharge) * u.env.timeUnit
}

func (u *unit) Recharging() bool { return u.pending }

func (u *unit) base() *unit { return u }

func (u *unit) startRecharge() {
	if !u.self.IsActive() {
		return
	}
	u.stopTimer()
	u.cycle++
	cycle := u.cycle
	u.pending = true
	u.timer = u.env.clock.AfterFunc(u.RechargeDuration(), func() {
		u.env.deliver(signal{unit: u, cycle: cycle})
	})
}

// cancelRecharge is idempotent.
func (u *unit) cancelRecharge() {
	u.pending = false
	u.stopTimer()
}

func (u *unit) stopTimer() {
	if u.timer != nil {
		u.timer.Stop()
		u.timer = nil
	}
}

// complete consumes a recharge signal. It reports false for stale signals
// and for units that died while the signal was in flight.
func (u *unit) complete(cycle uint64) bool {
	if !u.pending || cycle != u.cycle {
		return false
	}
	u.pending = false
	u.timer = nil
	return u.self.IsActive()
}

// newUnit is the variant factory.
func newUnit(kind UnitKind, id string, e *env, parent readyReceiver) Unit {
	switch kind {
	case UnitVehicle:
		return newVehicle(id, e, parent)
	default:
		return newSoldier(id, e, parent)
	}
}
