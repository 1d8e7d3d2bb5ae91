package engine

import "fmt"

const (
	vehicleRechargeMin = 1000
	vehicleRechargeMax = 2000

	minOperators = 1
	maxOperators = 3

	hullDamageShare     = 0.6
	operatorDamageShare = 0.2
)

// Vehicle is the composite unit variant: an armoured hull crewed by 1–3
// soldier operators. The embedded unit health is the hull only.
//
// A vehicle reports ready to its squad only after its own hull recharge and
// the recharge of every active operator have completed.
type Vehicle struct {
	unit
	squad     readyReceiver
	operators []*Soldier
	ready     map[Unit]struct{}
}

func newVehicle(id string, e *env, squad readyReceiver) *Vehicle {
	v := &Vehicle{
		squad: squad,
		ready: make(map[Unit]struct{}),
	}
	v.unit = unit{
		id:       id,
		health:   maxHealth,
		recharge: e.rng.IntRange(vehicleRechargeMin, vehicleRechargeMax),
		env:      e,
		parent:   v,
	}
	v.self = v

	n := e.rng.IntRange(minOperators, maxOperators)
	v.operators = make([]*Soldier, 0, n)
	for i := 0; i < n; i++ {
		v.operators = append(v.operators, newSoldier(fmt.Sprintf("%s/op%d", id, i+1), e, v))
	}
	return v
}

func (v *Vehicle) Kind() UnitKind { return UnitVehicle }

// HullHealth is the armour health alone.
func (v *Vehicle) HullHealth() float64 { return v.health }

// Operators returns every operator, dead or alive, in creation order.
func (v *Vehicle) Operators() []*Soldier {
	return append([]*Soldier(nil), v.operators...)
}

// ActiveOperators returns the operators still alive.
func (v *Vehicle) ActiveOperators() []*Soldier {
	active := make([]*Soldier, 0, len(v.operators))
	for _, op := range v.operators {
		if op.IsActive() {
			active = append(active, op)
		}
	}
	return active
}

// Health is the mean of the hull and every active operator.
func (v *Vehicle) Health() float64 {
	sum := v.health
	active := v.ActiveOperators()
	for _, op := range active {
		sum += op.Health()
	}
	return sum / float64(len(active)+1)
}

// IsActive holds while the hull or any operator is alive. This is looser than
// Health() > 0 on purpose.
func (v *Vehicle) IsActive() bool {
	if v.health > 0 {
		return true
	}
	for _, op := range v.operators {
		if op.Health() > 0 {
			return true
		}
	}
	return false
}

// AttackProbability is 0.5 * (1 + Health()) * geomean(operator probabilities).
// Health is not scaled to [0,1] here, unlike Soldier.
func (v *Vehicle) AttackProbability() float64 {
	active := v.ActiveOperators()
	probs := make([]float64, 0, len(active))
	for _, op := range active {
		probs = append(probs, op.AttackProbability())
	}
	return v.probability(probs)
}

func (v *Vehicle) probability(operators []float64) float64 {
	return 0.5 * (1 + v.Health()) * GeometricMean(operators)
}

func (v *Vehicle) probabilityRange() (lo, hi float64) {
	active := v.ActiveOperators()
	los := make([]float64, 0, len(active))
	his := make([]float64, 0, len(active))
	for _, op := range active {
		l, h := op.probabilityRange()
		los = append(los, l)
		his = append(his, h)
	}
	return v.probability(los), v.probability(his)
}

func (v *Vehicle) Damage() float64 {
	damage := 0.1
	for _, op := range v.ActiveOperators() {
		damage += float64(op.Experience())
	}
	return damage
}

// ReceiveDamage puts 60% of amount on the hull and 40% on the crew: 20% on a
// random operator and 20% split across the rest, or all 40% on a sole
// operator. Without a crew the hull takes everything.
func (v *Vehicle) ReceiveDamage(amount float64) {
	active := v.ActiveOperators()
	if len(active) == 0 {
		v.SetHealth(v.health - amount)
		v.destroyIfInactive(active)
		return
	}

	target := active[v.env.rng.Intn(len(active))]

	v.SetHealth(v.health - amount*hullDamageShare)

	if len(active) == 1 {
		target.ReceiveDamage(amount * (1 - hullDamageShare))
	} else {
		target.ReceiveDamage(amount * operatorDamageShare)
		share := amount * operatorDamageShare / float64(len(active)-1)
		for _, op := range active {
			if op != target {
				op.ReceiveDamage(share)
			}
		}
	}

	v.destroyIfInactive(active)
}

func (v *Vehicle) destroyIfInactive(crew []*Soldier) {
	if v.IsActive() {
		return
	}
	v.health = 0
	for _, op := range crew {
		op.SetHealth(0)
	}
	v.cancelRecharge()
	clear(v.ready)
}

func (v *Vehicle) LevelUp() {
	for _, op := range v.ActiveOperators() {
		op.LevelUp()
	}
}

// Recharge restarts the hull and every active operator.
func (v *Vehicle) Recharge() {
	if !v.IsActive() {
		return
	}
	clear(v.ready)
	for _, op := range v.ActiveOperators() {
		op.Recharge()
	}
	v.startRecharge()
}

// ReadyCount is the number of members (hull plus active operators) that have
// reported this cycle.
func (v *Vehicle) ReadyCount() int {
	n := 0
	if _, ok := v.ready[v]; ok {
		n++
	}
	for _, op := range v.operators {
		if _, ok := v.ready[op]; ok && op.IsActive() {
			n++
		}
	}
	return n
}

func (v *Vehicle) unitReady(u Unit) error {
	if !v.IsActive() || !u.IsActive() {
		return nil
	}
	v.ready[u] = struct{}{}
	return v.checkBarrier()
}

func (v *Vehicle) checkBarrier() error {
	if len(v.ready) == 0 || !v.IsActive() {
		return nil
	}
	if v.ReadyCount() != len(v.ActiveOperators())+1 {
		return nil
	}
	clear(v.ready)
	return v.squad.unitReady(v)
}
