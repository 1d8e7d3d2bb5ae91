package engine

import (
	"fmt"
	"log/slog"
)

const (
	minSquadUnits = 5
	maxSquadUnits = 10
)

// Squad is an ordered group of units sharing one targeting strategy.
//
// The squad is a barrier with a shrinking participant set: it attacks once
// every currently active unit has reported ready. Units that die mid-cycle
// stop counting both as participants and as reported.
type Squad struct {
	index    int
	army     *Army
	strategy Strategy
	units    []Unit
	ready    map[Unit]struct{}
	env      *env
}

func newSquad(index int, army *Army, strategy Strategy, kinds []UnitKind, size int, e *env) *Squad {
	s := &Squad{
		index:    index,
		army:     army,
		strategy: strategy,
		units:    make([]Unit, 0, size),
		ready:    make(map[Unit]struct{}),
		env:      e,
	}
	for i := 0; i < size; i++ {
		kind := kinds[e.rng.Intn(len(kinds))]
		u := newUnit(kind, fmt.Sprintf("%s/%d", s.ID(), i), e, s)
		s.units = append(s.units, u)
		e.notify(Event{Kind: EventUnitCreated, Squad: s.Ref(), UnitID: u.ID(), UnitKind: kind})
	}
	return s
}

// Index is the squad's position within its army.
func (s *Squad) Index() int { return s.index }

func (s *Squad) Army() *Army { return s.army }

func (s *Squad) Strategy() Strategy { return s.strategy }

// ID is "<army>/<index>".
func (s *Squad) ID() string { return fmt.Sprintf("%s/%d", s.army.name, s.index) }

func (s *Squad) Ref() SquadRef { return SquadRef{Army: s.army.name, Index: s.index} }

// Units returns every unit in creation order.
func (s *Squad) Units() []Unit {
	return append([]Unit(nil), s.units...)
}

func (s *Squad) ActiveUnits() []Unit {
	active := make([]Unit, 0, len(s.units))
	for _, u := range s.units {
		if u.IsActive() {
			active = append(active, u)
		}
	}
	return active
}

func (s *Squad) IsActive() bool {
	for _, u := range s.units {
		if u.IsActive() {
			return true
		}
	}
	return false
}

// Health is the sum of the active units' health.
func (s *Squad) Health() float64 {
	var sum float64
	for _, u := range s.ActiveUnits() {
		sum += u.Health()
	}
	return sum
}

// Damage is the sum of the active units' damage.
func (s *Squad) Damage() float64 {
	var sum float64
	for _, u := range s.ActiveUnits() {
		sum += u.Damage()
	}
	return sum
}

// AttackProbability is the geometric mean of the active units' probabilities.
func (s *Squad) AttackProbability() float64 {
	active := s.ActiveUnits()
	probs := make([]float64, 0, len(active))
	for _, u := range active {
		probs = append(probs, u.AttackProbability())
	}
	return GeometricMean(probs)
}

func (s *Squad) probabilityRange() (lo, hi float64) {
	active := s.ActiveUnits()
	los := make([]float64, 0, len(active))
	his := make([]float64, 0, len(active))
	for _, u := range active {
		l, h := u.probabilityRange()
		los = append(los, l)
		his = append(his, h)
	}
	return GeometricMean(los), GeometricMean(his)
}

func (s *Squad) LevelUp() {
	for _, u := range s.ActiveUnits() {
		u.LevelUp()
	}
}

// ReceiveDamage splits amount evenly across the currently active units.
func (s *Squad) ReceiveDamage(amount float64) {
	active := s.ActiveUnits()
	if len(active) == 0 {
		return
	}
	share := amount / float64(len(active))
	for _, u := range active {
		u.ReceiveDamage(share)
	}
	s.env.notify(Event{
		Kind:            EventDamageApplied,
		Squad:           s.Ref(),
		Amount:          amount,
		RemainingHealth: s.Health(),
	})
}

// ReadyCount is the number of active units that have reported this cycle.
// It never exceeds len(ActiveUnits()).
func (s *Squad) ReadyCount() int {
	n := 0
	for u := range s.ready {
		if u.IsActive() {
			n++
		}
	}
	return n
}

// Recharge starts a fresh cycle for every active unit.
func (s *Squad) Recharge() {
	clear(s.ready)
	active := s.ActiveUnits()
	if len(active) == 0 {
		return
	}
	s.env.notify(Event{Kind: EventSquadRecharging, Squad: s.Ref()})
	for _, u := range active {
		u.Recharge()
	}
}

func (s *Squad) unitReady(u Unit) error {
	if !u.IsActive() {
		return nil
	}
	s.ready[u] = struct{}{}
	return s.checkBarrier()
}

func (s *Squad) checkBarrier() error {
	if len(s.ready) == 0 {
		return nil
	}
	active := s.ActiveUnits()
	if len(active) == 0 || s.ReadyCount() != len(active) {
		return nil
	}
	clear(s.ready)
	s.env.notify(Event{Kind: EventSquadReady, Squad: s.Ref()})
	return s.attack()
}

// settle re-evaluates the vehicle and squad barriers after members died, in
// case everyone still alive had already reported.
func (s *Squad) settle() error {
	for _, u := range s.ActiveUnits() {
		if v, ok := u.(*Vehicle); ok {
			if err := v.checkBarrier(); err != nil {
				return err
			}
		}
	}
	return s.checkBarrier()
}

// attack resolves one attack against a target chosen by the squad's strategy,
// then either concludes the battle or starts the next recharge cycle.
func (s *Squad) attack() error {
	b := s.army.battle

	target := b.SquadFor(s.strategy, s.army)
	if target == nil {
		return fmt.Errorf("squad %s: %w", s.ID(), ErrNoTarget)
	}

	attackerProbability := s.AttackProbability()
	defenderProbability := target.AttackProbability()
	success := attackerProbability > defenderProbability

	b.attacks++
	s.env.notify(Event{
		Kind:                EventAttackAttempted,
		Attacker:            s.Ref(),
		Defender:            target.Ref(),
		Strategy:            s.strategy,
		AttackerProbability: attackerProbability,
		DefenderProbability: defenderProbability,
		Success:             success,
	})
	b.logger.Debug("Squad attacked",
		slog.String("attacker", s.ID()),
		slog.String("defender", target.ID()),
		slog.String("strategy", s.strategy.String()),
		slog.Float64("attackerProbability", attackerProbability),
		slog.Float64("defenderProbability", defenderProbability),
		slog.Bool("success", success),
	)

	if success {
		b.hits++
		target.ReceiveDamage(s.Damage())
		s.LevelUp()
	}

	if b.checkWinner() {
		return nil
	}
	if !success && b.stalemated() {
		return fmt.Errorf("squad %s: %w", s.ID(), ErrStalemate)
	}

	s.Recharge()
	if success {
		b.deliver(signal{squad: target})
	}
	return nil
}
