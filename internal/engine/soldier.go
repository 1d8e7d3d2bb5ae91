package engine

const (
	maxExperience = 50

	soldierRechargeMin = 100
	soldierRechargeMax = 2000
)

// Soldier is the simple unit variant. Experience grows with every successful
// attack of its squad and raises both damage and attack probability.
type Soldier struct {
	unit
	experience int
}

func newSoldier(id string, e *env, parent readyReceiver) *Soldier {
	s := &Soldier{
		unit: unit{
			id:       id,
			health:   maxHealth,
			recharge: e.rng.IntRange(soldierRechargeMin, soldierRechargeMax),
			env:      e,
			parent:   parent,
		},
	}
	s.self = s
	return s
}

func (s *Soldier) Kind() UnitKind { return UnitSoldier }

// Experience is in [0, 50].
func (s *Soldier) Experience() int { return s.experience }

// AttackProbability is 0.5 * (1 + health/100) * U{50+experience..100} / 100.
func (s *Soldier) AttackProbability() float64 {
	return s.probability(s.env.rng.IntRange(50+s.experience, 100))
}

func (s *Soldier) probability(roll int) float64 {
	return 0.5 * (1 + s.health/maxHealth) * float64(roll) / 100
}

func (s *Soldier) probabilityRange() (lo, hi float64) {
	return s.probability(50 + s.experience), s.probability(100)
}

func (s *Soldier) Damage() float64 {
	return 0.05 + float64(s.experience)/100
}

func (s *Soldier) LevelUp() {
	if s.experience < maxExperience {
		s.experience++
	}
}
