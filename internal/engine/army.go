package engine

// Army is a named group of squads. It holds no combat logic of its own.
type Army struct {
	name     string
	strategy Strategy
	squads   []*Squad
	battle   *Battle
}

func (a *Army) Name() string { return a.name }

// Strategy is the army-wide default given to squads without their own.
func (a *Army) Strategy() Strategy { return a.strategy }

func (a *Army) Battle() *Battle { return a.battle }

func (a *Army) Squads() []*Squad {
	return append([]*Squad(nil), a.squads...)
}

func (a *Army) ActiveSquads() []*Squad {
	active := make([]*Squad, 0, len(a.squads))
	for _, s := range a.squads {
		if s.IsActive() {
			active = append(active, s)
		}
	}
	return active
}

// IsActive reports whether any squad can still fight.
func (a *Army) IsActive() bool {
	for _, s := range a.squads {
		if s.IsActive() {
			return true
		}
	}
	return false
}

// Health is the sum of the squads' health.
func (a *Army) Health() float64 {
	var sum float64
	for _, s := range a.squads {
		sum += s.Health()
	}
	return sum
}
