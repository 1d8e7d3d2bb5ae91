package engine

import "time"

// Snapshot is a consistent, read-only copy of the battle state.
type Snapshot struct {
	Elapsed   time.Duration  `json:"elapsed"`
	Concluded bool           `json:"concluded"`
	Winner    string         `json:"winner,omitempty"`
	Armies    []ArmySnapshot `json:"armies"`
}

type ArmySnapshot struct {
	Name   string          `json:"name"`
	Active bool            `json:"active"`
	Health float64         `json:"health"`
	Squads []SquadSnapshot `json:"squads"`
}

type SquadSnapshot struct {
	Index       int      `json:"index"`
	Strategy    Strategy `json:"strategy"`
	Active      bool     `json:"active"`
	Health      float64  `json:"health"`
	Damage      float64  `json:"damage"`
	Units       int      `json:"units"`
	ActiveUnits int      `json:"activeUnits"`
	ReadyCount  int      `json:"readyCount"`
}

// Snapshot copies the current state. It is safe to call from any goroutine
// except a Notifier.
func (b *Battle) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap := Snapshot{
		Elapsed: b.Elapsed(),
		Armies:  make([]ArmySnapshot, 0, len(b.armies)),
	}
	if b.result != nil {
		snap.Concluded = true
		snap.Winner = b.result.Winner
	}

	for _, a := range b.armies {
		as := ArmySnapshot{
			Name:   a.name,
			Active: a.IsActive(),
			Health: a.Health(),
			Squads: make([]SquadSnapshot, 0, len(a.squads)),
		}
		for _, s := range a.squads {
			as.Squads = append(as.Squads, SquadSnapshot{
				Index:       s.index,
				Strategy:    s.strategy,
				Active:      s.IsActive(),
				Health:      s.Health(),
				Damage:      s.Damage(),
				Units:       len(s.units),
				ActiveUnits: len(s.ActiveUnits()),
				ReadyCount:  s.ReadyCount(),
			})
		}
		snap.Armies = append(snap.Armies, as)
	}
	return snap
}
