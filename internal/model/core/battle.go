// Package core holds storage-agnostic battle records shared by every backend.
package core

import (
	"time"

	"github.com/google/uuid"
)

// Battle describes a battle as it starts.
type Battle struct {
	ID        uuid.UUID
	Name      string
	Seed      int64
	StartTime time.Time
	Armies    []Army
}

// Army is one side's initial layout.
type Army struct {
	Name     string  `json:"name"`
	Strategy string  `json:"strategy,omitempty"`
	Squads   []Squad `json:"squads"`
}

// Squad is one squad's initial layout.
type Squad struct {
	Index    int    `json:"index"`
	Strategy string `json:"strategy"`
	Units    int    `json:"units"`
}

// Outcome is recorded when the battle concludes or is abandoned.
type Outcome struct {
	BattleID  uuid.UUID
	EndTime   time.Time
	Elapsed   time.Duration
	Winner    string
	Attacks   int
	Hits      int
	Concluded bool
}
