// Package v1 contains the v1 after-action report format.
package v1

// Report is the root JSON structure for v1 format
type Report struct {
	Version   int     `json:"version"`
	BattleID  string  `json:"battleId"`
	Name      string  `json:"name"`
	Seed      int64   `json:"seed"`
	StartTime string  `json:"startTime"`
	EndTime   string  `json:"endTime,omitempty"`
	ElapsedMs int64   `json:"elapsedMs"`
	Winner    string  `json:"winner"`
	Concluded bool    `json:"concluded"`
	Attacks   int     `json:"attacks"`
	Hits      int     `json:"hits"`
	Armies    []Army  `json:"armies"`
	Events    [][]any `json:"events"`
}

// Army summarizes one side.
type Army struct {
	Name     string  `json:"name"`
	Strategy string  `json:"strategy,omitempty"`
	Squads   []Squad `json:"squads"`
}

// Squad summarizes one squad over the whole battle.
type Squad struct {
	Index       int      `json:"index"`
	Strategy    string   `json:"strategy"`
	Units       []Unit   `json:"units"`
	Attacks     int      `json:"attacks"`
	Hits        int      `json:"hits"`
	DamageTaken float64  `json:"damageTaken"`
	FinalHealth *float64 `json:"finalHealth,omitempty"`
}

// Unit is a unit as generated.
type Unit struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}
