// Package scenario describes the static battle configuration: which armies take
// the field, how their squads are composed and how each squad picks targets.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Battle is the root of a scenario file.
type Battle struct {
	// Seed drives unit generation and combat draws. Zero picks a random seed.
	Seed   int64  `json:"seed" yaml:"seed"`
	Armies []Army `json:"armies" yaml:"armies"`
}

// Army describes one side of the battle.
type Army struct {
	Name string `json:"name" yaml:"name"`
	// Strategy is the army-wide default, used by squads that do not set their own.
	Strategy string  `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Squads   []Squad `json:"squads" yaml:"squads"`
}

// Squad describes one squad of an army.
type Squad struct {
	Units    int    `json:"units" yaml:"units"`
	Strategy string `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	// UnitTypes restricts the unit variants sampled for this squad.
	// Empty means every variant is equally likely.
	UnitTypes []string `json:"unitTypes,omitempty" yaml:"unitTypes,omitempty"`
}

// Load reads a scenario from a .yaml, .yml or .json file.
func Load(path string) (*Battle, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading scenario file: %w", err)
	}

	var battle Battle
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(b, &battle)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &battle)
	default:
		return nil, fmt.Errorf("unsupported scenario format: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("error parsing scenario %s: %w", filepath.Base(path), err)
	}

	return &battle, nil
}

// Default returns a small two-army skirmish.
func Default() *Battle {
	return &Battle{
		Armies: []Army{
			{
				Name:     "Red",
				Strategy: "weakest",
				Squads:   []Squad{{Units: 5}, {Units: 7, Strategy: "strongest"}},
			},
			{
				Name:     "Blue",
				Strategy: "random",
				Squads:   []Squad{{Units: 6}, {Units: 5, Strategy: "weakest"}},
			},
		},
	}
}
