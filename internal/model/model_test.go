package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNames(t *testing.T) {
	tests := []struct {
		name     string
		model    interface{ TableName() string }
		expected string
	}{
		{"Battle", &Battle{}, "battles"},
		{"Unit", &Unit{}, "units"},
		{"AttackEvent", &AttackEvent{}, "attack_events"},
		{"DamageEvent", &DamageEvent{}, "damage_events"},
		{"SquadStateEvent", &SquadStateEvent{}, "squad_state_events"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.model.TableName())
		})
	}
}

func TestDatabaseModels_AllHaveTableNames(t *testing.T) {
	for _, m := range DatabaseModels {
		_, ok := m.(interface{ TableName() string })
		assert.True(t, ok, "%T has no TableName", m)
	}
}
