package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Battle{},
	&Unit{},
	&AttackEvent{},
	&DamageEvent{},
	&SquadStateEvent{},
}

// Battle is one simulation run. Layout holds the initial armies as JSON.
type Battle struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time      `json:"createdAt"`
	Name      string         `json:"name" gorm:"size:127"`
	Seed      int64          `json:"seed"`
	StartTime time.Time      `json:"startTime" gorm:"index"`
	EndTime   *time.Time     `json:"endTime"`
	ElapsedMs int64          `json:"elapsedMs"`
	Winner    string         `json:"winner" gorm:"size:127"`
	Concluded bool           `json:"concluded"`
	Attacks   int            `json:"attacks"`
	Hits      int            `json:"hits"`
	Layout    datatypes.JSON `json:"layout"`
}

func (*Battle) TableName() string {
	return "battles"
}

// Unit is a unit as generated at battle start.
type Unit struct {
	ID       uint      `json:"id" gorm:"primarykey;autoIncrement"`
	BattleID uuid.UUID `json:"battleId" gorm:"type:uuid;index:idx_unit_battle"`
	UnitID   string    `json:"unitId" gorm:"size:64"`
	Kind     string    `json:"kind" gorm:"size:16"`
	Army     string    `json:"army" gorm:"size:127"`
	Squad    int       `json:"squad"`
}

func (*Unit) TableName() string {
	return "units"
}

// AttackEvent is one squad attack.
type AttackEvent struct {
	ID                  uint      `json:"id" gorm:"primarykey;autoIncrement"`
	BattleID            uuid.UUID `json:"battleId" gorm:"type:uuid;index:idx_attack_battle"`
	Time                time.Time `json:"time"`
	ElapsedMs           int64     `json:"elapsedMs" gorm:"index:idx_attack_battle"`
	AttackerArmy        string    `json:"attackerArmy" gorm:"size:127"`
	AttackerSquad       int       `json:"attackerSquad"`
	DefenderArmy        string    `json:"defenderArmy" gorm:"size:127"`
	DefenderSquad       int       `json:"defenderSquad"`
	Strategy            string    `json:"strategy" gorm:"size:16"`
	AttackerProbability float64   `json:"attackerProbability"`
	DefenderProbability float64   `json:"defenderProbability"`
	Success             bool      `json:"success"`
}

func (*AttackEvent) TableName() string {
	return "attack_events"
}

// DamageEvent is damage applied to a squad.
type DamageEvent struct {
	ID              uint      `json:"id" gorm:"primarykey;autoIncrement"`
	BattleID        uuid.UUID `json:"battleId" gorm:"type:uuid;index:idx_damage_battle"`
	Time            time.Time `json:"time"`
	ElapsedMs       int64     `json:"elapsedMs" gorm:"index:idx_damage_battle"`
	Army            string    `json:"army" gorm:"size:127"`
	Squad           int       `json:"squad"`
	Amount          float64   `json:"amount"`
	RemainingHealth float64   `json:"remainingHealth"`
}

func (*DamageEvent) TableName() string {
	return "damage_events"
}

// SquadStateEvent marks a squad recharging or ready.
type SquadStateEvent struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement"`
	BattleID  uuid.UUID `json:"battleId" gorm:"type:uuid;index:idx_squad_state_battle"`
	Time      time.Time `json:"time"`
	ElapsedMs int64     `json:"elapsedMs"`
	Army      string    `json:"army" gorm:"size:127"`
	Squad     int       `json:"squad"`
	State     string    `json:"state" gorm:"size:16"`
}

func (*SquadStateEvent) TableName() string {
	return "squad_state_events"
}
