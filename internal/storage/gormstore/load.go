package gormstore

import (
	"errors"
	"fmt"

	"github.com/battlesim/battlesim/internal/model"
	"github.com/battlesim/battlesim/internal/model/convert"
	"github.com/battlesim/battlesim/internal/model/core"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recording is everything stored for one battle, events in elapsed order.
type Recording struct {
	Battle      core.Battle
	Outcome     *core.Outcome
	Units       []core.Unit
	Attacks     []core.Attack
	Damages     []core.Damage
	SquadStates []core.SquadState
}

// ListBattles returns stored battles, most recent first.
func ListBattles(db *gorm.DB) ([]model.Battle, error) {
	var battles []model.Battle
	if err := db.Order("start_time DESC").Find(&battles).Error; err != nil {
		return nil, fmt.Errorf("failed to list battles: %w", err)
	}
	return battles, nil
}

// LoadBattle reads one battle and all of its events.
func LoadBattle(db *gorm.DB, id uuid.UUID) (*Recording, error) {
	var row model.Battle
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("battle %s: %w", id, ErrNoBattle)
		}
		return nil, fmt.Errorf("failed to load battle %s: %w", id, err)
	}

	battle, outcome, err := convert.BattleToCore(row)
	if err != nil {
		return nil, fmt.Errorf("failed to decode layout of battle %s: %w", id, err)
	}
	rec := &Recording{Battle: battle, Outcome: outcome}

	var units []model.Unit
	if err := db.Where("battle_id = ?", id).Order("id").Find(&units).Error; err != nil {
		return nil, fmt.Errorf("failed to load units: %w", err)
	}
	for _, u := range units {
		rec.Units = append(rec.Units, convert.UnitToCore(u))
	}

	var attacks []model.AttackEvent
	if err := db.Where("battle_id = ?", id).Order("elapsed_ms, id").Find(&attacks).Error; err != nil {
		return nil, fmt.Errorf("failed to load attacks: %w", err)
	}
	for _, a := range attacks {
		rec.Attacks = append(rec.Attacks, convert.AttackEventToCore(a))
	}

	var damages []model.DamageEvent
	if err := db.Where("battle_id = ?", id).Order("elapsed_ms, id").Find(&damages).Error; err != nil {
		return nil, fmt.Errorf("failed to load damage: %w", err)
	}
	for _, d := range damages {
		rec.Damages = append(rec.Damages, convert.DamageEventToCore(d))
	}

	var states []model.SquadStateEvent
	if err := db.Where("battle_id = ?", id).Order("elapsed_ms, id").Find(&states).Error; err != nil {
		return nil, fmt.Errorf("failed to load squad states: %w", err)
	}
	for _, s := range states {
		rec.SquadStates = append(rec.SquadStates, convert.SquadStateEventToCore(s))
	}

	return rec, nil
}
