package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/battlesim/battlesim/internal/engine"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome labels for the battles.finished counter.
const (
	OutcomeWon       = "won"
	OutcomeStalemate = "stalemate"
	OutcomeAbandoned = "abandoned"
)

// BattleMetrics counts finished battles and the attacks they resolved.
type BattleMetrics struct {
	battles metric.Int64Counter
	attacks metric.Int64Counter
	hits    metric.Int64Counter
}

func NewBattleMetrics(m metric.Meter) (*BattleMetrics, error) {
	var bm BattleMetrics
	var err error
	if bm.battles, err = m.Int64Counter("battles.finished",
		metric.WithDescription("Battles ended, by outcome")); err != nil {
		return nil, fmt.Errorf("battles.finished: %w", err)
	}
	if bm.attacks, err = m.Int64Counter("battles.attacks",
		metric.WithDescription("Attacks resolved across all battles")); err != nil {
		return nil, fmt.Errorf("battles.attacks: %w", err)
	}
	if bm.hits, err = m.Int64Counter("battles.hits",
		metric.WithDescription("Successful attacks across all battles")); err != nil {
		return nil, fmt.Errorf("battles.hits: %w", err)
	}
	return &bm, nil
}

// Outcome classifies the result of engine.Battle.Run.
func Outcome(runErr error) string {
	switch {
	case runErr == nil:
		return OutcomeWon
	case errors.Is(runErr, engine.ErrStalemate):
		return OutcomeStalemate
	default:
		return OutcomeAbandoned
	}
}

// Record adds one finished battle. Abandoned battles still contribute the
// attacks they resolved before stopping.
func (bm *BattleMetrics) Record(ctx context.Context, res engine.Result, runErr error) {
	outcome := metric.WithAttributes(attribute.String("outcome", Outcome(runErr)))
	bm.battles.Add(ctx, 1, outcome)
	bm.attacks.Add(ctx, int64(res.Attacks), outcome)
	bm.hits.Add(ctx, int64(res.Hits), outcome)
}
