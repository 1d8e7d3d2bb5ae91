package otel

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/battlesim/battlesim/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// tallyMeter hands out counters that sum their adds per outcome label.
type tallyMeter struct {
	noop.Meter
	counters map[string]*tally
}

func (m *tallyMeter) Int64Counter(name string, _ ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	c := &tally{byOutcome: map[string]int64{}}
	m.counters[name] = c
	return c, nil
}

type tally struct {
	noop.Int64Counter
	byOutcome map[string]int64
}

func (c *tally) Add(_ context.Context, v int64, opts ...metric.AddOption) {
	set := metric.NewAddConfig(opts).Attributes()
	outcome, _ := set.Value("outcome")
	c.byOutcome[outcome.AsString()] += v
}

func engineResult(attacks, hits int) engine.Result {
	return engine.Result{Attacks: attacks, Hits: hits, Elapsed: time.Second}
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeWon, Outcome(nil))
	assert.Equal(t, OutcomeStalemate, Outcome(fmt.Errorf("squad Red/0: %w", engine.ErrStalemate)))
	assert.Equal(t, OutcomeAbandoned, Outcome(context.Canceled))
	assert.Equal(t, OutcomeAbandoned, Outcome(engine.ErrStalled))
}

func TestBattleMetrics_Record(t *testing.T) {
	m := &tallyMeter{counters: map[string]*tally{}}
	bm, err := NewBattleMetrics(m)
	require.NoError(t, err)
	require.Len(t, m.counters, 3)

	ctx := context.Background()
	win := engineResult(40, 25)
	win.Winner = "Red"
	bm.Record(ctx, win, nil)
	bm.Record(ctx, engineResult(9, 2), fmt.Errorf("squad Blue/1: %w", engine.ErrStalemate))
	bm.Record(ctx, engineResult(4, 0), context.Canceled)

	assert.Equal(t, map[string]int64{OutcomeWon: 1, OutcomeStalemate: 1, OutcomeAbandoned: 1},
		m.counters["battles.finished"].byOutcome)
	assert.Equal(t, map[string]int64{OutcomeWon: 40, OutcomeStalemate: 9, OutcomeAbandoned: 4},
		m.counters["battles.attacks"].byOutcome)
	assert.Equal(t, map[string]int64{OutcomeWon: 25, OutcomeStalemate: 2, OutcomeAbandoned: 0},
		m.counters["battles.hits"].byOutcome)
}
