package monitor

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/battlesim/battlesim/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	calls     atomic.Int32
	concluded atomic.Bool
}

func (f *fakeSource) Snapshot() engine.Snapshot {
	f.calls.Add(1)
	return engine.Snapshot{
		Elapsed:   1500 * time.Millisecond,
		Concluded: f.concluded.Load(),
		Armies: []engine.ArmySnapshot{
			{Name: "Red", Active: true, Health: 950, Squads: []engine.SquadSnapshot{
				{Index: 0, Strategy: engine.StrategyWeakest, Active: true, Health: 500, Units: 5, ActiveUnits: 5, ReadyCount: 2},
				{Index: 1, Strategy: engine.StrategyRandom, Active: false, Units: 5},
			}},
		},
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestGetStatus(t *testing.T) {
	lines := GetStatus((&fakeSource{}).Snapshot())
	require.Len(t, lines, 4)
	assert.Equal(t, `elapsed=1.5s concluded=false winner=""`, lines[0])
	assert.Equal(t, "army Red active=true health=950.00", lines[1])
	assert.Equal(t, "  squad 0 weakest active=true health=500.00 units=5/5 ready=2", lines[2])
	assert.Equal(t, "  squad 1 random active=false health=0.00 units=0/5 ready=0", lines[3])
}

func TestReport_LogsAndWritesStatusFile(t *testing.T) {
	out := &syncBuffer{}
	path := filepath.Join(t.TempDir(), "status.json")
	s := NewService(Dependencies{
		Source:     &fakeSource{},
		Logger:     slog.New(slog.NewTextHandler(out, nil)),
		StatusFile: path,
	})

	s.Report()

	assert.Contains(t, out.String(), "Army status")
	assert.Contains(t, out.String(), "army=Red")
	assert.Contains(t, out.String(), "activeSquads=1")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var snap engine.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, "Red", snap.Armies[0].Name)
}

func TestStart_RequiresSource(t *testing.T) {
	s := NewService(Dependencies{})
	assert.Error(t, s.Start())
	assert.Equal(t, DefaultInterval, s.deps.Interval)
}

func TestStartStop(t *testing.T) {
	src := &fakeSource{}
	s := NewService(Dependencies{Source: src, Interval: 5 * time.Millisecond})

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	assert.Eventually(t, func() bool { return src.calls.Load() >= 2 }, time.Second, time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
}

func TestStopsWhenBattleConcludes(t *testing.T) {
	src := &fakeSource{}
	src.concluded.Store(true)
	s := NewService(Dependencies{Source: src, Interval: time.Millisecond})

	require.NoError(t, s.Start())
	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, time.Millisecond)
	s.Stop()
	assert.Equal(t, int32(1), src.calls.Load())
}
