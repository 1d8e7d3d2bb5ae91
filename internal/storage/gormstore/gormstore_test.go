package gormstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/battlesim/battlesim/internal/database"
	"github.com/battlesim/battlesim/internal/model"
	"github.com/battlesim/battlesim/internal/model/core"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestBackend(t *testing.T, interval time.Duration) (*Backend, *gorm.DB) {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	b := New(Dependencies{DB: db, FlushInterval: interval})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b, db
}

func count[T any](t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	var m T
	require.NoError(t, db.Model(&m).Count(&n).Error)
	return n
}

func TestNew_Defaults(t *testing.T) {
	b := New(Dependencies{})
	assert.Equal(t, DefaultFlushInterval, b.deps.FlushInterval)
	assert.NotNil(t, b.log)
	assert.Nil(t, b.DB())
	assert.NoError(t, b.Close())
}

func TestBattleLifecycle(t *testing.T) {
	b, db := newTestBackend(t, time.Hour)
	id := uuid.New()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, b.StartBattle(&core.Battle{
		ID:        id,
		Name:      "ridge",
		Seed:      3,
		StartTime: start,
		Armies:    []core.Army{{Name: "Red"}, {Name: "Blue"}},
	}))

	require.NoError(t, b.RecordUnit(&core.Unit{BattleID: id, UnitID: "Red/0/0", Kind: "soldier", Army: "Red"}))
	require.NoError(t, b.RecordAttack(&core.Attack{BattleID: id, AttackerArmy: "Red", DefenderArmy: "Blue", Success: true}))
	require.NoError(t, b.RecordDamage(&core.Damage{BattleID: id, Army: "Blue", Amount: 0.5, RemainingHealth: 499.5}))
	require.NoError(t, b.RecordSquadState(&core.SquadState{BattleID: id, Army: "Red", State: core.SquadReady}))

	assert.Equal(t, int64(0), count[model.AttackEvent](t, db), "records stay queued until flush")

	require.NoError(t, b.EndBattle(&core.Outcome{
		BattleID:  id,
		EndTime:   start.Add(time.Minute),
		Elapsed:   time.Minute,
		Winner:    "Red",
		Attacks:   1,
		Hits:      1,
		Concluded: true,
	}))

	assert.Equal(t, int64(1), count[model.Unit](t, db))
	assert.Equal(t, int64(1), count[model.AttackEvent](t, db))
	assert.Equal(t, int64(1), count[model.DamageEvent](t, db))
	assert.Equal(t, int64(1), count[model.SquadStateEvent](t, db))

	var row model.Battle
	require.NoError(t, db.First(&row, "id = ?", id).Error)
	assert.Equal(t, "Red", row.Winner)
	assert.True(t, row.Concluded)
	assert.Equal(t, int64(60000), row.ElapsedMs)
	require.NotNil(t, row.EndTime)
	assert.True(t, start.Add(time.Minute).Equal(*row.EndTime))
}

func TestEndBattle_UnknownBattle(t *testing.T) {
	b, _ := newTestBackend(t, time.Hour)
	err := b.EndBattle(&core.Outcome{BattleID: uuid.New()})
	assert.ErrorIs(t, err, ErrNoBattle)
}

func TestWriterFlushesPeriodically(t *testing.T) {
	b, db := newTestBackend(t, 10*time.Millisecond)
	id := uuid.New()
	require.NoError(t, b.StartBattle(&core.Battle{ID: id}))

	for i := 0; i < 5; i++ {
		require.NoError(t, b.RecordAttack(&core.Attack{BattleID: id, AttackerSquad: i}))
	}

	assert.Eventually(t, func() bool {
		return count[model.AttackEvent](t, db) == 5
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCloseFlushesQueue(t *testing.T) {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	b := New(Dependencies{DB: db, FlushInterval: time.Hour})
	require.NoError(t, b.Init())

	require.NoError(t, b.RecordDamage(&core.Damage{BattleID: uuid.New(), Amount: 1}))
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	assert.Equal(t, int64(1), count[model.DamageEvent](t, db))
}

func TestWriteQueue_RequeuesOnFailure(t *testing.T) {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	b := New(Dependencies{DB: db})
	require.NoError(t, b.RecordUnit(&core.Unit{UnitID: "Red/0/0"}))

	// tables were never migrated
	err = b.Flush()
	require.Error(t, err)
	assert.Equal(t, 1, b.queues.Units.Len())
}
