package storage_test

import (
	"path/filepath"
	"testing"

	"github.com/battlesim/battlesim/internal/config"
	"github.com/battlesim/battlesim/internal/storage"
	"github.com/battlesim/battlesim/internal/storage/gormstore"
	"github.com/battlesim/battlesim/internal/storage/memory"
	sqlitestorage "github.com/battlesim/battlesim/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ storage.Backend  = storage.Nop{}
	_ storage.Backend  = (*memory.Backend)(nil)
	_ storage.Exporter = (*memory.Backend)(nil)
	_ storage.Backend  = (*gormstore.Backend)(nil)
	_ storage.Backend  = (*sqlitestorage.Backend)(nil)
)

func TestNewBackend(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     config.StorageConfig
		want    any
		wantErr string
	}{
		{name: "memory", cfg: config.StorageConfig{Type: "memory", Memory: config.MemoryConfig{OutputDir: dir}}, want: &memory.Backend{}},
		{name: "sqlite", cfg: config.StorageConfig{Type: "sqlite", SQLite: config.SQLiteConfig{Path: filepath.Join(dir, "b.db")}}, want: &sqlitestorage.Backend{}},
		{name: "postgres", cfg: config.StorageConfig{Type: "postgres"}, want: &gormstore.Backend{}},
		{name: "none", cfg: config.StorageConfig{Type: "none"}, want: storage.Nop{}},
		{name: "empty", cfg: config.StorageConfig{}, want: storage.Nop{}},
		{name: "unknown", cfg: config.StorageConfig{Type: "mongo"}, wantErr: "unknown storage type: mongo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := storage.NewBackend(tt.cfg, nil)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, b)
			if c, ok := b.(interface{ Close() error }); ok {
				t.Cleanup(func() { _ = c.Close() })
			}
		})
	}
}

func TestNop(t *testing.T) {
	var b storage.Backend = storage.Nop{}
	assert.NoError(t, b.Init())
	assert.NoError(t, b.StartBattle(nil))
	assert.NoError(t, b.RecordAttack(nil))
	assert.NoError(t, b.EndBattle(nil))
	assert.NoError(t, b.Close())
}
