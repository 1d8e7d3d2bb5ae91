package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestKVLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := NewKVLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))

	l.Debug("Event dispatched", "kind", "attack.attempted", "queued", 42)
	entry := lastEntry(t, &buf)
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "attack.attempted", entry["kind"])
	assert.Equal(t, float64(42), entry["queued"])

	l.Info("Handler registered", "kind", "damage.applied")
	entry = lastEntry(t, &buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Handler registered", entry["message"])

	l.Error("Handler failed", "kind", "squad.ready", "error", errors.New("store closed"))
	entry = lastEntry(t, &buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "store closed", entry["error"])
}

func TestKVLogger_DropsMalformedPairs(t *testing.T) {
	var buf bytes.Buffer
	l := NewKVLogger(zerolog.New(&buf))

	l.Info("Squad ready", "army", "Red", 3, "ignored", "dangling")

	entry := lastEntry(t, &buf)
	assert.Equal(t, "Red", entry["army"])
	assert.NotContains(t, entry, "dangling")
	assert.Len(t, entry, 3, "level, message and army")
}

func TestKVLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewKVLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))
	l.Debug("Event dispatched")
	assert.Empty(t, buf.String())
}
