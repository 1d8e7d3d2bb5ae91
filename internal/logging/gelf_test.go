package logging

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingGelf struct {
	messages []*gelf.Message
}

func (r *recordingGelf) WriteMessage(m *gelf.Message) error {
	r.messages = append(r.messages, m)
	return nil
}

var _ MessageWriter = (*gelf.Writer)(nil)

func TestGelfHandler_WritesMessage(t *testing.T) {
	w := &recordingGelf{}
	logger := slog.New(NewGelfHandler(w, slog.LevelInfo, "battlesim"))

	logger.Warn("squad destroyed", "squad", "Red/1", "error", errors.New("no target"))

	require.Len(t, w.messages, 1)
	m := w.messages[0]
	assert.Equal(t, "1.1", m.Version)
	assert.Equal(t, "squad destroyed", m.Short)
	assert.Equal(t, int32(4), m.Level)
	assert.Equal(t, "battlesim", m.Facility)
	assert.Equal(t, "Red/1", m.Extra["_squad"])
	assert.Equal(t, "no target", m.Extra["_error"])
	assert.Positive(t, m.TimeUnix)
}

func TestGelfHandler_LevelFilter(t *testing.T) {
	w := &recordingGelf{}
	logger := slog.New(NewGelfHandler(w, slog.LevelInfo, ""))

	logger.Debug("noise")
	assert.Empty(t, w.messages)
}

func TestGelfHandler_AttrsAndGroups(t *testing.T) {
	w := &recordingGelf{}
	logger := slog.New(NewGelfHandler(w, slog.LevelDebug, "")).
		With("battle", "b-1").
		WithGroup("attack")

	logger.Debug("resolved", "success", true, slog.Group("attacker", "army", "Red"))

	require.Len(t, w.messages, 1)
	extra := w.messages[0].Extra
	assert.Equal(t, "b-1", extra["_battle"])
	assert.Equal(t, true, extra["_attack.success"])
	assert.Equal(t, "Red", extra["_attack.attacker.army"])
	assert.Equal(t, int32(7), w.messages[0].Level)
}

func TestSyslogLevel(t *testing.T) {
	assert.Equal(t, int32(3), syslogLevel(slog.LevelError))
	assert.Equal(t, int32(4), syslogLevel(slog.LevelWarn))
	assert.Equal(t, int32(6), syslogLevel(slog.LevelInfo))
	assert.Equal(t, int32(7), syslogLevel(slog.LevelDebug))
}

func TestCloseGelf_NonCloser(t *testing.T) {
	assert.NoError(t, CloseGelf(&recordingGelf{}))
}
