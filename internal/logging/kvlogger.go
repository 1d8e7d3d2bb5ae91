package logging

import "github.com/rs/zerolog"

// KVLogger exposes a zerolog.Logger through the key/value interface the
// event dispatcher logs with. Non-string keys and a dangling key are dropped.
type KVLogger struct {
	zl zerolog.Logger
}

func NewKVLogger(zl zerolog.Logger) *KVLogger {
	return &KVLogger{zl: zl}
}

func (l *KVLogger) Debug(msg string, kv ...any) { l.zl.Debug().Fields(kv).Msg(msg) }

func (l *KVLogger) Info(msg string, kv ...any) { l.zl.Info().Fields(kv).Msg(msg) }

func (l *KVLogger) Error(msg string, kv ...any) { l.zl.Error().Fields(kv).Msg(msg) }
