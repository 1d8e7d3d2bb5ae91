package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// osStdout is swapped out in tests.
var osStdout io.Writer = os.Stdout

// SlogManager builds the battle log: a text sink (file or console), the OTel
// bridge when a provider is given, and any extra sinks such as GELF.
type SlogManager struct {
	logger   *slog.Logger
	provider *sdklog.LoggerProvider
	sinks    []slog.Handler
	battle   AttrsFunc
}

func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// AddHandler registers a sink for the next Setup.
func (m *SlogManager) AddHandler(h slog.Handler) {
	m.sinks = append(m.sinks, h)
}

// SetBattleAttrs makes the next Setup stamp each record with fn's attributes.
func (m *SlogManager) SetBattleAttrs(fn AttrsFunc) {
	m.battle = fn
}

// ParseLevel maps a config level name to slog.Level. Unknown names are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// utcTime renders record times as RFC3339 in UTC.
func utcTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.TimeKey {
		return a
	}
	if t, ok := a.Value.Any().(time.Time); ok {
		a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
	}
	return a
}

// Setup (re)builds the logger. A nil file logs to stdout; a nil provider
// leaves the OTel bridge out.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider) {
	m.provider = provider

	out := file
	if out == nil {
		out = osStdout
	}
	sinks := []slog.Handler{
		slog.NewTextHandler(out, &slog.HandlerOptions{Level: ParseLevel(level), ReplaceAttr: utcTime}),
	}
	if provider != nil {
		sinks = append(sinks, otelslog.NewHandler("battlesim", otelslog.WithLoggerProvider(provider)))
	}
	sinks = append(sinks, m.sinks...)

	m.logger = slog.New(withBattleAttrs(newTee(sinks...), m.battle))
	m.logger.Info("Logging initialized", "level", level)
}

// Logger returns the configured logger, or slog.Default before Setup.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Flush pushes buffered OTel records out.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.provider == nil {
		return nil
	}
	return m.provider.ForceFlush(ctx)
}
