package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/battlesim/battlesim/internal/config"
	"github.com/battlesim/battlesim/internal/dispatcher"
	"github.com/battlesim/battlesim/internal/engine"
	"github.com/battlesim/battlesim/internal/influx"
	"github.com/battlesim/battlesim/internal/logging"
	intOtel "github.com/battlesim/battlesim/internal/otel"
	"github.com/battlesim/battlesim/internal/session"
	"github.com/battlesim/battlesim/internal/worker"

	"github.com/rs/zerolog"
)

// runtime holds the process-wide services shared by every component.
type runtime struct {
	logsDir    string
	logFile    *os.File
	otelFile   *os.File
	slog       *logging.SlogManager
	logger     *slog.Logger
	otel       *intOtel.Provider
	gelf       logging.MessageWriter
	session    *session.Context
	dispatcher *dispatcher.Dispatcher
	influx     *influx.Manager
	points     worker.PointWriter
	metrics    *intOtel.BattleMetrics
}

func setupRuntime(ctx context.Context, start time.Time) (*runtime, error) {
	rt := &runtime{
		logsDir: config.GetString("logsDir"),
		session: session.NewContext(),
		slog:    logging.NewSlogManager(),
	}
	level := config.GetString("logLevel")

	var logOut io.Writer
	if err := os.MkdirAll(rt.logsDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logs dir %s: %v\n", rt.logsDir, err)
	} else {
		f, err := os.OpenFile(logging.LogFilePath(rt.logsDir, "battlesim", start), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create log file: %v\n", err)
		} else {
			rt.logFile = f
			logOut = f
		}
	}

	oc := config.GetOTelConfig()
	otelCfg := intOtel.Config{
		Enabled:      oc.Enabled,
		ServiceName:  oc.ServiceName,
		BatchTimeout: oc.BatchTimeout,
		Endpoint:     oc.Endpoint,
		Insecure:     oc.Insecure,
	}
	if oc.Enabled && oc.Endpoint == "" {
		f, err := os.Create(logging.LogFilePath(rt.logsDir, "battlesim.otel", start))
		if err == nil {
			rt.otelFile = f
			otelCfg.LogWriter = f
		}
	}
	prov, err := intOtel.New(otelCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up OpenTelemetry, continuing without it: %v\n", err)
		prov, _ = intOtel.New(intOtel.Config{})
	}
	rt.otel = prov

	gc := config.GetGraylogConfig()
	var gelfErr error
	if gc.Enabled {
		w, err := logging.DialGelf(gc.Address)
		if err != nil {
			gelfErr = err
		} else {
			rt.gelf = w
			rt.slog.AddHandler(logging.NewGelfHandler(w, logging.ParseLevel(level), "battlesim"))
		}
	}

	rt.slog.SetBattleAttrs(rt.session.Attrs)
	rt.slog.Setup(logOut, level, prov.LoggerProvider())
	rt.logger = rt.slog.Logger()
	if gelfErr != nil {
		rt.logger.Warn("Graylog disabled", "error", gelfErr)
	}

	zlOut := logOut
	if zlOut == nil {
		zlOut = os.Stdout
	}
	zlLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		zlLevel = zerolog.InfoLevel
	}
	zl := zerolog.New(zlOut).Level(zlLevel).With().Timestamp().Logger()

	rt.dispatcher, err = dispatcher.New(logging.NewKVLogger(zl.With().Str("component", "dispatcher").Logger()))
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	ic := config.GetInfluxConfig()
	if ic.Enabled {
		rt.influx = influx.NewManager(ic, zl.With().Str("component", "influx").Logger(),
			filepath.Join(rt.logsDir, "influx_backup.lp.gz"))
		if err := rt.influx.Connect(ctx); err != nil {
			rt.logger.Warn("InfluxDB unavailable, time series disabled", "error", err)
			_ = rt.influx.Close()
			rt.influx = nil
		} else {
			rt.points = rt.influx
		}
	}

	if rt.metrics, err = intOtel.NewBattleMetrics(prov.Meter("github.com/battlesim/battlesim/cmd/battlesim")); err != nil {
		rt.logger.Warn("Battle metrics disabled", "error", err)
	}

	return rt, nil
}

func (rt *runtime) recordOutcome(ctx context.Context, res engine.Result, runErr error) {
	if rt.metrics != nil {
		rt.metrics.Record(ctx, res, runErr)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, engine.ErrStalemate) {
		rt.logger.Error("Battle failed", "error", runErr)
	}
}

// Close shuts every service down in reverse order of setup.
func (rt *runtime) Close() {
	if rt.dispatcher != nil {
		rt.dispatcher.Close()
	}
	if rt.influx != nil {
		if err := rt.influx.Close(); err != nil && rt.logger != nil {
			rt.logger.Error("Failed to close influx", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if rt.slog != nil {
		_ = rt.slog.Flush(shutdownCtx)
	}
	if rt.otel != nil {
		_ = rt.otel.Shutdown(shutdownCtx)
	}
	if rt.gelf != nil {
		_ = logging.CloseGelf(rt.gelf)
	}
	if rt.otelFile != nil {
		_ = rt.otelFile.Close()
	}
	if rt.logFile != nil {
		_ = rt.logFile.Close()
	}
}
