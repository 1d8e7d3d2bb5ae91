// Command battlesim runs one battle from a scenario file and prints the winner.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/battlesim/battlesim/internal/config"
	"github.com/battlesim/battlesim/internal/engine"
	"github.com/battlesim/battlesim/internal/monitor"
	"github.com/battlesim/battlesim/internal/scenario"
	"github.com/battlesim/battlesim/internal/storage"
	"github.com/battlesim/battlesim/internal/worker"
)

// Version and BuildDate are set at build time via ldflags.
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
)

type options struct {
	configDir string
	scenario  string
	name      string
	virtual   bool
	version   bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("battlesim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configDir, "config", ".", "directory containing "+config.FileName)
	fs.StringVar(&opts.scenario, "scenario", "", "scenario file (.yaml, .yml or .json); overrides engine.scenario")
	fs.StringVar(&opts.name, "name", "", "battle name; defaults to the scenario file name")
	fs.BoolVar(&opts.virtual, "virtual", false, "run on a virtual clock instead of wall time")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")
	err := fs.Parse(args)
	return opts, err
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "report" {
		if err := runReport(os.Args[2:], os.Stdout, os.Stderr); err != nil {
			fmt.Fprintln(os.Stderr, "battlesim report:", err)
			os.Exit(1)
		}
		return
	}

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}
	if opts.version {
		fmt.Printf("battlesim %s (built %s)\n", Version, BuildDate)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "battlesim:", err)
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

// loadScenario picks the scenario file from flags, then config, then the
// built-in skirmish.
func loadScenario(opts options, ec config.EngineConfig) (*scenario.Battle, string, error) {
	path := opts.scenario
	if path == "" {
		path = ec.Scenario
	}

	name := opts.name
	if path == "" {
		if name == "" {
			name = "skirmish"
		}
		return scenario.Default(), name, nil
	}

	cfg, err := scenario.Load(path)
	if err != nil {
		return nil, "", err
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return cfg, name, nil
}

// run wires every component, fights one battle and reports the result.
func run(ctx context.Context, opts options, stdout io.Writer) (engine.Result, error) {
	start := time.Now()

	configErr := config.Load(opts.configDir)
	if configErr != nil {
		config.LoadDefaults()
	}
	ec := config.GetEngineConfig()
	if opts.virtual {
		ec.VirtualClock = true
	}

	rt, err := setupRuntime(ctx, start)
	if err != nil {
		return engine.Result{}, err
	}
	defer rt.Close()
	log := rt.logger

	if configErr != nil {
		log.Warn("Failed to load config, using defaults!", "error", configErr)
	} else {
		log.Info("Loaded config", "dir", opts.configDir)
	}

	cfg, name, err := loadScenario(opts, ec)
	if err != nil {
		return engine.Result{}, err
	}
	if err := engine.Validate(cfg); err != nil {
		return engine.Result{}, fmt.Errorf("invalid scenario: %w", err)
	}
	if cfg.Seed == 0 {
		cfg.Seed = start.UnixNano()
	}

	backend, err := storage.NewBackend(config.GetStorageConfig(), log)
	if err != nil {
		return engine.Result{}, err
	}
	if err := backend.Init(); err != nil {
		return engine.Result{}, fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Error("Failed to close storage backend", "error", err)
		}
	}()

	recorder := worker.NewManager(worker.Dependencies{
		Backend: backend,
		Points:  rt.points,
		Logger:  log,
	})
	recorder.RegisterHandlers(rt.dispatcher)

	record, err := recorder.Start(name, cfg)
	if err != nil {
		return engine.Result{}, err
	}

	var clock engine.Clock = engine.RealClock{}
	if ec.VirtualClock {
		clock = engine.NewVirtualClock(start)
	}

	battle, err := engine.New(cfg,
		engine.WithClock(clock),
		engine.WithTimeUnit(ec.TimeUnit),
		engine.WithNotifier(recorder.Notifier(rt.dispatcher)),
		engine.WithLogger(log.With("component", "engine")),
	)
	if err != nil {
		rt.dispatcher.Close()
		_, _ = recorder.Finish(engine.Result{}, err)
		return engine.Result{}, err
	}
	rt.session.SetBattle(record, battle.Elapsed)

	log.Info("Battle starting",
		"name", name,
		"seed", cfg.Seed,
		"armies", len(cfg.Armies),
		"virtualClock", ec.VirtualClock,
		"timeUnit", ec.TimeUnit,
	)

	mon := monitor.NewService(monitor.Dependencies{
		Source:     battle,
		Logger:     log,
		Interval:   ec.StatusInterval,
		StatusFile: filepath.Join(rt.logsDir, "status.json"),
	})
	if err := mon.Start(); err != nil {
		log.Warn("Status monitor not started", "error", err)
	}

	res, runErr := battle.Run(ctx)
	mon.Stop()
	mon.Report()

	rt.dispatcher.Close()
	if _, err := recorder.Finish(res, runErr); err != nil {
		log.Error("Failed to record outcome", "error", err)
	}
	rt.recordOutcome(ctx, res, runErr)

	switch {
	case errors.Is(runErr, engine.ErrStalemate):
		fmt.Fprintf(stdout, "Battle %s ended in stalemate after %s (%d attacks, %d hits)\n",
			name, res.Elapsed.Round(time.Millisecond), res.Attacks, res.Hits)
		return res, runErr
	case runErr != nil:
		fmt.Fprintf(stdout, "Battle %s abandoned after %s (%d attacks): %v\n",
			name, res.Elapsed.Round(time.Millisecond), res.Attacks, runErr)
		return res, runErr
	}

	fmt.Fprintf(stdout, "Winner: %s (elapsed %s, %d attacks, %d hits)\n",
		res.Winner, res.Elapsed.Round(time.Millisecond), res.Attacks, res.Hits)
	if exp, ok := backend.(storage.Exporter); ok && exp.ExportPath() != "" {
		fmt.Fprintf(stdout, "Report: %s\n", exp.ExportPath())
	}
	return res, nil
}
