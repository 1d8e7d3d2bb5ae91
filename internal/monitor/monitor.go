// Package monitor periodically reports battle progress.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/battlesim/battlesim/internal/engine"
)

// DefaultInterval is used when Dependencies.Interval is not set.
const DefaultInterval = 5 * time.Second

// SnapshotSource is implemented by *engine.Battle.
type SnapshotSource interface {
	Snapshot() engine.Snapshot
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Source   SnapshotSource
	Logger   *slog.Logger
	Interval time.Duration
	// StatusFile, when set, is rewritten with the latest snapshot as JSON.
	StatusFile string
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	log       *slog.Logger
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{
		deps: deps,
		log:  log.With("component", "monitor"),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus returns one human readable line per army and squad.
func GetStatus(snap engine.Snapshot) []string {
	lines := []string{fmt.Sprintf("elapsed=%s concluded=%t winner=%q", snap.Elapsed.Round(time.Millisecond), snap.Concluded, snap.Winner)}
	for _, a := range snap.Armies {
		lines = append(lines, fmt.Sprintf("army %s active=%t health=%.2f", a.Name, a.Active, a.Health))
		for _, sq := range a.Squads {
			lines = append(lines, fmt.Sprintf("  squad %d %s active=%t health=%.2f units=%d/%d ready=%d",
				sq.Index, sq.Strategy, sq.Active, sq.Health, sq.ActiveUnits, sq.Units, sq.ReadyCount))
		}
	}
	return lines
}

// Report takes one snapshot, logs it and updates the status file.
func (s *Service) Report() engine.Snapshot {
	snap := s.deps.Source.Snapshot()

	for _, a := range snap.Armies {
		activeSquads := 0
		for _, sq := range a.Squads {
			if sq.Active {
				activeSquads++
			}
		}
		s.log.Info("Army status",
			"army", a.Name,
			"active", a.Active,
			"health", a.Health,
			"activeSquads", activeSquads,
			"elapsed", snap.Elapsed,
		)
	}
	for _, line := range GetStatus(snap) {
		s.log.Debug(line)
	}

	if s.deps.StatusFile != "" {
		if err := writeStatusFile(s.deps.StatusFile, snap); err != nil {
			s.log.Error("Error writing status file", "error", err)
		}
	}
	return snap
}

func writeStatusFile(path string, snap engine.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	if s.deps.Source == nil {
		return fmt.Errorf("monitor has no snapshot source")
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		s.log.Debug("Starting status monitor goroutine", "interval", s.deps.Interval)
		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if snap := s.Report(); snap.Concluded {
					return
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		done := s.done
		s.mu.Unlock()
		if done != nil {
			<-done
		}
		return
	}
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
