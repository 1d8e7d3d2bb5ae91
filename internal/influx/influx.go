// Package influx writes battle time series to InfluxDB, falling back to a
// gzipped line protocol file when the server is unreachable.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/battlesim/battlesim/internal/config"
	"github.com/battlesim/battlesim/internal/model/core"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
)

// ErrDisabled is returned by Connect when InfluxDB is turned off in config.
var ErrDisabled = errors.New("influx is disabled")

const (
	MeasurementAttack = "attack"
	MeasurementDamage = "damage"
	MeasurementSquad  = "squad_state"
)

// Manager handles InfluxDB connections and writes.
type Manager struct {
	Client       influxdb2.Client
	Writer       influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	Logger       zerolog.Logger
	BackupPath   string

	cfg        config.InfluxConfig
	backupFile *os.File
	mu         sync.Mutex
}

// NewManager creates a new InfluxDB manager.
func NewManager(cfg config.InfluxConfig, log zerolog.Logger, backupPath string) *Manager {
	return &Manager{
		cfg:        cfg,
		Logger:     log,
		BackupPath: backupPath,
	}
}

// Connect establishes a connection to InfluxDB, or opens the backup file if
// the server does not answer.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		return ErrDisabled
	}

	m.Client = influxdb2.NewClientWithOptions(
		m.cfg.URL(),
		m.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	running, err := m.Client.Ping(ctx)
	if err != nil || !running {
		m.IsValid = false
		m.Logger.Warn().Err(err).Str("backupPath", m.BackupPath).
			Msg("InfluxDB client failed to initialize, writing to backup file")
		return m.openBackup()
	}

	if err := m.setupOrganizationAndBucket(ctx); err != nil {
		return err
	}
	m.createWriter()
	m.IsValid = true
	m.Logger.Info().Str("url", m.cfg.URL()).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) openBackup() error {
	if m.BackupWriter != nil {
		return nil
	}
	if m.BackupPath == "" {
		return errors.New("influx unreachable and no backup path set")
	}
	file, err := os.OpenFile(m.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.backupFile = file
	m.BackupWriter = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupOrganizationAndBucket(ctx context.Context) error {
	orgs := m.Client.OrganizationsAPI()

	org, err := orgs.FindOrganizationByName(ctx, m.cfg.Org)
	if err != nil {
		m.Logger.Info().Str("org", m.cfg.Org).Msg("Organization not found, creating")
		org, err = orgs.CreateOrganizationWithName(ctx, m.cfg.Org)
		if err != nil {
			m.Logger.Error().Err(err).Str("org", m.cfg.Org).Msg("Error creating organization")
			return err
		}
	}

	if _, err = m.Client.BucketsAPI().FindBucketByName(ctx, m.cfg.Bucket); err != nil {
		m.Logger.Info().Str("bucket", m.cfg.Bucket).Msg("Bucket not found, creating")

		rule := domain.RetentionRuleTypeExpire
		_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, org, m.cfg.Bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: 60 * 60 * 24 * 90, // 90 days
		})
		if err != nil {
			m.Logger.Error().Err(err).Str("bucket", m.cfg.Bucket).Msg("Error creating bucket")
			return err
		}
	}

	return nil
}

func (m *Manager) createWriter() {
	m.Writer = m.Client.WriteAPI(m.cfg.Org, m.cfg.Bucket)

	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			m.Logger.Error().Err(writeErr).Str("bucket", m.cfg.Bucket).
				Msg("Error sending data to InfluxDB")
		}
	}(m.Writer.Errors())
}

// WritePoint writes a point to InfluxDB or backup file.
func (m *Manager) WritePoint(point *influxdb2_write.Point) error {
	if m.IsValid {
		m.Writer.WritePoint(point)
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BackupWriter == nil {
		return fmt.Errorf("influxDB client not initialized and backup writer not available")
	}

	lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := m.BackupWriter.Write([]byte(lineProtocol + "\n")); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// Close flushes pending points and releases the client or backup file.
func (m *Manager) Close() error {
	if m.Writer != nil {
		m.Writer.Flush()
	}
	if m.Client != nil {
		m.Client.Close()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BackupWriter == nil {
		return nil
	}
	err := errors.Join(m.BackupWriter.Close(), m.backupFile.Close())
	m.BackupWriter = nil
	m.backupFile = nil
	return err
}

func battleTags(p *influxdb2_write.Point, battleID string) *influxdb2_write.Point {
	return p.AddTag("battle", battleID)
}

// AttackPoint builds the point for one attack.
func AttackPoint(a core.Attack) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(MeasurementAttack).
		AddTag("attacker_army", a.AttackerArmy).
		AddTag("attacker_squad", strconv.Itoa(a.AttackerSquad)).
		AddTag("defender_army", a.DefenderArmy).
		AddTag("defender_squad", strconv.Itoa(a.DefenderSquad)).
		AddTag("strategy", a.Strategy).
		AddField("attacker_probability", a.AttackerProbability).
		AddField("defender_probability", a.DefenderProbability).
		AddField("success", a.Success).
		AddField("elapsed_ms", a.Elapsed.Milliseconds()).
		SetTime(a.Time)
	return battleTags(p, a.BattleID.String())
}

// DamagePoint builds the point for damage applied to a squad.
func DamagePoint(d core.Damage) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(MeasurementDamage).
		AddTag("army", d.Army).
		AddTag("squad", strconv.Itoa(d.Squad)).
		AddField("amount", d.Amount).
		AddField("remaining_health", d.RemainingHealth).
		AddField("elapsed_ms", d.Elapsed.Milliseconds()).
		SetTime(d.Time)
	return battleTags(p, d.BattleID.String())
}

// SquadStatePoint builds the point for a squad readiness change.
func SquadStatePoint(s core.SquadState) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(MeasurementSquad).
		AddTag("army", s.Army).
		AddTag("squad", strconv.Itoa(s.Squad)).
		AddTag("state", s.State).
		AddField("elapsed_ms", s.Elapsed.Milliseconds()).
		SetTime(s.Time)
	return battleTags(p, s.BattleID.String())
}
