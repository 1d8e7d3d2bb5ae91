package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/battlesim/battlesim/internal/model/core"
	v1 "github.com/battlesim/battlesim/internal/storage/memory/export/v1"
)

// exportJSON writes the battle report to a JSON file, gzipped when configured.
func (b *Backend) exportJSON() error {
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, ReportFileName(b.battle, b.cfg.CompressOutput))
	if err := WriteReport(outputPath, b.buildExport(), b.cfg.CompressOutput); err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

// ReportFileName returns <name>_<start>.json, with a .gz suffix when compressed.
func ReportFileName(battle *core.Battle, compress bool) string {
	name := battle.Name
	if name == "" {
		name = "battle"
	}
	name = strings.NewReplacer(" ", "_", ":", "_", "/", "_").Replace(name)

	filename := fmt.Sprintf("%s_%s.json", name, battle.StartTime.Format("20060102_150405"))
	if compress {
		filename += ".gz"
	}
	return filename
}

// WriteReport writes r to path as JSON, gzipped when compress is set.
func WriteReport(path string, r v1.Report, compress bool) error {
	if compress {
		return writeGzipJSON(path, r)
	}
	return writeJSON(path, r)
}

func (b *Backend) buildExport() v1.Report {
	return v1.Build(&v1.BattleData{
		Battle:      b.battle,
		Outcome:     b.outcome,
		Units:       b.units,
		Attacks:     b.attacks,
		Damages:     b.damages,
		SquadStates: b.squadStates,
	})
}

func writeJSON(path string, data v1.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(data)
}

func writeGzipJSON(path string, data v1.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	if err := json.NewEncoder(gzWriter).Encode(data); err != nil {
		gzWriter.Close()
		return err
	}
	return gzWriter.Close()
}
