package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/battlesim/battlesim/internal/config"
	"github.com/battlesim/battlesim/internal/database"
	"github.com/battlesim/battlesim/internal/storage/gormstore"
	"github.com/battlesim/battlesim/internal/storage/memory"
	v1 "github.com/battlesim/battlesim/internal/storage/memory/export/v1"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type reportOptions struct {
	configDir string
	db        string
	outDir    string
	gzip      bool
}

// openReportDB opens the sqlite file given by -db, or the database the
// storage config points at.
func openReportDB(opts reportOptions) (*gorm.DB, error) {
	if opts.db != "" {
		return database.OpenSQLite(opts.db)
	}

	if err := config.Load(opts.configDir); err != nil {
		config.LoadDefaults()
	}
	sc := config.GetStorageConfig()
	switch sc.Type {
	case "postgres":
		return database.OpenPostgres(sc.Postgres)
	case "sqlite":
		if sc.SQLite.Path == "" {
			return nil, fmt.Errorf("storage.sqlite.path is not set")
		}
		return database.OpenSQLite(sc.SQLite.Path)
	default:
		return nil, fmt.Errorf("storage type %q keeps no database, pass -db", sc.Type)
	}
}

// runReport lists recorded battles, or writes the after-action report of
// each battle id given.
func runReport(args []string, stdout, stderr io.Writer) error {
	var opts reportOptions
	fs := flag.NewFlagSet("battlesim report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configDir, "config", ".", "directory containing "+config.FileName)
	fs.StringVar(&opts.db, "db", "", "sqlite database file; overrides the storage config")
	fs.StringVar(&opts.outDir, "out", ".", "directory reports are written to")
	fs.BoolVar(&opts.gzip, "gzip", false, "gzip the report")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := openReportDB(opts)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if fs.NArg() == 0 {
		return listBattles(db, stdout)
	}

	if err := os.MkdirAll(opts.outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, arg := range fs.Args() {
		id, err := uuid.Parse(arg)
		if err != nil {
			return fmt.Errorf("invalid battle id %q: %w", arg, err)
		}

		rec, err := gormstore.LoadBattle(db, id)
		if err != nil {
			return err
		}
		report := v1.Build(&v1.BattleData{
			Battle:      &rec.Battle,
			Outcome:     rec.Outcome,
			Units:       rec.Units,
			Attacks:     rec.Attacks,
			Damages:     rec.Damages,
			SquadStates: rec.SquadStates,
		})

		path := filepath.Join(opts.outDir, memory.ReportFileName(&rec.Battle, opts.gzip))
		if err := memory.WriteReport(path, report, opts.gzip); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Report: %s\n", path)
	}
	return nil
}

func listBattles(db *gorm.DB, stdout io.Writer) error {
	battles, err := gormstore.ListBattles(db)
	if err != nil {
		return err
	}
	if len(battles) == 0 {
		fmt.Fprintln(stdout, "No battles recorded.")
		return nil
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTARTED\tELAPSED\tWINNER\tATTACKS\tHITS")
	for _, b := range battles {
		winner := b.Winner
		if b.EndTime == nil {
			winner = "(running)"
		} else if !b.Concluded {
			winner = "(abandoned)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			b.ID, b.Name, b.StartTime.Format(time.DateTime),
			(time.Duration(b.ElapsedMs) * time.Millisecond).String(),
			winner, b.Attacks, b.Hits)
	}
	return w.Flush()
}
