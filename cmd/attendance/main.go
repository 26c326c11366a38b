/*
main.go - Command-line entry point

PURPOSE:
  One binary for every way of consuming a reconciliation: terminal report,
  file export, HTTP server with dashboard, and snapshot history.

COMMANDS:
  attendance report                  Print the report to the terminal
  attendance export --format xlsx    Write class_attendance_report.xlsx
  attendance serve                   HTTP API, dashboard and /metrics
  attendance snapshot                Reconcile and persist; print run ID
  attendance runs [--limit N]        List persisted snapshots
  attendance runs show <id>          Print or export one snapshot

GLOBAL FLAGS:
  --config     YAML config file (default: ./config.yaml if present)
  --roster     Roster root directory
  --durations  Duration source CSV
  --expected   Expected session minutes
  --log-level  debug, info, warn, error
  --db         SQLite snapshot database

  Every flag has an ATTENDANCE_* environment equivalent; see config/config.go.

EXIT CODES:
  0  success
  1  any other failure
  2  configuration error (missing or empty roster, invalid settings)
  3  data integrity error (malformed duration source)
*/
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/config"
	"github.com/warp/attendance-engine/logger"
	"github.com/warp/attendance-engine/observability"
	"github.com/warp/attendance-engine/records"
	"github.com/warp/attendance-engine/roster"
	"github.com/warp/attendance-engine/store/sqlite"
)

const (
	exitOK            = 0
	exitFailure       = 1
	exitConfiguration = 2
	exitDataIntegrity = 3
)

// app carries state shared by every subcommand once flags are parsed.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "attendance",
		Short: "Reconcile a roster against recorded attendance time",
		Long: `attendance merges the roster of known individuals (one directory per
person under the roster root) with accumulated presence durations, marks
everyone Present or Absent, and reports how many of the expected minutes
each person missed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (YAML)")
	flags.String("roster", "", "roster root directory (default known_faces)")
	flags.String("durations", "", "duration source CSV (default face_time_report.csv)")
	flags.Float64("expected", 0, "expected session minutes (default 300)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("db", "", "snapshot database path (default attendance.db)")

	root.AddCommand(
		newReportCmd(a),
		newExportCmd(a),
		newServeCmd(a),
		newSnapshotCmd(a),
		newRunsCmd(a),
	)
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return &attendance.ConfigurationError{Setting: "log.level", Value: cfg.Log.Level, Err: err}
	}
	a.cfg = cfg
	a.logger = log
	return nil
}

// rosterDir returns the configured roster source.
func (a *app) rosterDir() *roster.Dir {
	return roster.New(a.cfg.RosterRoot)
}

// engine builds an engine over the configured inputs.
func (a *app) engine(rosterDir *roster.Dir) *attendance.Engine {
	source := &records.CSVFile{Path: a.cfg.DurationSource, Delimiter: a.cfg.Delimiter()}
	engine := attendance.NewEngine(rosterDir, source, a.cfg.Options(), a.logger)
	engine.Observer = observability.Observer{}
	return engine
}

// openStore opens the snapshot database.
func (a *app) openStore() (*sqlite.Store, error) {
	store, err := sqlite.New(a.cfg.DB.Path)
	if err != nil {
		return nil, &attendance.ConfigurationError{Setting: "db.path", Value: a.cfg.DB.Path, Reason: "cannot open snapshot database", Err: err}
	}
	return store, nil
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case attendance.IsConfiguration(err):
		return exitConfiguration
	case attendance.IsDataIntegrity(err):
		return exitDataIntegrity
	default:
		return exitFailure
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitCode(err)
	}
	return exitOK
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
