package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/export"
	"github.com/warp/attendance-engine/report"
)

// =============================================================================
// REPORT
// =============================================================================

func newReportCmd(a *app) *cobra.Command {
	var opts report.Options

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Reconcile and print the attendance report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := a.engine(a.rosterDir()).Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.Render(rep, opts))
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Title, "title", "", "report heading")
	cmd.Flags().BoolVar(&opts.HideChart, "no-chart", false, "omit the bar chart")
	cmd.Flags().IntVar(&opts.BarWidth, "bar-width", report.DefaultBarWidth, "bar chart width in cells")
	return cmd
}

// =============================================================================
// EXPORT
// =============================================================================

func newExportCmd(a *app) *cobra.Command {
	var formatName, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Reconcile and write the report as csv, xlsx or json",
		Long: `Writes the reconciled report to a file. The default file name is
class_attendance_report.<format> in the working directory; use --out - for
stdout. A CSV export can be used as a later duration source.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}
			rep, err := a.engine(a.rosterDir()).Run(cmd.Context())
			if err != nil {
				return err
			}
			return writeExport(cmd, a, format, rep, out)
		},
	}
	cmd.Flags().StringVarP(&formatName, "format", "f", string(export.FormatCSV), "csv, xlsx or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path, - for stdout (default class_attendance_report.<format>)")
	return cmd
}

func writeExport(cmd *cobra.Command, a *app, format export.Format, rep *attendance.Report, out string) error {
	if out == "-" {
		return export.Write(cmd.OutOrStdout(), format, rep)
	}
	if out == "" {
		out = format.Filename()
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := export.Write(f, format, rep); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	a.logger.Info("report exported", zap.String("path", out), zap.String("format", string(format)))
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

func newSnapshotCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Reconcile and persist the result; prints the run ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			rosterDir := a.rosterDir()
			snap := &attendance.Snapshotter{
				Engine:         a.engine(rosterDir),
				Store:          store,
				RosterRoot:     rosterDir.Root,
				DurationSource: a.cfg.DurationSource,
			}
			run, err := snap.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), run.ID)
			return nil
		},
	}
}

func newRunsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List persisted snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.Runs(runs))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to list, 0 for all")
	cmd.AddCommand(newRunsShowCmd(a))
	return cmd
}

func newRunsShowCmd(a *app) *cobra.Command {
	var formatName, out string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print or export one persisted snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(cmd.Context(), attendance.RunID(args[0]))
			if err != nil {
				return err
			}

			if formatName == "" || formatName == "text" {
				w := cmd.OutOrStdout()
				printRunHeader(w, run)
				fmt.Fprint(w, report.Render(run.Report(), report.Options{}))
				return nil
			}

			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}
			if out == "" {
				out = "-"
			}
			return writeExport(cmd, a, format, run.Report(), out)
		},
	}
	cmd.Flags().StringVarP(&formatName, "format", "f", "text", "text, csv, xlsx or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path for csv, xlsx or json (default stdout)")
	return cmd
}

func printRunHeader(w io.Writer, run *attendance.Run) {
	fmt.Fprintf(w, "Run %s\n", run.ID)
	if run.RosterRoot != "" {
		fmt.Fprintf(w, "Roster:    %s\n", run.RosterRoot)
	}
	if run.DurationSource != "" {
		fmt.Fprintf(w, "Durations: %s\n", run.DurationSource)
	}
	fmt.Fprintln(w)
}
