package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/vellum/internal/serial"
	"github.com/roach88/vellum/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Node     string // optional - filter to one node
}

// TraceRow is one rendered trace event.
type TraceRow struct {
	ID     int64  `json:"id"`
	Kind   string `json:"kind"`
	Node   string `json:"node,omitempty"`
	Serial int32  `json:"serial"`
	Detail string `json:"detail,omitempty"`
}

// TraceReport is the complete trace output.
type TraceReport struct {
	Database string     `json:"database"`
	Events   []TraceRow `json:"events"`
	Stats    TraceStats `json:"stats"`
}

// TraceStats summarizes a trace.
type TraceStats struct {
	TotalEvents int `json:"total_events"`
	Writes      int `json:"writes"`
	Recomputes  int `json:"recomputes"`
	Groups      int `json:"groups"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect a recorded event trace",
		Long: `Read a SQLite trace database recorded by 'vellum eval --db' and
print the event timeline: serial allocations, grouped updates, writes,
recomputations, retargets and connections.

Examples:
  vellum trace --db ./trace.db
  vellum trace --db ./trace.db --node total
  vellum trace --db ./trace.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Node, "node", "", "filter to events for one node")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Opening a missing path would create an empty database; check first.
	if _, err := os.Stat(opts.Database); err != nil {
		_ = formatter.Error(ErrCodeIO, fmt.Sprintf("trace database not found: %s", opts.Database), nil)
		return WrapExitError(ExitCommandError, "open trace database", err)
	}

	rec, err := trace.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeIO, err.Error(), nil)
		return WrapExitError(ExitCommandError, "open trace database", err)
	}
	defer rec.Close()

	ctx := context.Background()

	var rows []trace.Row
	if opts.Node != "" {
		rows, err = rec.NodeEvents(ctx, opts.Node)
	} else {
		rows, err = rec.Events(ctx)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeIO, err.Error(), nil)
		return WrapExitError(ExitCommandError, "read trace", err)
	}

	report := buildReport(opts.Database, rows)

	if formatter.Format == "json" {
		return formatter.Success(report)
	}
	return outputTraceText(formatter, report)
}

// buildReport converts rows to the rendered report with stats.
func buildReport(db string, rows []trace.Row) TraceReport {
	report := TraceReport{Database: db, Events: make([]TraceRow, len(rows))}
	for i, r := range rows {
		report.Events[i] = TraceRow{
			ID:     r.ID,
			Kind:   string(r.Kind),
			Node:   r.Node,
			Serial: int32(r.Serial),
			Detail: r.Detail,
		}
		switch r.Kind {
		case serial.EventSet:
			report.Stats.Writes++
		case serial.EventRecompute:
			report.Stats.Recomputes++
		case serial.EventGroupEnter:
			report.Stats.Groups++
		}
	}
	report.Stats.TotalEvents = len(rows)
	return report
}

// outputTraceText renders the report as a timeline.
func outputTraceText(formatter *OutputFormatter, report TraceReport) error {
	w := formatter.Writer

	fmt.Fprintf(w, "Trace: %s\n\n", report.Database)

	if len(report.Events) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, ev := range report.Events {
		switch {
		case ev.Node != "" && ev.Detail != "":
			fmt.Fprintf(w, "  [%d] %-12s %s = %s (serial %d)\n", ev.ID, ev.Kind, ev.Node, ev.Detail, ev.Serial)
		case ev.Node != "":
			fmt.Fprintf(w, "  [%d] %-12s %s (serial %d)\n", ev.ID, ev.Kind, ev.Node, ev.Serial)
		default:
			fmt.Fprintf(w, "  [%d] %-12s serial %d\n", ev.ID, ev.Kind, ev.Serial)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Events:     %d\n", report.Stats.TotalEvents)
	fmt.Fprintf(w, "Writes:     %d\n", report.Stats.Writes)
	fmt.Fprintf(w, "Recomputes: %d\n", report.Stats.Recomputes)
	fmt.Fprintf(w, "Groups:     %d\n", report.Stats.Groups)

	return nil
}
