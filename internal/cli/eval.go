package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/vellum/internal/graphdef"
	"github.com/roach88/vellum/internal/serial"
	"github.com/roach88/vellum/internal/trace"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Sets     []string // node=value writes applied before evaluation
	Grouped  bool     // apply all writes in one grouped update
	Database string   // optional trace database
}

// EvalOutput is one evaluated output for JSON rendering.
type EvalOutput struct {
	Name   string `json:"name"`
	Value  int64  `json:"value"`
	Serial int32  `json:"serial"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <graph.yaml>",
		Short: "Build a graph, apply writes, and print its outputs",
		Long: `Build the holder graph a definition declares, apply --set writes,
and evaluate the declared outputs.

With --group, all writes run inside one grouped update and observe a
single serial. With --db, every serial event of the run is recorded to
a SQLite trace database for later inspection with 'vellum trace'.

Examples:
  vellum eval graph.yaml
  vellum eval graph.yaml --set a=10 --set b=20 --group
  vellum eval graph.yaml --set a=10 --db ./trace.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Sets, "set", nil, "write node=value before evaluating (repeatable)")
	cmd.Flags().BoolVar(&opts.Grouped, "group", false, "apply all --set writes in one grouped update")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the event trace to this SQLite database")

	return cmd
}

func runEval(opts *EvalOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	writes, err := parseSets(opts.Sets)
	if err != nil {
		_ = formatter.Error(ErrCodeBadInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "parse --set", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeIO, fmt.Sprintf("cannot read %s", path), err.Error())
		return WrapExitError(ExitCommandError, "read graph file", err)
	}

	def, err := graphdef.Parse(data)
	if err != nil {
		_ = formatter.Error(ErrCodeParse, err.Error(), nil)
		return WrapExitError(ExitFailure, "parse graph", err)
	}

	a := serial.NewAuthority()
	if opts.Database != "" {
		rec, err := trace.Open(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeIO, fmt.Sprintf("cannot open trace database %s", opts.Database), err.Error())
			return WrapExitError(ExitCommandError, "open trace database", err)
		}
		defer rec.Close()
		a.SetSink(rec)
	}

	g, err := graphdef.Build(a, def)
	if err != nil {
		_ = formatter.Error(ErrCodeBuild, err.Error(), nil)
		return WrapExitError(ExitFailure, "build graph", err)
	}

	formatter.VerboseLog("Built graph %q with %d node(s)", def.Name, len(def.Nodes))

	apply := func() error {
		for _, w := range writes {
			if err := g.Set(w.node, w.value); err != nil {
				return err
			}
		}
		return nil
	}
	if opts.Grouped {
		var gerr error
		a.Grouped(func() { gerr = apply() })
		err = gerr
	} else {
		err = apply()
	}
	if err != nil {
		_ = formatter.Error(ErrCodeBadInput, err.Error(), nil)
		return WrapExitError(ExitFailure, "apply writes", err)
	}

	results := g.Eval()
	outputs := make([]EvalOutput, len(results))
	for i, r := range results {
		outputs[i] = EvalOutput{Name: r.Name, Value: r.Value, Serial: int32(r.Serial)}
	}

	if formatter.Format == "json" {
		return formatter.Success(outputs)
	}
	for _, o := range outputs {
		fmt.Fprintf(formatter.Writer, "%s = %d\n", o.Name, o.Value)
		if opts.Verbose {
			fmt.Fprintf(formatter.Writer, "  serial: %d\n", o.Serial)
		}
	}
	return nil
}

// setWrite is one parsed --set flag.
type setWrite struct {
	node  string
	value int64
}

// parseSets parses node=value flags.
func parseSets(sets []string) ([]setWrite, error) {
	writes := make([]setWrite, 0, len(sets))
	for _, s := range sets {
		node, raw, ok := strings.Cut(s, "=")
		if !ok || node == "" {
			return nil, fmt.Errorf("invalid --set %q: want node=value", s)
		}
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --set %q: value must be an integer", s)
		}
		writes = append(writes, setWrite{node: node, value: value})
	}
	return writes, nil
}
