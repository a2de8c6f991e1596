package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/vellum/internal/harness"
)

// RunResult is the scenario outcome for JSON output.
type RunResult struct {
	Scenario string           `json:"scenario"`
	Pass     bool             `json:"pass"`
	Outputs  []harness.Output `json:"outputs"`
	Errors   []string         `json:"errors,omitempty"`
	Events   int              `json:"events"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a conformance scenario",
		Long: `Run a declarative scenario against a fresh graph.

The scenario's steps execute in order; its expectations and the serial
protocol checks are evaluated afterwards. Exit code 1 means the scenario
ran but an expectation failed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runScenario(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	s, err := harness.LoadScenario(path)
	if err != nil {
		_ = formatter.Error(ErrCodeParse, err.Error(), nil)
		return WrapExitError(ExitCommandError, "load scenario", err)
	}

	formatter.VerboseLog("Running scenario %q (%d step(s))", s.Name, len(s.Steps))

	result, err := harness.Run(s)
	if err != nil {
		_ = formatter.Error(ErrCodeBuild, err.Error(), nil)
		return WrapExitError(ExitFailure, "run scenario", err)
	}

	if formatter.Format == "json" {
		rr := RunResult{
			Scenario: s.Name,
			Pass:     result.Pass,
			Outputs:  result.Outputs,
			Errors:   result.Errors,
			Events:   len(result.Trace),
		}
		if err := formatter.Success(rr); err != nil {
			return err
		}
	} else {
		if result.Pass {
			fmt.Fprintf(formatter.Writer, "✓ %s\n", s.Name)
		} else {
			fmt.Fprintf(formatter.Writer, "✗ %s\n", s.Name)
			for _, msg := range result.Errors {
				fmt.Fprintf(formatter.Writer, "  %s\n", msg)
			}
		}
		for _, o := range result.Outputs {
			fmt.Fprintf(formatter.Writer, "  %s = %d\n", o.Name, o.Value)
		}
		if opts.Verbose {
			fmt.Fprintf(formatter.Writer, "  %d event(s) traced\n", len(result.Trace))
		}
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed with %d violation(s)", s.Name, len(result.Errors)))
	}
	return nil
}
