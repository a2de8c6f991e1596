package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/vellum/internal/graphdef"
)

// ValidationResult holds validation results for JSON output.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Graph string           `json:"graph,omitempty"`
	Nodes int              `json:"nodes,omitempty"`
	Error *ValidationError `json:"error,omitempty"`
}

// ValidationError is one graph definition error.
type ValidationError struct {
	Code    string `json:"code"`
	Node    string `json:"node,omitempty"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <graph.yaml>",
		Short: "Validate a graph definition without building it",
		Long: `Validate a graph definition YAML file.

Checks the document against the graph schema and the semantic rules:
unique node names, references to already-declared nodes, per-kind
required fields. No holders are constructed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeIO, fmt.Sprintf("cannot read %s", path), err.Error())
		return WrapExitError(ExitCommandError, "read graph file", err)
	}

	def, err := graphdef.Parse(data)
	if err != nil {
		return outputValidationFailure(formatter, err)
	}

	formatter.VerboseLog("Parsed graph %q with %d node(s)", def.Name, len(def.Nodes))

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{
			Valid: true,
			Graph: def.Name,
			Nodes: len(def.Nodes),
		})
	}
	fmt.Fprintf(formatter.Writer, "✓ %s: %d node(s) valid\n", def.Name, len(def.Nodes))
	return nil
}

// outputValidationFailure renders a parse error and returns ExitFailure.
func outputValidationFailure(formatter *OutputFormatter, err error) error {
	ve := ValidationError{Code: ErrCodeParse, Message: err.Error()}

	var de *graphdef.DefError
	if errors.As(err, &de) {
		ve = ValidationError{Code: de.Code, Node: de.Node, Message: de.Message}
	}

	if formatter.Format == "json" {
		if encErr := formatter.Error(ve.Code, ve.Message, ValidationResult{Valid: false, Error: &ve}); encErr != nil {
			return encErr
		}
	} else {
		fmt.Fprintln(formatter.Writer, "✗ Validation failed")
		if ve.Node != "" {
			fmt.Fprintf(formatter.Writer, "  node %s\n", ve.Node)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", ve.Code, ve.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed: %s", ve.Message))
}
