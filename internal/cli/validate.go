package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wayfind-io/wayfind/internal/manifest"
)

// ValidationError is one manifest problem in reportable form.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Routes int               `json:"routes,omitempty"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <manifest-dir>",
		Short: "Validate route manifests without building a graph",
		Long: `Validate CUE route manifests.

Checks syntax, required fields, template brace balance, and maxversion
marker dates without starting anything. Fast feedback for manifest authors.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, manifestDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	result, err := manifest.LoadDir(manifestDir)
	if err != nil {
		var loadErr *manifest.LoadError
		if !errors.As(err, &loadErr) {
			return outputValidateError(formatter, manifest.ErrCodeGeneric, err.Error())
		}
		if isCommandLevel(loadErr.Code) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		verr := ValidationError{Code: loadErr.Code, Message: loadErr.Message}
		if loadErr.Pos.IsValid() {
			verr.Line = loadErr.Pos.Line()
		}
		return outputValidationErrors(formatter, []ValidationError{verr})
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, manifestDir)
	return outputValidateSuccess(formatter, len(result.Descriptors))
}

// isCommandLevel reports whether a load error code means the command could
// not run at all, as opposed to the manifests being invalid.
func isCommandLevel(code string) bool {
	switch code {
	case manifest.ErrCodeNotFound, manifest.ErrCodeScanError, manifest.ErrCodeNoFiles:
		return true
	}
	return false
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, routes int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Routes: routes})
	}

	fmt.Fprintf(formatter.Writer, "✓ %d route(s) valid\n", routes)
	return nil
}

// outputValidateError outputs a command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs validation failures.
func outputValidationErrors(formatter *OutputFormatter, errs []ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, verr := range errs {
		if verr.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", verr.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", verr.Code, verr.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
