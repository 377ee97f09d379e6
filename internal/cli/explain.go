package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wayfind-io/wayfind/internal/linker"
)

// ExplainResult pairs the attached links with the per-candidate trace.
type ExplainResult struct {
	Links     any               `json:"links"`
	Decisions []linker.Decision `json:"decisions"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explain <manifest-dir>",
		Short: "Resolve one request and show why each link was attached or hidden",
		Long: `Run the same pipeline as resolve and report, per candidate link, the
stage that attached or hid it: self suppression, explicit precedence, the
version window, parameter materialization, or the access check.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, trace, err := runResolution(opts, args[0], cmd, true)
			if err != nil {
				return err
			}
			return outputExplain(opts, cmd, resp.Links(), trace)
		},
	}

	addResolveFlags(cmd, opts)
	return cmd
}

func outputExplain(opts *ResolveOptions, cmd *cobra.Command, links any, trace []linker.Decision) error {
	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	if formatter.Format == "json" {
		if trace == nil {
			trace = []linker.Decision{}
		}
		return formatter.Success(ExplainResult{Links: links, Decisions: trace})
	}

	if len(trace) == 0 {
		fmt.Fprintln(formatter.Writer, "no candidate links")
		return nil
	}
	for _, d := range trace {
		if d.Detail != "" {
			fmt.Fprintf(formatter.Writer, "%-12s %-32s %s (%s)\n", d.Outcome, d.Name, d.Href, d.Detail)
			continue
		}
		fmt.Fprintf(formatter.Writer, "%-12s %-32s %s\n", d.Outcome, d.Name, d.Href)
	}
	return nil
}
