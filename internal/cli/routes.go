package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wayfind-io/wayfind/internal/manifest"
	"github.com/wayfind-io/wayfind/internal/route"
)

// RouteListing is one template with its related link candidates.
type RouteListing struct {
	Template string      `json:"template"`
	Links    []RouteLink `json:"links"`
}

// RouteLink is a listing entry: the wire-level link plus descriptor
// metadata, such as the introduction date, that never travels on responses.
type RouteLink struct {
	Name       string `json:"name"`
	Href       string `json:"href"`
	Method     string `json:"method,omitempty"`
	Introduced string `json:"introduced,omitempty"`
}

// NewRoutesCommand creates the routes command.
func NewRoutesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes <manifest-dir>",
		Short: "Show the compiled route relationship graph",
		Long: `Compile route manifests and print the relationship graph.

Each indexed template is listed with every link candidate related to it:
routes registered under the template itself plus routes one path segment
below. This is what the resolver consults per request.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoutes(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runRoutes(opts *RootOptions, manifestDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	graph, err := loadGraph(manifestDir, formatter)
	if err != nil {
		return err
	}

	listings := make([]RouteListing, 0)
	for _, template := range graph.Templates() {
		listing := RouteListing{Template: template}
		for _, entry := range graph.Related(template) {
			listing.Links = append(listing.Links, RouteLink{
				Name:       entry.Link.Name,
				Href:       entry.Link.Href,
				Method:     entry.Link.Method,
				Introduced: entry.Introduced,
			})
		}
		listings = append(listings, listing)
	}

	if formatter.Format == "json" {
		return formatter.Success(listings)
	}

	for _, listing := range listings {
		fmt.Fprintln(formatter.Writer, listing.Template)
		for _, link := range listing.Links {
			method := link.Method
			if method == "" {
				method = "GET"
			}
			if link.Introduced != "" {
				fmt.Fprintf(formatter.Writer, "  %-8s %-32s %-48s introduced %s\n", method, link.Name, link.Href, link.Introduced)
				continue
			}
			fmt.Fprintf(formatter.Writer, "  %-8s %-32s %s\n", method, link.Name, link.Href)
		}
	}
	return nil
}

// loadGraph compiles a manifest directory into a route graph, mapping load
// failures onto CLI exit codes.
func loadGraph(manifestDir string, formatter *OutputFormatter) (*route.Graph, error) {
	result, err := manifest.LoadDir(manifestDir)
	if err != nil {
		_ = formatter.Error(manifest.ErrCodeGeneric, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to load manifests", err)
	}

	formatter.VerboseLog("Compiled %d route(s) from %d file(s)", len(result.Descriptors), result.FileCount)

	graph, diags := route.BuildGraph(result.Descriptors)
	for _, diag := range diags {
		formatter.VerboseLog("diagnostic: %v", diag)
	}
	return graph, nil
}
