package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wayfind-io/wayfind/internal/apiversion"
	"github.com/wayfind-io/wayfind/internal/linker"
	"github.com/wayfind-io/wayfind/internal/rbac"
	"github.com/wayfind-io/wayfind/internal/route"
)

// ResolveOptions holds flags shared by the resolve and explain commands.
type ResolveOptions struct {
	*RootOptions
	Template string
	Verb     string
	Params   []string
	Fields   []string
	Version  string
	Subject  string
	Database string
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <manifest-dir>",
		Short: "Resolve the links a request would see",
		Long: `Compile route manifests and run one request through link resolution.

Without --db every link passes the access check; point --db at a grant
database to enforce permissions and scopes for --subject.

Example:
  wayfind resolve ./manifests --template 'v1/{customer}/product/{id}' \
    --param customer=acme --param id=42 --subject alice --db ./grants.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, _, err := runResolution(opts, args[0], cmd, false)
			if err != nil {
				return err
			}
			return outputLinks(opts, cmd, resp)
		},
	}

	addResolveFlags(cmd, opts)
	return cmd
}

func addResolveFlags(cmd *cobra.Command, opts *ResolveOptions) {
	cmd.Flags().StringVar(&opts.Template, "template", "", "path template of the current route (required)")
	cmd.Flags().StringVar(&opts.Verb, "verb", "GET", "HTTP method of the current request")
	cmd.Flags().StringArrayVar(&opts.Params, "param", nil, "route parameter value as name=value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Fields, "field", nil, "response field value as name=value (repeatable)")
	cmd.Flags().StringVar(&opts.Version, "version", "", "x-api-version header value (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Subject, "subject", "", "caller subject for grant checks")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite grant database")
	_ = cmd.MarkFlagRequired("template")
}

// runResolution compiles the manifests, builds a resolver and runs one
// request. The returned resource carries the attached links; the decision
// trace is non-nil only when explain is set.
func runResolution(opts *ResolveOptions, manifestDir string, cmd *cobra.Command, explain bool) (*linker.Resource, []linker.Decision, error) {
	// Configure logging based on verbose flag
	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	graph, err := loadGraph(manifestDir, formatter)
	if err != nil {
		return nil, nil, err
	}

	params, err := parseKeyValues(opts.Params)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "invalid --param", err)
	}
	fields, err := parseKeyValues(opts.Fields)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "invalid --field", err)
	}
	version, err := apiversion.ParseRequested(opts.Version)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "invalid --version", err)
	}

	var authz rbac.Authorizer
	if opts.Database != "" {
		store, err := rbac.OpenStore(opts.Database)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to open grant database", err)
		}
		defer func() {
			if closeErr := store.Close(); closeErr != nil {
				slog.Error("error closing grant database", "error", closeErr)
			}
		}()
		authz = store
	}

	resolver := linker.New(graph, authz)
	req := linker.Request{
		Template: opts.Template,
		Verb:     strings.ToUpper(opts.Verb),
		Params:   params,
		Version:  version,
		Identity: rbac.Identity{Subject: opts.Subject},
	}
	resp := linker.NewResource(fields)

	// Use command's context if available (for testing), otherwise create one
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if explain {
		trace := resolver.Explain(ctx, req, resp)
		return resp, trace, nil
	}
	resolver.Attach(ctx, req, resp)
	return resp, nil, nil
}

func outputLinks(opts *ResolveOptions, cmd *cobra.Command, resp *linker.Resource) error {
	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	links := resp.Links()
	if formatter.Format == "json" {
		if links == nil {
			links = []route.Link{}
		}
		return formatter.Success(links)
	}

	if len(links) == 0 {
		fmt.Fprintln(formatter.Writer, "no links")
		return nil
	}
	for _, link := range links {
		method := link.Method
		if method == "" {
			method = "GET"
		}
		fmt.Fprintf(formatter.Writer, "%-8s %-32s %s\n", method, link.Name, link.Href)
	}
	return nil
}

// parseKeyValues parses repeated name=value flags into a map.
func parseKeyValues(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, found := strings.Cut(pair, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", pair)
		}
		out[name] = value
	}
	return out, nil
}
