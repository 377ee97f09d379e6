package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wayfind-io/wayfind/internal/rbac"
)

// GrantOptions holds flags shared by the grant subcommands.
type GrantOptions struct {
	*RootOptions
	Database    string
	Subject     string
	Permissions []string
	Scopes      []string
}

// SubjectGrants is the JSON shape of one subject's grants.
type SubjectGrants struct {
	Subject     string   `json:"subject"`
	Permissions []string `json:"permissions"`
	Scopes      []string `json:"scopes"`
}

// NewGrantCommand creates the grant command group.
func NewGrantCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Manage the SQLite grant database",
		Long: `Manage permission and scope grants backing the access check.

The database is created on first use. Grants are plain rows; "ANY" segments
in a scope grant act as wildcards when the resolver checks a concrete scope.`,
	}

	cmd.AddCommand(newGrantAddCommand(rootOpts))
	cmd.AddCommand(newGrantRevokeCommand(rootOpts))
	cmd.AddCommand(newGrantListCommand(rootOpts))
	return cmd
}

func newGrantAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GrantOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Grant permissions or scopes to a subject",
		Long: `Grant permissions or scopes to a subject.

Example:
  wayfind grant add --db ./grants.db --subject alice \
    --permission product.read --scope 'CC:c_acme:Product:ANY:ANY'`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrantMutation(opts, cmd, "granted",
				func(ctx context.Context, store *rbac.Store, p string) error {
					return store.GrantPermission(ctx, opts.Subject, p)
				},
				func(ctx context.Context, store *rbac.Store, s string) error {
					return store.GrantScope(ctx, opts.Subject, s)
				})
		},
	}

	addGrantFlags(cmd, opts)
	return cmd
}

func newGrantRevokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GrantOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "revoke",
		Short:         "Revoke permissions or scopes from a subject",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrantMutation(opts, cmd, "revoked",
				func(ctx context.Context, store *rbac.Store, p string) error {
					return store.RevokePermission(ctx, opts.Subject, p)
				},
				func(ctx context.Context, store *rbac.Store, s string) error {
					return store.RevokeScope(ctx, opts.Subject, s)
				})
		},
	}

	addGrantFlags(cmd, opts)
	return cmd
}

func newGrantListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GrantOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List a subject's grants",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrantList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite grant database (required)")
	cmd.Flags().StringVar(&opts.Subject, "subject", "", "subject to list (required)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func addGrantFlags(cmd *cobra.Command, opts *GrantOptions) {
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite grant database (required)")
	cmd.Flags().StringVar(&opts.Subject, "subject", "", "subject the grants attach to (required)")
	cmd.Flags().StringArrayVar(&opts.Permissions, "permission", nil, "permission name (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Scopes, "scope", nil, "scope string (repeatable)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("subject")
}

func runGrantMutation(opts *GrantOptions, cmd *cobra.Command, verb string,
	applyPermission, applyScope func(context.Context, *rbac.Store, string) error) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if len(opts.Permissions) == 0 && len(opts.Scopes) == 0 {
		return NewExitError(ExitCommandError, "at least one --permission or --scope is required")
	}

	store, err := rbac.OpenStore(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open grant database", err)
	}
	defer store.Close()

	ctx := grantContext(cmd)
	for _, p := range opts.Permissions {
		if err := applyPermission(ctx, store, p); err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("permission %q", p), err)
		}
	}
	for _, s := range opts.Scopes {
		if err := applyScope(ctx, store, s); err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("scope %q", s), err)
		}
	}

	return formatter.Success(fmt.Sprintf("%s %d permission(s) and %d scope(s) for %s",
		verb, len(opts.Permissions), len(opts.Scopes), opts.Subject))
}

func runGrantList(opts *GrantOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	store, err := rbac.OpenStore(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open grant database", err)
	}
	defer store.Close()

	ctx := grantContext(cmd)
	permissions, err := store.Permissions(ctx, opts.Subject)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to query permissions", err)
	}
	scopes, err := store.Scopes(ctx, opts.Subject)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to query scopes", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(SubjectGrants{
			Subject:     opts.Subject,
			Permissions: permissions,
			Scopes:      scopes,
		})
	}

	fmt.Fprintf(formatter.Writer, "subject: %s\n", opts.Subject)
	fmt.Fprintln(formatter.Writer, "permissions:")
	for _, p := range permissions {
		fmt.Fprintf(formatter.Writer, "  %s\n", p)
	}
	fmt.Fprintln(formatter.Writer, "scopes:")
	for _, s := range scopes {
		fmt.Fprintf(formatter.Writer, "  %s\n", s)
	}
	return nil
}

func grantContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
