package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rasterandstate/majestic-canon/internal/catalog"
	"github.com/rasterandstate/majestic-canon/internal/identity"
	"github.com/rasterandstate/majestic-canon/internal/redirect"
)

type resolveOutput struct {
	Input     string `json:"input"`
	Current   string `json:"current"`
	Retired   bool   `json:"retired"`
	Cataloged *bool  `json:"cataloged,omitempty"`
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var useCatalog bool

	cmd := &cobra.Command{
		Use:   "resolve <edition-id>",
		Short: "Resolve a possibly retired identity to its current identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := identity.ParseID(args[0])
			if err != nil {
				return err
			}
			runCtx := ctx.runContext(cmd)
			table, err := ctx.redirects().Load(runCtx)
			if err != nil {
				return err
			}
			out := resolveOutput{
				Input:   string(id),
				Current: table.Resolve(string(id)),
				Retired: table.Retired(string(id)),
			}

			if useCatalog {
				err := ctx.withCatalog(func(store *catalog.Store) error {
					entry, err := store.Lookup(runCtx, id, table)
					found := err == nil
					switch {
					case errors.Is(err, catalog.ErrNotFound):
					case err != nil:
						return err
					default:
						out.Current = string(entry.ID)
					}
					out.Cataloged = &found
					return nil
				})
				if err != nil {
					return err
				}
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, out)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Current)
			if out.Cataloged != nil && !*out.Cataloged {
				return fmt.Errorf("%s: %w", out.Current, catalog.ErrNotFound)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&useCatalog, "catalog", false, "Also require the resolved identity to exist in the catalog")
	return cmd
}

func newRedirectCommand(ctx *commandContext) *cobra.Command {
	redirectCmd := &cobra.Command{
		Use:   "redirect",
		Short: "Maintain the redirect table",
	}
	redirectCmd.AddCommand(newRedirectAddCommand(ctx))
	redirectCmd.AddCommand(newRedirectListCommand(ctx))
	return redirectCmd
}

func newRedirectAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <retired-id> <replacement-id>",
		Short: "Record that one identity has been superseded by another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := ctx.redirects().Update(ctx.runContext(cmd), func(t *redirect.Table) error {
				return t.Add(args[0], args[1])
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", args[0], table.Resolve(args[0]))
			return nil
		},
	}
}

func newRedirectListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List redirect entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := ctx.redirects().Load(ctx.runContext(cmd))
			if err != nil {
				return err
			}
			entries := table.Entries()
			if ctx.jsonOutput() {
				return writeJSON(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No redirects")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.From, e.To})
			}
			writeRows(cmd, []string{"Retired", "Current"}, rows)
			return nil
		},
	}
}
