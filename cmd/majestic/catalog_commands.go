package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rasterandstate/majestic-canon/internal/catalog"
	"github.com/rasterandstate/majestic-canon/internal/identity"
	"github.com/rasterandstate/majestic-canon/internal/pipeline"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Maintain the catalog of committed editions",
	}
	catalogCmd.AddCommand(newCatalogCommitCommand(ctx))
	catalogCmd.AddCommand(newCatalogSupersedeCommand(ctx))
	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	catalogCmd.AddCommand(newCatalogVerifyCommand(ctx))
	catalogCmd.AddCommand(newCatalogExportCommand(ctx))
	return catalogCmd
}

func newCatalogCommitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "commit <path>...",
		Short: "Validate, derive and store edition documents",
		Long: "Commit stores every record only when the whole batch passes validation;\n" +
			"a single blocking violation commits nothing.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := runBatch(cmd, ctx, args, 0)
			if err != nil {
				return err
			}
			if err := writeReport(cmd, summary.Report()); err != nil {
				return fmt.Errorf("nothing committed: %w", err)
			}

			runCtx := ctx.runContext(cmd)
			var created, existing int
			err = ctx.withCatalog(func(store *catalog.Store) error {
				for _, res := range summary.Derived() {
					sub, err := res.Submission()
					if err != nil {
						return err
					}
					isNew, err := store.Commit(runCtx, sub)
					if err != nil {
						return fmt.Errorf("%s: %w", res.Record, err)
					}
					if isNew {
						created++
					} else {
						existing++
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Committed %d editions (%d already present)\n", created, existing)
			return nil
		},
	}
}

func newCatalogSupersedeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "supersede <retired-id> <path>",
		Short: "Replace a committed edition with a corrected document",
		Long: "Supersede derives the corrected document, stores it, retires the old identity\n" +
			"and records the redirect so the old identity keeps resolving.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			old, err := identity.ParseID(args[0])
			if err != nil {
				return err
			}
			summary, err := runBatch(cmd, ctx, args[1:], 0)
			if err != nil {
				return err
			}
			if err := writeReport(cmd, summary.Report()); err != nil {
				return err
			}
			derived := summary.Derived()
			if len(derived) != 1 {
				return fmt.Errorf("supersede takes exactly one edition document, found %d", len(derived))
			}
			sub, err := derived[0].Submission()
			if err != nil {
				return err
			}
			err = ctx.withCatalog(func(store *catalog.Store) error {
				return store.Supersede(ctx.runContext(cmd), old, sub, ctx.redirects())
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", old, sub.ID)
			return nil
		},
	}
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var upc string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List committed editions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []*catalog.Entry
			err := ctx.withCatalog(func(store *catalog.Store) error {
				var err error
				if upc != "" {
					entries, err = store.FindByUPC(ctx.runContext(cmd), upc)
				} else {
					entries, err = store.List(ctx.runContext(cmd), all)
				}
				return err
			})
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, listOutput(entries))
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Catalog is empty")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					string(e.ID),
					e.Publisher,
					e.UPC,
					e.CommittedAt.Format(time.DateOnly),
					string(e.RetiredBy),
				})
			}
			writeRows(cmd, []string{"Edition ID", "Publisher", "UPC", "Committed", "Retired By"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include retired editions")
	cmd.Flags().StringVar(&upc, "upc", "", "Only editions carrying this UPC")
	return cmd
}

type entryOutput struct {
	ID          identity.ID      `json:"edition_id"`
	HashVersion identity.Version `json:"hash_version"`
	Publisher   string           `json:"publisher"`
	UPC         string           `json:"upc,omitempty"`
	CommittedAt time.Time        `json:"committed_at"`
	RetiredBy   identity.ID      `json:"retired_by,omitempty"`
}

func listOutput(entries []*catalog.Entry) []entryOutput {
	out := make([]entryOutput, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryOutput{
			ID:          e.ID,
			HashVersion: e.HashVersion,
			Publisher:   e.Publisher,
			UPC:         e.UPC,
			CommittedAt: e.CommittedAt,
			RetiredBy:   e.RetiredBy,
		})
	}
	return out
}

func newCatalogVerifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that every stored edition still derives to its identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl, err := ctx.tables()
			if err != nil {
				return err
			}
			var problems []catalog.Problem
			err = ctx.withCatalog(func(store *catalog.Store) error {
				problems, err = store.VerifyIntegrity(ctx.runContext(cmd), tbl)
				return err
			})
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				if err := writeJSON(cmd, problems); err != nil {
					return err
				}
			} else {
				for _, p := range problems {
					fmt.Fprintln(cmd.OutOrStdout(), p)
				}
			}
			if len(problems) > 0 {
				return fmt.Errorf("%d integrity problems: %w", len(problems), catalog.ErrIntegrity)
			}
			if !ctx.jsonOutput() {
				fmt.Fprintln(cmd.OutOrStdout(), "Catalog integrity verified")
			}
			return nil
		},
	}
}

func newCatalogExportCommand(ctx *commandContext) *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "export <dir>",
		Short: "Write current edition documents as <digest>.json files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var count int
			err := ctx.withCatalog(func(store *catalog.Store) error {
				var err error
				count, err = store.Export(ctx.runContext(cmd), args[0])
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d editions to %s\n", count, args[0])
			if !verify {
				return nil
			}
			return verifyStoredFiles(cmd, ctx, args)
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "Re-derive every exported document against its file name")
	return cmd
}

// verifyStoredFiles checks digest-named documents under paths.
func verifyStoredFiles(cmd *cobra.Command, ctx *commandContext, paths []string) error {
	opts, err := ctx.pipelineOptions(ctx.runContext(cmd), 0)
	if err != nil {
		return err
	}
	files, err := pipeline.CollectFiles(paths)
	if err != nil {
		return err
	}
	var drifted int
	for _, file := range files {
		if drift := pipeline.VerifyFile(file, opts); drift != nil {
			drifted++
			fmt.Fprintln(cmd.OutOrStdout(), drift)
		}
	}
	if drifted > 0 {
		return errors.New(pluralize(drifted, "document does not", "documents do not") + " match their file names")
	}
	return nil
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
