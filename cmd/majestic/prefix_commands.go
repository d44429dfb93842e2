package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rasterandstate/majestic-canon/internal/catalog"
	"github.com/rasterandstate/majestic-canon/internal/gs1"
)

func newPrefixCommand(ctx *commandContext) *cobra.Command {
	prefixCmd := &cobra.Command{
		Use:   "prefix",
		Short: "Query and maintain the GS1 company prefix registry",
	}
	prefixCmd.AddCommand(newPrefixResolveCommand(ctx))
	prefixCmd.AddCommand(newPrefixHistoryCommand(ctx))
	prefixCmd.AddCommand(newPrefixImportCommand(ctx))
	return prefixCmd
}

func newPrefixResolveCommand(ctx *commandContext) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "resolve <upc-or-gtin>",
		Short: "Resolve the registered owner of a barcode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at := time.Now().UTC()
			if strings.TrimSpace(asOf) != "" {
				parsed, err := gs1.ParseDate(asOf)
				if err != nil {
					return fmt.Errorf("--as-of: %w", err)
				}
				at = parsed
			}
			reg, err := ctx.registry(ctx.runContext(cmd))
			if err != nil {
				return err
			}
			res := reg.Resolve(args[0], at)
			if ctx.jsonOutput() {
				return writeJSON(cmd, res)
			}
			out := cmd.OutOrStdout()
			if !res.Verified {
				fmt.Fprintf(out, "%s: no registered prefix\n", args[0])
				return nil
			}
			fmt.Fprintf(out, "Prefix:      %s\n", res.Prefix)
			fmt.Fprintf(out, "Company:     %s\n", res.CompanyName)
			if res.BrandName != "" {
				fmt.Fprintf(out, "Brand:       %s\n", res.BrandName)
			}
			if res.PublisherID != "" {
				fmt.Fprintf(out, "Publisher:   %s\n", res.PublisherID)
			}
			fmt.Fprintf(out, "Status:      %s\n", res.Status)
			fmt.Fprintf(out, "Confidence:  %s\n", res.Confidence)
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "Resolve as of this date (YYYY-MM-DD); defaults to now")
	return cmd
}

func newPrefixHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history <prefix>",
		Short: "Show every recorded fact for a prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := ctx.registry(ctx.runContext(cmd))
			if err != nil {
				return err
			}
			records := reg.History(args[0])
			if ctx.jsonOutput() {
				return writeJSON(cmd, records)
			}
			if len(records) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No records for prefix %s\n", args[0])
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				validTo := ""
				if rec.ValidTo != nil {
					validTo = rec.ValidTo.Format(time.DateOnly)
				}
				rows = append(rows, []string{
					rec.Prefix,
					rec.CompanyName,
					rec.PublisherID,
					string(rec.Status),
					rec.ValidFrom.Format(time.DateOnly),
					validTo,
				})
			}
			writeRows(cmd, []string{"Prefix", "Company", "Publisher", "Status", "Valid From", "Valid To"}, rows)
			return nil
		},
	}
}

func newPrefixImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <registry.yaml>",
		Short: "Append the records of a registry document to the catalog history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := gs1.Load(args[0])
			if err != nil {
				return err
			}
			records := reg.Records()
			err = ctx.withCatalog(func(store *catalog.Store) error {
				return store.AppendPrefixes(ctx.runContext(cmd), records...)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Appended %d prefix records\n", len(records))
			return nil
		},
	}
}
