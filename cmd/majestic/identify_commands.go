package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rasterandstate/majestic-canon/internal/pipeline"
)

// runBatch identifies every edition document under paths.
func runBatch(cmd *cobra.Command, ctx *commandContext, paths []string, versionOverride int) (pipeline.Summary, error) {
	runCtx := ctx.runContext(cmd)
	opts, err := ctx.pipelineOptions(runCtx, versionOverride)
	if err != nil {
		return pipeline.Summary{}, err
	}
	files, err := pipeline.CollectFiles(paths)
	if err != nil {
		return pipeline.Summary{}, err
	}
	if len(files) == 0 {
		return pipeline.Summary{}, fmt.Errorf("no edition documents found under %v", paths)
	}
	cfg := ctx.config
	batch := pipeline.NewBatch(opts, cfg.Validation.Workers, cfg.Validation.AdvisoryBlocking, ctx.log())
	return batch.Run(runCtx, pipeline.ReadInputs(files)), nil
}

func newValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>...",
		Short: "Validate edition documents without deriving identities",
		Long: "Validate reads every edition document (directories are searched for .json files),\n" +
			"prints one line per violation and exits non-zero when any violation blocks.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := runBatch(cmd, ctx, args, 0)
			if err != nil {
				return err
			}
			report := summary.Report()
			if ctx.jsonOutput() {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
				if !report.OK() {
					return blockingError{count: len(report.Blocking())}
				}
				return nil
			}
			if err := writeReport(cmd, report); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d records valid\n", len(summary.Results))
			return nil
		},
	}
}

func newDeriveCommand(ctx *commandContext) *cobra.Command {
	var version int

	cmd := &cobra.Command{
		Use:   "derive <path>...",
		Short: "Derive edition identities",
		Long: "Derive validates each edition document and prints its identity. Records with\n" +
			"blocking violations get no identity and make the command exit non-zero.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := runBatch(cmd, ctx, args, version)
			if err != nil {
				return err
			}
			report := summary.Report()
			if ctx.jsonOutput() {
				if err := writeJSON(cmd, summary); err != nil {
					return err
				}
				if !report.OK() {
					return blockingError{count: len(report.Blocking())}
				}
				return nil
			}

			derived := summary.Derived()
			rows := make([][]string, 0, len(derived))
			for _, res := range derived {
				rows = append(rows, []string{res.Record, string(res.ID)})
			}
			if len(rows) > 0 {
				writeRows(cmd, []string{"Record", "Edition ID"}, rows)
			}
			return writeReport(cmd, report)
		},
	}

	cmd.Flags().IntVar(&version, "hash-version", 0, "Hash version to derive under (defaults to the configured version)")
	return cmd
}
