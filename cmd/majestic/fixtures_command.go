package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rasterandstate/majestic-canon/internal/pipeline"
)

func newFixturesCommand(ctx *commandContext) *cobra.Command {
	fixturesCmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Historical identity fixtures",
	}
	fixturesCmd.AddCommand(newFixturesVerifyCommand(ctx))
	return fixturesCmd
}

func newFixturesVerifyCommand(ctx *commandContext) *cobra.Command {
	var stored bool

	cmd := &cobra.Command{
		Use:   "verify <path>...",
		Short: "Re-derive pinned identities and report drift",
		Long: "Each fixture names the identity an edition was issued under; the edition is\n" +
			"re-derived with that identity's hash version. With --stored the inputs are\n" +
			"documents named <digest>.json instead.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if stored {
				return verifyStoredFiles(cmd, ctx, args)
			}
			opts, err := ctx.pipelineOptions(ctx.runContext(cmd), 0)
			if err != nil {
				return err
			}
			files, err := pipeline.CollectFiles(args)
			if err != nil {
				return err
			}
			var drifts []pipeline.Drift
			for _, file := range files {
				f, err := pipeline.LoadFixture(file)
				if err != nil {
					drifts = append(drifts, pipeline.Drift{Name: file, Err: err})
					continue
				}
				if drift := pipeline.VerifyFixture(f, opts); drift != nil {
					drifts = append(drifts, *drift)
				}
			}
			out := cmd.OutOrStdout()
			for _, d := range drifts {
				fmt.Fprintln(out, d)
			}
			if len(drifts) > 0 {
				return fmt.Errorf("%s of %d drifted", pluralize(len(drifts), "fixture", "fixtures"), len(files))
			}
			fmt.Fprintf(out, "%d fixtures verified\n", len(files))
			return nil
		},
	}

	cmd.Flags().BoolVar(&stored, "stored", false, "Inputs are <digest>.json documents rather than fixtures")
	return cmd
}
