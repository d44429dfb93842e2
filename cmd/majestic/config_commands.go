package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rasterandstate/majestic-canon/internal/config"
	"github.com/rasterandstate/majestic-canon/internal/gs1"
	"github.com/rasterandstate/majestic-canon/internal/tables"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the configuration file",
	}
	cmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(ctx))
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		dest      string
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented sample configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(dest)
			if err != nil {
				return err
			}
			switch _, err := os.Stat(target); {
			case err == nil && !overwrite:
				return fmt.Errorf("%s already exists; pass --overwrite to replace it", target)
			case err != nil && !errors.Is(err, fs.ErrNotExist):
				return fmt.Errorf("inspect %s: %w", target, err)
			}
			if err := config.CreateSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(cmd.OutOrStdout(), "Point tables_file and gs1_registry at your curated documents before deriving identities.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&dest, "path", "p", "", "Where to write the file (default: user config location)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func initTarget(dest string) (string, error) {
	if dest = strings.TrimSpace(dest); dest != "" {
		return config.ExpandPath(dest)
	}
	return config.DefaultConfigPath()
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate the configuration and the documents it points at",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if ctx.configFlag != nil {
				path = strings.TrimSpace(*ctx.configFlag)
			}
			cfg, resolved, exists, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			out := cmd.OutOrStdout()
			if exists {
				fmt.Fprintf(out, "Config path: %s\n", resolved)
			} else {
				fmt.Fprintf(out, "Config path: %s (not found, using defaults)\n", resolved)
			}
			fmt.Fprintf(out, "Hash version: v%d\n", cfg.Identity.HashVersion)

			if _, err := os.Stat(cfg.Paths.TablesFile); err == nil {
				if _, err := tables.Load(cfg.Paths.TablesFile); err != nil {
					return err
				}
				fmt.Fprintf(out, "Tables: %s\n", cfg.Paths.TablesFile)
			} else {
				fmt.Fprintf(out, "Tables: %s (missing)\n", cfg.Paths.TablesFile)
			}
			if _, err := os.Stat(cfg.Paths.GS1Registry); err == nil {
				reg, err := gs1.Load(cfg.Paths.GS1Registry)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "GS1 registry: %s (%d records)\n", cfg.Paths.GS1Registry, reg.Len())
			} else {
				fmt.Fprintf(out, "GS1 registry: %s (missing)\n", cfg.Paths.GS1Registry)
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
