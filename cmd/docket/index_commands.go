package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docket/internal/config"
	"docket/internal/dupindex"
	"docket/internal/logging"
)

func newIndexCommand(ctx *commandContext) *cobra.Command {
	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the duplicate index",
	}

	indexCmd.AddCommand(newIndexRebuildCommand(ctx))
	indexCmd.AddCommand(newIndexStatsCommand(ctx))

	return indexCmd
}

func openDupIndex(cfg *config.Config) (*dupindex.Index, error) {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return dupindex.New(cfg.Paths.LibraryDir, logger), nil
}

func newIndexRebuildCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the duplicate index from the library tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			index, err := openDupIndex(cfg)
			if err != nil {
				return err
			}
			added, removed, err := index.Rebuild(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rebuilt duplicate index: %d entries added, %d removed\n", added, removed)
			return nil
		},
	}
}

func newIndexStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show duplicate index statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			index, err := openDupIndex(cfg)
			if err != nil {
				return err
			}
			count, err := index.Len()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Index path: %s\n", index.Path())
			fmt.Fprintf(out, "Entries:    %d\n", count)
			return nil
		},
	}
}
