package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docket/internal/logging"
	"docket/internal/organizer"
	"docket/internal/queue"
)

func newReanalyzeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reanalyze",
		Short: "Repair sidecar metadata for filed documents",
		Long: "Reanalyze walks completed queue items and repairs their filed " +
			"documents' sidecars: a sidecar lost to a write failure is rebuilt " +
			"from the stored classification, and a sidecar missing its extracted " +
			"text is backfilled from the ledger.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			store, err := queue.Open(cfg)
			if err != nil {
				return fmt.Errorf("open queue store: %w", err)
			}
			defer store.Close()

			org := organizer.NewOrganizer(cfg, store, logger)
			repaired, err := org.RepairSidecars(cmd.Context())
			if err != nil {
				return err
			}
			if repaired == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "All sidecars are intact")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Repaired %d sidecars\n", repaired)
			return nil
		},
	}
}
