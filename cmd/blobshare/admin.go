package main

import (
	"github.com/spf13/cobra"

	"blobshare/internal/api"
	"blobshare/internal/config"
)

func newAdminCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative commands",
	}

	cmd.AddCommand(newAdminSweepCmd(cfg, jsonOutput))
	return cmd
}

func newAdminSweepCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		dryRun    bool
		apply     bool
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired blobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !apply {
				dryRun = true
			}

			return withClient(cfg, func(client *api.Client) error {
				req := api.SweepRequest{DryRun: dryRun, BatchSize: batchSize}
				resp, err := client.AdminSweep(cmd.Context(), req, !dryRun)
				if err != nil {
					return err
				}

				if *jsonOutput {
					return writeJSON(resp)
				}
				mode := "dry run"
				if !resp.DryRun {
					mode = "applied"
				}
				return writePlain("%s: candidates=%d deleted=%d failed=%d reclaimed_bytes=%d\n",
					mode, resp.CandidateCount, resp.DeletedCount, resp.FailedCount, resp.ReclaimedBytes)
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be removed without deleting")
	cmd.Flags().BoolVar(&apply, "apply", false, "actually delete expired blobs")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "records per sweep batch (default: server default)")

	return cmd
}
