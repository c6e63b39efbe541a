package main

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"blobshare/internal/api"
	"blobshare/internal/config"
)

func newInfoCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show server and storage info",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.GetInfo(cmd.Context())
				if err != nil {
					return err
				}

				if *jsonOutput {
					return writeJSON(resp)
				}

				_ = writePlain("version: %s\n", resp.Version)
				_ = writePlain("storage_root: %s\n", resp.StorageRoot)
				if resp.HostStorageRoot != "" {
					_ = writePlain("host_storage_root: %s\n", resp.HostStorageRoot)
				}
				_ = writePlain("blob_count: %d\n", resp.BlobCount)
				_ = writePlain("total_size: %s (%d bytes)\n", humanize.Bytes(uint64(resp.TotalBytes)), resp.TotalBytes)
				_ = writePlain("max_size_mb: %d\n", resp.MaxSizeMB)
				_ = writePlain("default_ttl_hours: %d\n", resp.DefaultTTLHours)
				_ = writePlain("deduplicate: %t\n", resp.Deduplicate)
				return nil
			})
		},
	}
}
