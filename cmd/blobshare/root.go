package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"blobshare/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		jsonOutput bool
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "blobshare",
		Short: "Blobshare stores shared blobs with content addressing, TTLs, and image resizing",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newSrvCmd(cfg),
		newUploadCmd(cfg, &jsonOutput),
		newUploadImageCmd(cfg, &jsonOutput),
		newFetchCmd(cfg, &jsonOutput),
		newFetchImageCmd(cfg, &jsonOutput),
		newGetCmd(cfg),
		newShowCmd(cfg, &jsonOutput),
		newImageInfoCmd(cfg, &jsonOutput),
		newEstimateCmd(cfg, &jsonOutput),
		newMetadataCmd(cfg, &jsonOutput),
		newExportCmd(cfg),
		newInfoCmd(cfg, &jsonOutput),
		newAdminCmd(cfg, &jsonOutput),
		newConfigCmd(cfg),
	)

	return cmd
}
