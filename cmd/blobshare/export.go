package main

import (
	"os"

	"github.com/spf13/cobra"

	"blobshare/internal/api"
	"blobshare/internal/config"
)

func newExportCmd(cfg *config.Config) *cobra.Command {
	var (
		outputPath string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all blob metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				w := os.Stdout
				if outputPath != "" {
					f, err := os.Create(outputPath)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				return client.Export(cmd.Context(), format, w)
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&format, "format", "yaml", "export format (yaml or json)")

	return cmd
}
