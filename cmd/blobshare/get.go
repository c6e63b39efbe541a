package main

import (
	"os"

	"github.com/spf13/cobra"

	"blobshare/internal/api"
	"blobshare/internal/config"
)

func newGetCmd(cfg *config.Config) *cobra.Command {
	var (
		outputPath string
		maxWidth   int
		maxHeight  int
		quality    int
	)

	cmd := &cobra.Command{
		Use:   "get <blob-id>",
		Short: "Download a blob's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blobID := args[0]
			resize := cmd.Flags().Changed("max-width") ||
				cmd.Flags().Changed("max-height") ||
				cmd.Flags().Changed("quality")

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

				if resize {
					_, err := client.GetImageContent(cmd.Context(), blobID,
						flagIntPtr(cmd, "max-width", maxWidth),
						flagIntPtr(cmd, "max-height", maxHeight),
						flagIntPtr(cmd, "quality", quality), w)
					return err
				}
				_, err := client.GetFileContent(cmd.Context(), blobID, w)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().IntVar(&maxWidth, "max-width", 0, "resize images: bounding box width")
	cmd.Flags().IntVar(&maxHeight, "max-height", 0, "resize images: bounding box height")
	cmd.Flags().IntVar(&quality, "quality", 0, "resize images: JPEG quality (1-100)")

	return cmd
}
