package main

import (
	"github.com/spf13/cobra"

	"blobshare/internal/api"
	"blobshare/internal/config"
)

func newFetchCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		tags     []string
		ttlHours int
		filename string
	)

	cmd := &cobra.Command{
		Use:   "fetch <ref>",
		Short: "Fetch a document from the upstream source and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.FetchFile(cmd.Context(), api.FetchRequest{
					Ref:      args[0],
					Filename: filename,
					Tags:     tags,
					TTLHours: ttlHours,
				})
				if err != nil {
					return err
				}
				return writeResource(resp, *jsonOutput)
			})
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag to attach (repeatable)")
	cmd.Flags().IntVar(&ttlHours, "ttl-hours", 0, "override the default TTL")
	cmd.Flags().StringVar(&filename, "filename", "", "stored filename (default: derived from the response)")

	return cmd
}

func newFetchImageCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		tags      []string
		ttlHours  int
		filename  string
		maxWidth  int
		maxHeight int
		quality   int
	)

	cmd := &cobra.Command{
		Use:   "fetch-image <ref>",
		Short: "Fetch an image from the upstream source, resize it, and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.FetchImageRequest{
				Ref:      args[0],
				Filename: filename,
				Tags:     tags,
				TTLHours: ttlHours,
			}
			req.MaxWidth = flagIntPtr(cmd, "max-width", maxWidth)
			req.MaxHeight = flagIntPtr(cmd, "max-height", maxHeight)
			req.Quality = flagIntPtr(cmd, "quality", quality)

			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.FetchImage(cmd.Context(), req)
				if err != nil {
					return err
				}
				return writeResource(resp, *jsonOutput)
			})
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag to attach (repeatable)")
	cmd.Flags().IntVar(&ttlHours, "ttl-hours", 0, "override the default TTL")
	cmd.Flags().StringVar(&filename, "filename", "", "stored filename (default: derived from the response)")
	cmd.Flags().IntVar(&maxWidth, "max-width", 0, "bounding box width (0 disables the constraint)")
	cmd.Flags().IntVar(&maxHeight, "max-height", 0, "bounding box height (0 disables the constraint)")
	cmd.Flags().IntVar(&quality, "quality", 0, "JPEG quality (1-100)")

	return cmd
}
