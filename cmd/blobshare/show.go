package main

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"blobshare/internal/api"
	"blobshare/internal/config"
)

func newShowCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "show <blob-id>",
		Short: "Show a stored blob's file info",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.GetFileInfo(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				if *jsonOutput {
					return writeJSON(resp)
				}

				_ = writePlain("blob_id: %s\n", resp.BlobID)
				_ = writePlain("filename: %s\n", resp.Filename)
				_ = writePlain("mime_type: %s\n", resp.MimeType)
				_ = writePlain("size: %s (%d bytes)\n", humanize.Bytes(uint64(resp.SizeBytes)), resp.SizeBytes)
				_ = writePlain("sha256: %s\n", resp.SHA256)
				_ = writePlain("file_path: %s\n", resp.FilePath)
				if resp.HostPath != "" {
					_ = writePlain("host_path: %s\n", resp.HostPath)
				}
				_ = writePlain("expires_at: %s\n", formatTime(resp.ExpiresAt))
				if len(resp.Tags) > 0 {
					_ = writePlain("tags: %s\n", strings.Join(resp.Tags, ", "))
				}
				return nil
			})
		},
	}
}

func newImageInfoCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "image-info <blob-id>",
		Short: "Show a stored image's dimensions and format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.GetImageInfo(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				if *jsonOutput {
					return writeJSON(resp)
				}

				_ = writePlain("blob_id: %s\n", resp.BlobID)
				_ = writePlain("filename: %s\n", resp.Filename)
				_ = writePlain("format: %s\n", resp.Format)
				_ = writePlain("dimensions: %dx%d\n", resp.Width, resp.Height)
				_ = writePlain("size: %s (%d bytes)\n", humanize.Bytes(uint64(resp.SizeBytes)), resp.SizeBytes)
				return nil
			})
		},
	}
}

func newEstimateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		maxWidth  int
		maxHeight int
		quality   int
	)

	cmd := &cobra.Command{
		Use:   "estimate <blob-id>",
		Short: "Estimate the result of resizing a stored image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.GetImageEstimate(cmd.Context(), args[0],
					flagIntPtr(cmd, "max-width", maxWidth),
					flagIntPtr(cmd, "max-height", maxHeight),
					flagIntPtr(cmd, "quality", quality))
				if err != nil {
					return err
				}

				if *jsonOutput {
					return writeJSON(resp)
				}

				_ = writePlain("original: %dx%d (%s)\n", resp.OriginalWidth, resp.OriginalHeight,
					humanize.Bytes(uint64(resp.OriginalSizeBytes)))
				_ = writePlain("estimated: %dx%d (%s)\n", resp.EstimatedWidth, resp.EstimatedHeight,
					humanize.Bytes(uint64(resp.EstimatedSizeBytes)))
				_ = writePlain("would_resize: %t\n", resp.WouldResize)
				if resp.Quality != nil {
					_ = writePlain("quality: %d\n", *resp.Quality)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&maxWidth, "max-width", 0, "bounding box width (0 disables the constraint)")
	cmd.Flags().IntVar(&maxHeight, "max-height", 0, "bounding box height (0 disables the constraint)")
	cmd.Flags().IntVar(&quality, "quality", 0, "JPEG quality (1-100)")

	return cmd
}

func newMetadataCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "metadata <blob-id>",
		Short: "Show a blob's full metadata record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.GetMetadata(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				if *jsonOutput {
					return writeJSON(resp)
				}
				return writeMetadataDetail(resp)
			})
		},
	}
}

func writeMetadataDetail(meta api.MetadataResponse) error {
	_ = writePlain("blob_id: %s\n", meta.BlobID)
	_ = writePlain("filename: %s\n", meta.Filename)
	_ = writePlain("mime_type: %s\n", meta.MimeType)
	_ = writePlain("size: %s (%d bytes)\n", humanize.Bytes(uint64(meta.SizeBytes)), meta.SizeBytes)
	_ = writePlain("sha256: %s\n", meta.SHA256)
	_ = writePlain("created_at: %s\n", formatTime(meta.CreatedAt))
	_ = writePlain("expires_at: %s\n", formatTime(meta.ExpiresAt))
	_ = writePlain("expired: %t\n", meta.Expired)
	if len(meta.Tags) > 0 {
		_ = writePlain("tags: %s\n", strings.Join(meta.Tags, ", "))
	}
	return nil
}
