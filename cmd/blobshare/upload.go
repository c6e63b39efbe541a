package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"blobshare/internal/api"
	"blobshare/internal/config"
)

func newUploadCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		tags     []string
		ttlHours int
		filename string
	)

	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a file as a managed blob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, name, err := readUploadArg(args[0], filename)
			if err != nil {
				return err
			}

			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.StoreFile(cmd.Context(), data, name,
					api.UploadParams{Tags: tags, TTLHours: ttlHours})
				if err != nil {
					return err
				}
				return writeResource(resp, *jsonOutput)
			})
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag to attach (repeatable)")
	cmd.Flags().IntVar(&ttlHours, "ttl-hours", 0, "override the default TTL")
	cmd.Flags().StringVar(&filename, "filename", "", "stored filename (default: basename of path)")

	return cmd
}

func newUploadImageCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		tags      []string
		ttlHours  int
		filename  string
		maxWidth  int
		maxHeight int
		quality   int
	)

	cmd := &cobra.Command{
		Use:   "upload-image <path>",
		Short: "Upload an image, resizing it before storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, name, err := readUploadArg(args[0], filename)
			if err != nil {
				return err
			}

			params := api.ImageUploadParams{
				UploadParams: api.UploadParams{Tags: tags, TTLHours: ttlHours},
			}
			params.MaxWidth = flagIntPtr(cmd, "max-width", maxWidth)
			params.MaxHeight = flagIntPtr(cmd, "max-height", maxHeight)
			params.Quality = flagIntPtr(cmd, "quality", quality)

			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.StoreImage(cmd.Context(), data, name, params)
				if err != nil {
					return err
				}
				return writeResource(resp, *jsonOutput)
			})
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag to attach (repeatable)")
	cmd.Flags().IntVar(&ttlHours, "ttl-hours", 0, "override the default TTL")
	cmd.Flags().StringVar(&filename, "filename", "", "stored filename (default: basename of path)")
	cmd.Flags().IntVar(&maxWidth, "max-width", 0, "bounding box width (0 disables the constraint)")
	cmd.Flags().IntVar(&maxHeight, "max-height", 0, "bounding box height (0 disables the constraint)")
	cmd.Flags().IntVar(&quality, "quality", 0, "JPEG quality (1-100)")

	return cmd
}

func readUploadArg(path, nameOverride string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	name := nameOverride
	if name == "" {
		name = filepath.Base(path)
	}
	return data, name, nil
}

// flagIntPtr returns a pointer only when the flag was set, so the
// server can tell "unset" apart from an explicit zero.
func flagIntPtr(cmd *cobra.Command, name string, value int) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}
