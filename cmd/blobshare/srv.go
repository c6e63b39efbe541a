package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"blobshare/internal/acquire"
	"blobshare/internal/blobstore"
	"blobshare/internal/config"
	"blobshare/internal/server"
	"blobshare/internal/store"
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the blobshare API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			if cfg.Storage.Root == "" {
				return fmt.Errorf("storage root is required")
			}

			logger := slog.Default().With("component", "server")

			addr, err := server.ListenAddr(cfg.APIURL)
			if err != nil {
				return err
			}

			logger.Info("opening metadata store", "path", cfg.Storage.DBPath)
			meta, err := store.Open(cfg.Storage.DBPath)
			if err != nil {
				return err
			}
			defer meta.Close()

			blobs, err := blobstore.New(cfg.Storage.Root, meta, blobstore.Options{
				MaxSizeMB:       cfg.Storage.MaxSizeMB,
				DefaultTTLHours: cfg.Storage.DefaultTTLHours,
				Deduplicate:     cfg.Storage.Deduplicate,
			})
			if err != nil {
				return err
			}

			var source acquire.Source
			if cfg.Acquire.BaseURL != "" {
				source = acquire.NewHTTPSource(cfg.Acquire.BaseURL, acquire.HTTPSourceOptions{
					Timeout:  time.Duration(cfg.Acquire.TimeoutSeconds) * time.Second,
					MaxBytes: int64(cfg.Storage.MaxSizeMB) << 20,
					CacheTTL: time.Duration(cfg.Acquire.CacheTTLMinutes) * time.Minute,
				})
			}

			service := server.NewResourceService(blobs, meta, source, cfg.Storage.HostRoot)
			srv := server.New(addr, service, server.Options{
				Version:         version,
				StorageRoot:     blobs.Root(),
				HostRoot:        cfg.Storage.HostRoot,
				MaxSizeMB:       cfg.Storage.MaxSizeMB,
				DefaultTTLHours: cfg.Storage.DefaultTTLHours,
				Deduplicate:     cfg.Storage.Deduplicate,
			}, logger)
			return srv.ListenAndServe()
		},
	}
}
