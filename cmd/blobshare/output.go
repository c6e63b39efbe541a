package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"blobshare/internal/api"
)

func writeJSON(payload any) error {
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func writeResource(resp api.ResourceResponse, jsonOutput bool) error {
	if jsonOutput {
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
	if resp.ExpiresAt != nil {
		_ = writePlain("expires_at: %s\n", formatTime(*resp.ExpiresAt))
	}
	if len(resp.Tags) > 0 {
		_ = writePlain("tags: %s\n", strings.Join(resp.Tags, ", "))
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
