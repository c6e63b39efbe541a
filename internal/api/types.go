package api

import "time"

// ErrorResponse is the JSON error wrapper every failing endpoint
// returns.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// ResourceResponse reports one stored blob: the identifier plus the
// server-side and host-side paths a consumer needs to reach it.
type ResourceResponse struct {
	BlobID    string     `json:"blob_id"`
	FilePath  string     `json:"file_path"`
	HostPath  string     `json:"host_path,omitempty"`
	SHA256    string     `json:"sha256"`
	Filename  string     `json:"filename"`
	MimeType  string     `json:"mime_type"`
	SizeBytes int64      `json:"size_bytes"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
}

// MetadataResponse is the full metadata record for one blob. The yaml
// tags keep the export endpoint's key names in sync with the JSON API.
type MetadataResponse struct {
	BlobID    string    `json:"blob_id" yaml:"blob_id"`
	Filename  string    `json:"filename" yaml:"filename"`
	MimeType  string    `json:"mime_type" yaml:"mime_type"`
	SizeBytes int64     `json:"size_bytes" yaml:"size_bytes"`
	SHA256    string    `json:"sha256" yaml:"sha256"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
	Expired   bool      `json:"expired" yaml:"expired"`
	Tags      []string  `json:"tags" yaml:"tags"`
}

// FileInfoResponse describes a stored file without its content.
type FileInfoResponse struct {
	BlobID    string    `json:"blob_id"`
	Filename  string    `json:"filename"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	SHA256    string    `json:"sha256"`
	FilePath  string    `json:"file_path"`
	HostPath  string    `json:"host_path,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	Tags      []string  `json:"tags"`
}

// ImageInfoResponse describes a stored image's pixel dimensions and
// encoding alongside the usual blob fields.
type ImageInfoResponse struct {
	BlobID    string `json:"blob_id"`
	Filename  string `json:"filename"`
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SizeBytes int64  `json:"size_bytes"`
}

// ImageSizeEstimateResponse predicts the outcome of a resize without
// performing it. Quality is the effective JPEG quality the estimate
// used; it is null for formats that ignore quality.
type ImageSizeEstimateResponse struct {
	BlobID             string `json:"blob_id"`
	Format             string `json:"format"`
	OriginalWidth      int    `json:"original_width"`
	OriginalHeight     int    `json:"original_height"`
	OriginalSizeBytes  int64  `json:"original_size_bytes"`
	EstimatedWidth     int    `json:"estimated_width"`
	EstimatedHeight    int    `json:"estimated_height"`
	EstimatedSizeBytes int64  `json:"estimated_size_bytes"`
	WouldResize        bool   `json:"would_resize"`
	Quality            *int   `json:"quality"`
}

// FetchRequest asks the server to pull a document from the configured
// upstream source and store it.
type FetchRequest struct {
	Ref      string   `json:"ref"`
	Filename string   `json:"filename,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	TTLHours int      `json:"ttl_hours,omitempty"`
}

// FetchImageRequest is FetchRequest plus resize constraints.
type FetchImageRequest struct {
	Ref       string   `json:"ref"`
	Filename  string   `json:"filename,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	TTLHours  int      `json:"ttl_hours,omitempty"`
	MaxWidth  *int     `json:"max_width,omitempty"`
	MaxHeight *int     `json:"max_height,omitempty"`
	Quality   *int     `json:"quality,omitempty"`
}

// SweepRequest configures an expiry sweep.
type SweepRequest struct {
	BatchSize int  `json:"batch_size,omitempty"`
	DryRun    bool `json:"dry_run,omitempty"`
}

// SweepResponse reports one expiry sweep.
type SweepResponse struct {
	CandidateCount int   `json:"candidate_count"`
	DeletedCount   int   `json:"deleted_count"`
	FailedCount    int   `json:"failed_count"`
	ReclaimedBytes int64 `json:"reclaimed_bytes"`
	DryRun         bool  `json:"dry_run"`
}

// InfoResponse reports server identity and storage statistics.
type InfoResponse struct {
	Version         string `json:"version"`
	StorageRoot     string `json:"storage_root"`
	HostStorageRoot string `json:"host_storage_root,omitempty"`
	BlobCount       int64  `json:"blob_count"`
	TotalBytes      int64  `json:"total_bytes"`
	MaxSizeMB       int    `json:"max_size_mb"`
	DefaultTTLHours int    `json:"default_ttl_hours"`
	Deduplicate     bool   `json:"deduplicate"`
}
