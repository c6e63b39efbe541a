package models

import "time"

// BlobMetadata is the immutable record kept for every stored blob,
// keyed one-to-one with the payload on disk by blob id. ExpiresAt is
// advisory: reads are served until a sweep removes the blob.
type BlobMetadata struct {
	BlobID    string    `json:"blob_id"`
	Filename  string    `json:"filename"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	SHA256    string    `json:"sha256"`
	Ext       string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Tags      []string  `json:"tags"`
}

// Expired reports whether the blob's TTL has passed at the given time.
func (m BlobMetadata) Expired(now time.Time) bool {
	return !m.ExpiresAt.IsZero() && now.After(m.ExpiresAt)
}
