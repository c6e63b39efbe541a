// Package blobstore persists blob payloads under a sharded storage
// root with content-based deduplication, size ceilings, and TTL
// metadata kept in SQLite.
package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"blobshare/internal/blobid"
	"blobshare/internal/models"
	"blobshare/internal/store"
)

const (
	tmpDirName      = "tmp"
	fallbackExt     = "bin"
	fallbackMime    = "application/octet-stream"
	defaultTTLHours = 24
)

var (
	// ErrEmptyData reports an upload with no payload.
	ErrEmptyData = errors.New("blob data is required")

	// ErrEmptyFilename reports an upload without a filename.
	ErrEmptyFilename = errors.New("filename is required")

	// ErrTooLarge reports an upload over the configured ceiling.
	ErrTooLarge = errors.New("blob exceeds maximum size")

	// ErrNotFound reports a well-formed identifier with no stored
	// blob behind it, distinguishable from blobid.ErrInvalidID.
	ErrNotFound = errors.New("blob not found")
)

// Options configures a Store.
type Options struct {
	MaxSizeMB       int
	DefaultTTLHours int
	Deduplicate     bool
}

// Store owns the storage root and the metadata records. Construct one
// per process and pass it to every operation; there is no package
// singleton.
type Store struct {
	root       string
	meta       *store.Store
	maxBytes   int64
	defaultTTL time.Duration
	dedup      bool

	// hashLocks serializes metadata mutation per content hash so two
	// uploads of identical bytes cannot race into divergent records,
	// while unrelated uploads proceed in parallel.
	mu        sync.Mutex
	hashLocks map[string]*sync.Mutex
}

// UploadResult reports one persisted blob. Metadata fields are fetched
// separately via GetMetadata and are deliberately not embedded here.
type UploadResult struct {
	BlobID   string `json:"blob_id"`
	FilePath string `json:"file_path"`
	SHA256   string `json:"sha256"`
}

// New creates a Store rooted at root, creating the root and its temp
// directory as needed.
func New(root string, meta *store.Store, opts Options) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	if meta == nil {
		return nil, fmt.Errorf("metadata store is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(abs, tmpDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	maxMB := opts.MaxSizeMB
	if maxMB <= 0 {
		maxMB = 100
	}
	ttlHours := opts.DefaultTTLHours
	if ttlHours <= 0 {
		ttlHours = defaultTTLHours
	}

	return &Store{
		root:       abs,
		meta:       meta,
		maxBytes:   int64(maxMB) << 20,
		defaultTTL: time.Duration(ttlHours) * time.Hour,
		dedup:      opts.Deduplicate,
		hashLocks:  map[string]*sync.Mutex{},
	}, nil
}

// Root returns the absolute storage root.
func (s *Store) Root() string {
	return s.root
}

// Upload persists data under a freshly minted identifier, or returns
// the existing identifier when deduplication finds a live blob with
// the same content hash and extension. Validation happens before any
// hashing or I/O; the payload is published atomically via a temp file
// and rename so readers never observe partial writes.
func (s *Store) Upload(ctx context.Context, data []byte, filename string, tags []string, ttlHours int) (UploadResult, error) {
	var zero UploadResult
	if s == nil {
		return zero, fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if len(data) == 0 {
		return zero, ErrEmptyData
	}
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return zero, ErrEmptyFilename
	}
	if int64(len(data)) > s.maxBytes {
		return zero, fmt.Errorf("%w: %d bytes over limit of %d", ErrTooLarge, len(data), s.maxBytes)
	}

	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	ext := extFromFilename(filename)

	unlock := s.lockHash(digest)
	defer unlock()

	now := time.Now().UTC()
	if s.dedup {
		existing, err := s.meta.FindActiveBySHA256(ctx, digest, ext, now)
		if err != nil {
			return zero, fmt.Errorf("dedup lookup: %w", err)
		}
		if existing != nil {
			path, pathErr := blobid.Path(existing.BlobID, s.root)
			if pathErr != nil {
				return zero, pathErr
			}
			return UploadResult{BlobID: existing.BlobID, FilePath: path, SHA256: existing.SHA256}, nil
		}
	}

	id := blobid.ID{CreatedAt: now.Unix(), Hash: digest[:blobid.HashLength], Ext: ext}
	dst := id.Path(s.root)
	if err := s.publish(data, dst); err != nil {
		return zero, fmt.Errorf("write blob %s: %w", id, err)
	}

	ttl := s.defaultTTL
	if ttlHours > 0 {
		ttl = time.Duration(ttlHours) * time.Hour
	}
	meta := &models.BlobMetadata{
		BlobID:    id.String(),
		Filename:  filename,
		MimeType:  mimeTypeForExt(ext),
		SizeBytes: int64(len(data)),
		SHA256:    digest,
		Ext:       ext,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		Tags:      tags,
	}
	if err := s.meta.CreateBlob(ctx, meta); err != nil {
		return zero, fmt.Errorf("write metadata for %s: %w", id, err)
	}

	return UploadResult{BlobID: id.String(), FilePath: dst, SHA256: digest}, nil
}

// Read returns the raw payload for an identifier. A malformed id fails
// with blobid.ErrInvalidID before any filesystem access; a well-formed
// id with no file behind it fails with ErrNotFound, which also covers
// volume/metadata divergence.
func (s *Store) Read(ctx context.Context, rawID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := blobid.Path(rawID, s.root)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rawID)
	}
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", rawID, err)
	}
	return data, nil
}

// GetMetadata returns the metadata record for an identifier. Expiry is
// advisory: records past expires_at are still returned until a sweep
// removes them.
func (s *Store) GetMetadata(ctx context.Context, rawID string) (models.BlobMetadata, error) {
	var zero models.BlobMetadata
	if _, err := blobid.Decode(rawID); err != nil {
		return zero, err
	}
	meta, err := s.meta.GetBlob(ctx, rawID)
	if err != nil {
		return zero, fmt.Errorf("metadata lookup for %s: %w", rawID, err)
	}
	if meta == nil {
		return zero, fmt.Errorf("%w: %s", ErrNotFound, rawID)
	}
	return *meta, nil
}

// BlobPath maps an identifier to its path under the storage root
// without touching the disk.
func (s *Store) BlobPath(rawID string) (string, error) {
	return blobid.Path(rawID, s.root)
}

// publish writes data to a temp file and renames it into place.
// Renaming onto an existing file is benign: an identical destination
// implies identical content.
func (s *Store) publish(data []byte, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Join(s.root, tmpDirName), "upload-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

func (s *Store) lockHash(digest string) func() {
	s.mu.Lock()
	lock, ok := s.hashLocks[digest]
	if !ok {
		lock = &sync.Mutex{}
		s.hashLocks[digest] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// extFromFilename derives the identifier extension from a filename.
// The result always satisfies the identifier grammar, including its
// length cap, so a minted id is guaranteed to decode on the way back.
func extFromFilename(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	cleaned := make([]rune, 0, len(ext))
	for _, r := range ext {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			cleaned = append(cleaned, r)
		}
	}
	if len(cleaned) == 0 || len(cleaned) > blobid.MaxExtLength {
		return fallbackExt
	}
	return string(cleaned)
}

func mimeTypeForExt(ext string) string {
	if mt := mime.TypeByExtension("." + ext); mt != "" {
		if parsed, _, err := mime.ParseMediaType(mt); err == nil {
			return parsed
		}
		return mt
	}
	return fallbackMime
}
