package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"blobshare/internal/blobid"
	"blobshare/internal/store"
)

func newStoreForTest(t *testing.T, opts Options) *Store {
	t.Helper()
	dir := t.TempDir()
	meta, err := store.Open(filepath.Join(dir, "blobs.db"))
	if err != nil {
		t.Fatalf("open metadata store: %v", err)
	}
	t.Cleanup(func() { _ = meta.Close() })

	bs, err := New(filepath.Join(dir, "blob-storage"), meta, opts)
	if err != nil {
		t.Fatalf("new blob store: %v", err)
	}
	return bs
}

// ageBlobRecord pushes a record's expiry into the past so sweeps and
// dedup lookups treat it as dead.
func ageBlobRecord(t *testing.T, bs *Store, blobID string) {
	t.Helper()
	past := time.Now().UTC().Add(-time.Hour)
	if err := bs.meta.SetBlobExpiry(context.Background(), blobID, past); err != nil {
		t.Fatalf("age blob record: %v", err)
	}
}

func TestUploadReadMetadataRoundTrip(t *testing.T) {
	bs := newStoreForTest(t, Options{MaxSizeMB: 10, DefaultTTLHours: 24, Deduplicate: true})
	ctx := context.Background()
	data := []byte("report body")

	result, err := bs.Upload(ctx, data, "report.pdf", []string{"file"}, 0)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	sum := sha256.Sum256(data)
	if result.SHA256 != hex.EncodeToString(sum[:]) {
		t.Fatalf("sha mismatch: %s", result.SHA256)
	}
	id, err := blobid.Decode(result.BlobID)
	if err != nil {
		t.Fatalf("minted id must decode: %v", err)
	}
	if id.Ext != "pdf" {
		t.Fatalf("expected pdf extension, got %q", id.Ext)
	}
	if id.Hash != result.SHA256[:blobid.HashLength] {
		t.Fatalf("id hash must be the sha256 prefix: %q", id.Hash)
	}
	if result.FilePath != id.Path(bs.Root()) {
		t.Fatalf("file path mismatch: %q", result.FilePath)
	}

	got, err := bs.Read(ctx, result.BlobID)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("read mismatch: %q", got)
	}

	meta, err := bs.GetMetadata(ctx, result.BlobID)
	if err != nil {
		t.Fatalf("get metadata: %v", err)
	}
	if meta.Filename != "report.pdf" || meta.MimeType != "application/pdf" {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
	if meta.SizeBytes != int64(len(data)) || meta.SHA256 != result.SHA256 {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
	ttl := meta.ExpiresAt.Sub(meta.CreatedAt)
	if ttl != 24*time.Hour {
		t.Fatalf("expected default 24h TTL, got %v", ttl)
	}
}

func TestUploadValidatesBeforeAnyWork(t *testing.T) {
	bs := newStoreForTest(t, Options{MaxSizeMB: 1, Deduplicate: true})
	ctx := context.Background()

	if _, err := bs.Upload(ctx, nil, "x.txt", nil, 0); !errors.Is(err, ErrEmptyData) {
		t.Fatalf("expected ErrEmptyData, got %v", err)
	}
	if _, err := bs.Upload(ctx, []byte("x"), "  ", nil, 0); !errors.Is(err, ErrEmptyFilename) {
		t.Fatalf("expected ErrEmptyFilename, got %v", err)
	}

	big := make([]byte, 1<<20+1)
	if _, err := bs.Upload(ctx, big, "big.bin", nil, 0); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}

	// Nothing may have been written for any rejected upload.
	entries, err := os.ReadDir(bs.Root())
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	for _, entry := range entries {
		if entry.Name() != tmpDirName {
			t.Fatalf("unexpected entry %q after rejected uploads", entry.Name())
		}
	}
}

func TestUploadDeduplicatesIdenticalContent(t *testing.T) {
	bs := newStoreForTest(t, Options{MaxSizeMB: 10, Deduplicate: true})
	ctx := context.Background()
	data := []byte("same bytes")

	first, err := bs.Upload(ctx, data, "one.txt", []string{"a"}, 0)
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	second, err := bs.Upload(ctx, data, "two.txt", []string{"b"}, 0)
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}

	if first.BlobID != second.BlobID {
		t.Fatalf("expected dedup to reuse id: %s vs %s", first.BlobID, second.BlobID)
	}

	// The first record wins; no second metadata record exists.
	meta, err := bs.GetMetadata(ctx, first.BlobID)
	if err != nil {
		t.Fatalf("get metadata: %v", err)
	}
	if meta.Filename != "one.txt" {
		t.Fatalf("expected original filename, got %q", meta.Filename)
	}
}

func TestUploadSameContentDifferentExtensionIsDistinct(t *testing.T) {
	bs := newStoreForTest(t, Options{MaxSizeMB: 10, Deduplicate: true})
	ctx := context.Background()
	data := []byte("payload")

	asTxt, err := bs.Upload(ctx, data, "a.txt", nil, 0)
	if err != nil {
		t.Fatalf("upload txt: %v", err)
	}
	asBin, err := bs.Upload(ctx, data, "a.dat", nil, 0)
	if err != nil {
		t.Fatalf("upload dat: %v", err)
	}
	if asTxt.BlobID == asBin.BlobID {
		t.Fatal("different extensions must not deduplicate onto one id")
	}
}

func TestReadDistinguishesInvalidFromMissing(t *testing.T) {
	bs := newStoreForTest(t, Options{MaxSizeMB: 10})
	ctx := context.Background()

	_, err := bs.Read(ctx, "not-a-blob-id")
	if !errors.Is(err, blobid.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}

	_, err = bs.Read(ctx, "blob://1234567890-abcdef0123456789.txt")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, err = bs.GetMetadata(ctx, "not-a-blob-id")
	if !errors.Is(err, blobid.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}

	_, err = bs.GetMetadata(ctx, "blob://1234567890-abcdef0123456789.txt")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUploadCustomTTL(t *testing.T) {
	bs := newStoreForTest(t, Options{MaxSizeMB: 10, DefaultTTLHours: 24})
	ctx := context.Background()

	result, err := bs.Upload(ctx, []byte("short lived"), "tmp.txt", nil, 2)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	meta, err := bs.GetMetadata(ctx, result.BlobID)
	if err != nil {
		t.Fatalf("get metadata: %v", err)
	}
	if got := meta.ExpiresAt.Sub(meta.CreatedAt); got != 2*time.Hour {
		t.Fatalf("expected 2h TTL, got %v", got)
	}
}

func TestAtomicPublishLeavesNoPartialFiles(t *testing.T) {
	bs := newStoreForTest(t, Options{MaxSizeMB: 10})
	ctx := context.Background()

	result, err := bs.Upload(ctx, []byte("atomic"), "a.txt", nil, 0)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	// The temp dir must be empty after a successful publish and no
	// temp artifacts may sit in the shard directories.
	tmpEntries, err := os.ReadDir(filepath.Join(bs.Root(), tmpDirName))
	if err != nil {
		t.Fatalf("read tmp: %v", err)
	}
	if len(tmpEntries) != 0 {
		t.Fatalf("temp dir not empty: %v", tmpEntries)
	}

	shardDir := filepath.Dir(result.FilePath)
	entries, err := os.ReadDir(shardDir)
	if err != nil {
		t.Fatalf("read shard dir: %v", err)
	}
	if len(entries) != 1 || strings.Contains(entries[0].Name(), "upload-") {
		t.Fatalf("unexpected shard contents: %v", entries)
	}
}

func TestConcurrentIdenticalUploadsShareOneRecord(t *testing.T) {
	bs := newStoreForTest(t, Options{MaxSizeMB: 10, Deduplicate: true})
	ctx := context.Background()
	data := []byte("raced content")

	const workers = 8
	results := make([]UploadResult, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = bs.Upload(ctx, data, "raced.txt", nil, 0)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
		if results[i].BlobID != results[0].BlobID {
			t.Fatalf("divergent ids: %s vs %s", results[i].BlobID, results[0].BlobID)
		}
	}

	got, err := bs.Read(ctx, results[0].BlobID)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("content corrupted by concurrent uploads")
	}
}

func TestSweepExpired(t *testing.T) {
	bs := newStoreForTest(t, Options{MaxSizeMB: 10, DefaultTTLHours: 24})
	ctx := context.Background()

	fresh, err := bs.Upload(ctx, []byte("keep me"), "keep.txt", nil, 48)
	if err != nil {
		t.Fatalf("upload fresh: %v", err)
	}
	stale, err := bs.Upload(ctx, []byte("stale bytes"), "stale.txt", nil, 1)
	if err != nil {
		t.Fatalf("upload stale: %v", err)
	}
	ageBlobRecord(t, bs, stale.BlobID)

	dry, err := bs.SweepExpired(ctx, 100, true)
	if err != nil {
		t.Fatalf("dry sweep: %v", err)
	}
	if dry.CandidateCount != 1 || dry.DeletedCount != 0 || !dry.DryRun {
		t.Fatalf("unexpected dry result: %+v", dry)
	}
	if _, err := bs.Read(ctx, stale.BlobID); err != nil {
		t.Fatalf("dry run must not delete: %v", err)
	}

	result, err := bs.SweepExpired(ctx, 100, false)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.DeletedCount != 1 || result.FailedCount != 0 {
		t.Fatalf("unexpected sweep result: %+v", result)
	}
	if result.ReclaimedBytes != int64(len("stale bytes")) {
		t.Fatalf("unexpected reclaimed bytes: %d", result.ReclaimedBytes)
	}

	if _, err := bs.Read(ctx, stale.BlobID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected swept blob gone, got %v", err)
	}
	if _, err := bs.GetMetadata(ctx, stale.BlobID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected swept metadata gone, got %v", err)
	}
	if _, err := bs.Read(ctx, fresh.BlobID); err != nil {
		t.Fatalf("fresh blob must survive: %v", err)
	}
}

func TestExpiredBlobStillReadable(t *testing.T) {
	bs := newStoreForTest(t, Options{MaxSizeMB: 10})
	ctx := context.Background()

	result, err := bs.Upload(ctx, []byte("advisory expiry"), "late.txt", nil, 1)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	ageBlobRecord(t, bs, result.BlobID)

	// Expiry gates sweep and dedup, not reads.
	if _, err := bs.Read(ctx, result.BlobID); err != nil {
		t.Fatalf("expired-but-unswept blob must read: %v", err)
	}
	if _, err := bs.GetMetadata(ctx, result.BlobID); err != nil {
		t.Fatalf("expired-but-unswept metadata must read: %v", err)
	}
}

func TestUploadOverlongExtensionMintsDecodableID(t *testing.T) {
	bs := newStoreForTest(t, Options{MaxSizeMB: 1, Deduplicate: true})
	ctx := context.Background()

	filename := "payload." + strings.Repeat("a", blobid.MaxExtLength+1)
	result, err := bs.Upload(ctx, []byte("oversized extension"), filename, nil, 0)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	id, err := blobid.Decode(result.BlobID)
	if err != nil {
		t.Fatalf("minted id must decode: %v", err)
	}
	if id.Ext != "bin" {
		t.Fatalf("expected fallback extension, got %q", id.Ext)
	}

	data, err := bs.Read(ctx, result.BlobID)
	if err != nil {
		t.Fatalf("read freshly minted id: %v", err)
	}
	if !bytes.Equal(data, []byte("oversized extension")) {
		t.Fatal("payload mismatch after round trip")
	}
	meta, err := bs.GetMetadata(ctx, result.BlobID)
	if err != nil {
		t.Fatalf("metadata for freshly minted id: %v", err)
	}
	if meta.Filename != filename {
		t.Fatalf("original filename must be preserved, got %q", meta.Filename)
	}
}

func TestExtFromFilename(t *testing.T) {
	cases := map[string]string{
		"photo.PNG":    "png",
		"archive.tar":  "tar",
		"noext":        "bin",
		"trailingdot.": "bin",
		"weird.p?g":    "pg",
		"payload." + strings.Repeat("a", blobid.MaxExtLength):   strings.Repeat("a", blobid.MaxExtLength),
		"payload." + strings.Repeat("a", blobid.MaxExtLength+1): "bin",
	}
	for in, want := range cases {
		if got := extFromFilename(in); got != want {
			t.Fatalf("extFromFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
