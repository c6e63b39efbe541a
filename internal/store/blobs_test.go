package store

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"blobshare/internal/models"
)

func newStoreForTest(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "blobs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func sampleMeta(blobID, sha string, expiresAt time.Time) *models.BlobMetadata {
	return &models.BlobMetadata{
		BlobID:    blobID,
		Filename:  "photo.png",
		MimeType:  "image/png",
		SizeBytes: 1024,
		SHA256:    sha,
		Ext:       "png",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		ExpiresAt: expiresAt,
	}
}

func TestCreateAndGetBlob(t *testing.T) {
	st := newStoreForTest(t)
	ctx := context.Background()

	meta := sampleMeta("blob://1733437200-a3f9d8c2b1e4f6a7.png", "deadbeef", time.Now().UTC().Add(24*time.Hour).Truncate(time.Second))
	meta.Tags = []string{"Image", "screenshots", "image", ""}
	if err := st.CreateBlob(ctx, meta); err != nil {
		t.Fatalf("create blob: %v", err)
	}

	got, err := st.GetBlob(ctx, meta.BlobID)
	if err != nil {
		t.Fatalf("get blob: %v", err)
	}
	if got == nil {
		t.Fatal("expected record, got nil")
	}
	if got.Filename != "photo.png" || got.MimeType != "image/png" || got.SizeBytes != 1024 {
		t.Fatalf("unexpected record: %+v", got)
	}
	if !reflect.DeepEqual(got.Tags, []string{"image", "screenshots"}) {
		t.Fatalf("expected normalized sorted tags, got %v", got.Tags)
	}
	if !got.CreatedAt.Equal(meta.CreatedAt) || !got.ExpiresAt.Equal(meta.ExpiresAt) {
		t.Fatalf("timestamp round trip mismatch: %+v vs %+v", got, meta)
	}
}

func TestGetBlobMissingReturnsNil(t *testing.T) {
	st := newStoreForTest(t)

	got, err := st.GetBlob(context.Background(), "blob://1-0000000000000000.txt")
	if err != nil {
		t.Fatalf("get blob: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestCreateBlobDuplicateIDIsNoop(t *testing.T) {
	st := newStoreForTest(t)
	ctx := context.Background()
	expires := time.Now().UTC().Add(time.Hour).Truncate(time.Second)

	first := sampleMeta("blob://1733437200-a3f9d8c2b1e4f6a7.png", "cafe", expires)
	if err := st.CreateBlob(ctx, first); err != nil {
		t.Fatalf("create first: %v", err)
	}
	second := sampleMeta("blob://1733437200-a3f9d8c2b1e4f6a7.png", "cafe", expires)
	second.Filename = "other.png"
	if err := st.CreateBlob(ctx, second); err != nil {
		t.Fatalf("create duplicate: %v", err)
	}

	got, err := st.GetBlob(ctx, first.BlobID)
	if err != nil {
		t.Fatalf("get blob: %v", err)
	}
	if got.Filename != "photo.png" {
		t.Fatalf("expected first record to win, got filename %q", got.Filename)
	}

	count, _, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}
}

func TestFindActiveBySHA256ExcludesExpired(t *testing.T) {
	st := newStoreForTest(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	expired := sampleMeta("blob://1733437100-1111111111111111.png", "samesum", now.Add(-time.Hour))
	if err := st.CreateBlob(ctx, expired); err != nil {
		t.Fatalf("create expired: %v", err)
	}

	got, err := st.FindActiveBySHA256(ctx, "samesum", "png", now)
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	if got != nil {
		t.Fatalf("expired record must not satisfy dedup lookup, got %+v", got)
	}

	active := sampleMeta("blob://1733437200-2222222222222222.png", "samesum", now.Add(time.Hour))
	if err := st.CreateBlob(ctx, active); err != nil {
		t.Fatalf("create active: %v", err)
	}

	got, err = st.FindActiveBySHA256(ctx, "samesum", "png", now)
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	if got == nil || got.BlobID != active.BlobID {
		t.Fatalf("expected active record, got %+v", got)
	}

	// Same hash under a different extension is a distinct blob.
	got, err = st.FindActiveBySHA256(ctx, "samesum", "jpeg", now)
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	if got != nil {
		t.Fatalf("extension must participate in the dedup key, got %+v", got)
	}
}

func TestListExpiredAndDelete(t *testing.T) {
	st := newStoreForTest(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	stale := sampleMeta("blob://1733437100-3333333333333333.png", "aaa", now.Add(-2*time.Hour))
	fresh := sampleMeta("blob://1733437200-4444444444444444.png", "bbb", now.Add(2*time.Hour))
	for _, meta := range []*models.BlobMetadata{stale, fresh} {
		if err := st.CreateBlob(ctx, meta); err != nil {
			t.Fatalf("create %s: %v", meta.BlobID, err)
		}
	}

	expired, err := st.ListExpired(ctx, now, 100)
	if err != nil {
		t.Fatalf("list expired: %v", err)
	}
	if len(expired) != 1 || expired[0].BlobID != stale.BlobID {
		t.Fatalf("expected only stale record, got %+v", expired)
	}

	if err := st.DeleteBlob(ctx, stale.BlobID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := st.GetBlob(ctx, stale.BlobID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Fatalf("expected record gone, got %+v", got)
	}
}

func TestStats(t *testing.T) {
	st := newStoreForTest(t)
	ctx := context.Background()
	expires := time.Now().UTC().Add(time.Hour)

	for i, id := range []string{"blob://10-5555555555555555.png", "blob://20-6666666666666666.png"} {
		meta := sampleMeta(id, "sum", expires)
		meta.SHA256 = meta.SHA256 + string(rune('a'+i))
		if err := st.CreateBlob(ctx, meta); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	count, total, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != 2 || total != 2048 {
		t.Fatalf("expected count=2 total=2048, got count=%d total=%d", count, total)
	}
}
