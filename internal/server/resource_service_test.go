package server

import (
	"errors"
	"net/http"
	"testing"

	"blobshare/internal/blobstore"
)

func TestFilenameForFormat(t *testing.T) {
	cases := []struct {
		filename  string
		inFormat  string
		outFormat string
		want      string
	}{
		{"photo.webp", "webp", "png", "photo.png"},
		{"photo.png", "png", "png", "photo.png"},
		{"noext", "webp", "png", "noext.png"},
		{"archive.tar.webp", "webp", "png", "archive.tar.png"},
	}
	for _, tc := range cases {
		if got := filenameForFormat(tc.filename, tc.inFormat, tc.outFormat); got != tc.want {
			t.Fatalf("filenameForFormat(%q, %q, %q) = %q, want %q",
				tc.filename, tc.inFormat, tc.outFormat, got, tc.want)
		}
	}
}

func TestWithDefaultTag(t *testing.T) {
	got := withDefaultTag([]string{"report"}, "file")
	if len(got) != 2 || got[1] != "file" {
		t.Fatalf("expected kind tag appended, got %#v", got)
	}

	got = withDefaultTag([]string{"File", "report"}, "file")
	if len(got) != 2 {
		t.Fatalf("kind tag must not be duplicated: %#v", got)
	}

	got = withDefaultTag(nil, "image")
	if len(got) != 1 || got[0] != "image" {
		t.Fatalf("expected kind tag on empty input, got %#v", got)
	}
}

func TestHostPathMapping(t *testing.T) {
	service := NewResourceService(nil, nil, nil, "/mnt/host/blob-storage/")

	got := service.hostPath("blob://1700000000-a3f9b2c8d4e5f601.png")
	want := "/mnt/host/blob-storage/a3/f9/1700000000-a3f9b2c8d4e5f601.png"
	if got != want {
		t.Fatalf("hostPath = %q, want %q", got, want)
	}

	if got := service.hostPath("garbage"); got != "" {
		t.Fatalf("expected empty host path for bad id, got %q", got)
	}

	bare := NewResourceService(nil, nil, nil, "")
	if got := bare.hostPath("blob://1700000000-a3f9b2c8d4e5f601.png"); got != "" {
		t.Fatalf("expected empty host path without a host root, got %q", got)
	}
}

func TestServiceErrorMapping(t *testing.T) {
	err := serviceError(blobstore.ErrNotFound)
	if httpStatusFromError(err) != http.StatusNotFound {
		t.Fatalf("expected 404 mapping, got %d", httpStatusFromError(err))
	}
	if !errors.Is(err, blobstore.ErrNotFound) {
		t.Fatal("mapping must preserve the sentinel for errors.Is")
	}

	// Already classified errors pass through unchanged.
	classified := badRequestCode(errors.New("bad"), ErrCodeInvalidQuality)
	if got := serviceError(blobstore.ErrTooLarge); httpStatusFromError(got) != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 mapping, got %d", httpStatusFromError(got))
	}
	if got := makeAPIError(http.StatusNotFound, "not_found", ErrCodeBlobNotFound, classified); got != classified {
		t.Fatal("makeAPIError must not reclassify an existing apiError")
	}
}
