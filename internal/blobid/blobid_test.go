package blobid

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []ID{
		{CreatedAt: 1733437200, Hash: "a3f9d8c2b1e4f6a7", Ext: "png"},
		{CreatedAt: 0, Hash: "0000000000000000", Ext: "bin"},
		{CreatedAt: 1, Hash: "ffffffffffffffff", Ext: "tar"},
		{CreatedAt: 1733437200, Hash: "b4e8d9c3a2f5e7b6", Ext: "pdf"},
	}
	for _, want := range cases {
		raw := Encode(want.CreatedAt, want.Hash, want.Ext)
		got, err := Decode(raw)
		if err != nil {
			t.Fatalf("decode %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("round trip mismatch: want %+v got %+v", want, got)
		}
		if got.String() != raw {
			t.Fatalf("string form mismatch: want %q got %q", raw, got.String())
		}
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"no scheme", "1733437200-a3f9d8c2b1e4f6a7.png"},
		{"wrong scheme", "file://1733437200-a3f9d8c2b1e4f6a7.png"},
		{"uppercase scheme", "BLOB://1733437200-a3f9d8c2b1e4f6a7.png"},
		{"missing separator", "blob://1733437200a3f9d8c2b1e4f6a7.png"},
		{"negative timestamp", "blob://-5-a3f9d8c2b1e4f6a7.png"},
		{"non numeric timestamp", "blob://abc-a3f9d8c2b1e4f6a7.png"},
		{"non hex hash", "blob://1733437200-z3f9d8c2b1e4f6a7.png"},
		{"short hash", "blob://1733437200-a3f9d8c2.png"},
		{"long hash", "blob://1733437200-a3f9d8c2b1e4f6a700.png"},
		{"uppercase hash", "blob://1733437200-A3F9D8C2B1E4F6A7.png"},
		{"missing extension", "blob://1733437200-a3f9d8c2b1e4f6a7"},
		{"empty extension", "blob://1733437200-a3f9d8c2b1e4f6a7."},
		{"uppercase extension", "blob://1733437200-a3f9d8c2b1e4f6a7.PNG"},
		{"slash in extension", "blob://1733437200-a3f9d8c2b1e4f6a7.p/g"},
		{"backslash in extension", `blob://1733437200-a3f9d8c2b1e4f6a7.p\ng`},
		{"traversal extension", "blob://1733437200-a3f9d8c2b1e4f6a7.../x"},
		{"dotted extension", "blob://1733437200-a3f9d8c2b1e4f6a7..png"},
		{"traversal hash", "blob://1733437200-../../../../etc/pw.png"},
		{"not an id at all", "not-a-blob-id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.raw)
			if err == nil {
				t.Fatalf("expected error for %q", tc.raw)
			}
			if !errors.Is(err, ErrInvalidID) {
				t.Fatalf("expected ErrInvalidID, got %v", err)
			}
		})
	}
}

func TestPathShardsByHashPrefix(t *testing.T) {
	raw := Encode(1733437200, "a3f9d8c2b1e4f6a7", "png")
	path, err := Path(raw, "/mnt/blob-storage")
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	want := filepath.Join("/mnt/blob-storage", "a3", "f9", "1733437200-a3f9d8c2b1e4f6a7.png")
	if path != want {
		t.Fatalf("want %q got %q", want, path)
	}
}

func TestPathRejectsInvalidIDBeforeJoining(t *testing.T) {
	_, err := Path("blob://1733437200-a3f9d8c2b1e4f6a7", "/mnt/blob-storage")
	if !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestRelPathUsesForwardSlashes(t *testing.T) {
	id := ID{CreatedAt: 1733437200, Hash: "a3f9d8c2b1e4f6a7", Ext: "png"}
	rel := id.RelPath()
	if rel != "a3/f9/1733437200-a3f9d8c2b1e4f6a7.png" {
		t.Fatalf("unexpected rel path %q", rel)
	}
	if strings.Contains(rel, "\\") {
		t.Fatalf("rel path must not contain backslashes: %q", rel)
	}
}
