// Package blobid implements the blob://TIMESTAMP-HASH.EXT identifier
// scheme and the mapping from identifiers to sharded filesystem paths.
//
// Identifiers are minted by the blob store and treated as opaque by
// callers. The hash segment is the first 64 bits of the content SHA-256
// rendered as lowercase hex; the timestamp is unix seconds at creation.
// Path derivation is pure: nothing in this package touches the disk.
package blobid

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

const (
	// Scheme is the identifier prefix, case-sensitive.
	Scheme = "blob://"

	// HashLength is the length of the hex hash segment.
	HashLength = 16

	// MaxExtLength bounds the extension segment. Minting code must
	// respect it so every issued identifier decodes.
	MaxExtLength = 16
)

// ErrInvalidID reports a malformed blob identifier. It is returned
// before any filesystem access so callers can distinguish bad input
// from missing blobs.
var ErrInvalidID = errors.New("invalid blob id")

// idRegex matches the full identifier grammar. Anything that does not
// match, including path separators or traversal sequences in any
// segment, is rejected outright.
var idRegex = regexp.MustCompile(`^blob://(0|[1-9][0-9]*)-([0-9a-f]{16})\.([a-z0-9]+)$`)

// ID is a decoded blob identifier.
type ID struct {
	CreatedAt int64
	Hash      string
	Ext       string
}

// Encode builds the canonical identifier string for a creation time,
// hash segment, and extension.
func Encode(createdAt int64, hash, ext string) string {
	return fmt.Sprintf("%s%d-%s.%s", Scheme, createdAt, hash, ext)
}

// String returns the canonical identifier form.
func (id ID) String() string {
	return Encode(id.CreatedAt, id.Hash, id.Ext)
}

// Decode parses an identifier string. It fails with ErrInvalidID on a
// missing scheme, malformed timestamp, non-hex or wrong-length hash,
// or a missing/invalid extension.
func Decode(raw string) (ID, error) {
	var zero ID
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return zero, fmt.Errorf("%w: empty identifier", ErrInvalidID)
	}
	if !strings.HasPrefix(raw, Scheme) {
		return zero, fmt.Errorf("%w: missing %s prefix", ErrInvalidID, Scheme)
	}

	m := idRegex.FindStringSubmatch(raw)
	if m == nil {
		return zero, fmt.Errorf("%w: %q does not match %sTIMESTAMP-HASH.EXT", ErrInvalidID, raw, Scheme)
	}
	if len(m[3]) > MaxExtLength {
		return zero, fmt.Errorf("%w: extension too long", ErrInvalidID)
	}

	createdAt, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return zero, fmt.Errorf("%w: timestamp out of range", ErrInvalidID)
	}

	return ID{CreatedAt: createdAt, Hash: m[2], Ext: m[3]}, nil
}

// Path maps an identifier to its location under root using a two-level
// shard derived from the first four hex characters of the hash. The
// result is deterministic and never touches the filesystem.
func Path(raw, root string) (string, error) {
	id, err := Decode(raw)
	if err != nil {
		return "", err
	}
	return id.Path(root), nil
}

// Path returns the sharded filesystem path for the identifier.
func (id ID) Path(root string) string {
	name := fmt.Sprintf("%d-%s.%s", id.CreatedAt, id.Hash, id.Ext)
	return filepath.Join(root, id.Hash[0:2], id.Hash[2:4], name)
}

// RelPath returns the shard-relative path (forward slashes), used to
// translate container paths into host paths for mapped volumes.
func (id ID) RelPath() string {
	name := fmt.Sprintf("%d-%s.%s", id.CreatedAt, id.Hash, id.Ext)
	return strings.Join([]string{id.Hash[0:2], id.Hash[2:4], name}, "/")
}
