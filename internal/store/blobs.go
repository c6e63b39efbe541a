package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"blobshare/internal/models"
)

const blobColumns = "blob_id, filename, mime_type, size_bytes, sha256, ext, created_at, expires_at"

// CreateBlob inserts one blob metadata row with its tags. Inserting a
// row whose blob_id already exists is a no-op: an identical id implies
// identical content and creation second, so the existing record wins.
func (s *Store) CreateBlob(ctx context.Context, meta *models.BlobMetadata) (err error) {
	if meta == nil {
		return fmt.Errorf("blob metadata is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO blobs (`+blobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.BlobID, meta.Filename, meta.MimeType, meta.SizeBytes, meta.SHA256, meta.Ext,
		formatTime(meta.CreatedAt), formatTime(meta.ExpiresAt))
	if err != nil {
		return err
	}

	for _, tag := range normalizeTags(meta.Tags) {
		if _, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO blob_tags (blob_id, tag) VALUES (?, ?)`, meta.BlobID, tag); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetBlob returns one metadata record with tags, or nil when absent.
func (s *Store) GetBlob(ctx context.Context, blobID string) (*models.BlobMetadata, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+blobColumns+` FROM blobs WHERE blob_id = ?`, blobID)
	meta, err := scanBlob(row)
	if err != nil || meta == nil {
		return meta, err
	}

	tags, err := s.listBlobTags(ctx, blobID)
	if err != nil {
		return nil, err
	}
	meta.Tags = tags
	return meta, nil
}

// FindActiveBySHA256 returns the oldest non-expired record matching a
// content hash and extension, used for deduplication lookups.
func (s *Store) FindActiveBySHA256(ctx context.Context, sha256, ext string, now time.Time) (*models.BlobMetadata, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+blobColumns+` FROM blobs WHERE sha256 = ? AND ext = ? AND expires_at > ? ORDER BY created_at ASC LIMIT 1`,
		sha256, ext, formatTime(now))
	meta, err := scanBlob(row)
	if err != nil || meta == nil {
		return meta, err
	}

	tags, err := s.listBlobTags(ctx, meta.BlobID)
	if err != nil {
		return nil, err
	}
	meta.Tags = tags
	return meta, nil
}

// ListBlobs returns all metadata records ordered by creation time.
func (s *Store) ListBlobs(ctx context.Context) ([]models.BlobMetadata, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+blobColumns+` FROM blobs ORDER BY created_at ASC, blob_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blobs, err := collectBlobs(rows)
	if err != nil {
		return nil, err
	}

	for i := range blobs {
		tags, err := s.listBlobTags(ctx, blobs[i].BlobID)
		if err != nil {
			return nil, err
		}
		blobs[i].Tags = tags
	}
	return blobs, nil
}

// ListExpired returns up to limit records whose TTL has passed.
func (s *Store) ListExpired(ctx context.Context, now time.Time, limit int) ([]models.BlobMetadata, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+blobColumns+` FROM blobs WHERE expires_at <= ? ORDER BY expires_at ASC LIMIT ?`,
		formatTime(now), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBlobs(rows)
}

// SetBlobExpiry rewrites one record's expiry timestamp.
func (s *Store) SetBlobExpiry(ctx context.Context, blobID string, expiresAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE blobs SET expires_at = ? WHERE blob_id = ?`, formatTime(expiresAt), blobID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("blob %s not found", blobID)
	}
	return nil
}

// DeleteBlob deletes one metadata row; tag rows cascade.
func (s *Store) DeleteBlob(ctx context.Context, blobID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE blob_id = ?`, blobID)
	return err
}

// Stats returns the number of records and their total payload size.
func (s *Store) Stats(ctx context.Context) (count int64, totalBytes int64, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(size_bytes), 0) FROM blobs`)
	if err := row.Scan(&count, &totalBytes); err != nil {
		return 0, 0, err
	}
	return count, totalBytes, nil
}

func (s *Store) listBlobTags(ctx context.Context, blobID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tag FROM blob_tags WHERE blob_id = ? ORDER BY tag ASC`, blobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlob(row rowScanner) (*models.BlobMetadata, error) {
	var meta models.BlobMetadata
	var createdAt, expiresAt string

	err := row.Scan(&meta.BlobID, &meta.Filename, &meta.MimeType, &meta.SizeBytes,
		&meta.SHA256, &meta.Ext, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if meta.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("blob %s: bad created_at: %w", meta.BlobID, err)
	}
	if meta.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, fmt.Errorf("blob %s: bad expires_at: %w", meta.BlobID, err)
	}
	return &meta, nil
}

func collectBlobs(rows *sql.Rows) ([]models.BlobMetadata, error) {
	blobs := []models.BlobMetadata{}
	for rows.Next() {
		meta, err := scanBlob(rows)
		if err != nil {
			return nil, err
		}
		if meta == nil {
			continue
		}
		blobs = append(blobs, *meta)
	}
	return blobs, rows.Err()
}

func normalizeTags(values []string) []string {
	seen := map[string]struct{}{}
	tags := make([]string, 0, len(values))
	for _, value := range values {
		tag := strings.ToLower(strings.TrimSpace(value))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}
