package store

import "database/sql"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS blobs (
  blob_id TEXT PRIMARY KEY,
  filename TEXT NOT NULL,
  mime_type TEXT NOT NULL,
  size_bytes INTEGER NOT NULL,
  sha256 TEXT NOT NULL,
  ext TEXT NOT NULL,
  created_at TEXT NOT NULL,
  expires_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS blob_tags (
  blob_id TEXT NOT NULL,
  tag TEXT NOT NULL,
  UNIQUE(blob_id, tag),
  FOREIGN KEY (blob_id) REFERENCES blobs(blob_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_blobs_sha256_ext ON blobs(sha256, ext);
CREATE INDEX IF NOT EXISTS idx_blobs_expires_at ON blobs(expires_at);
CREATE INDEX IF NOT EXISTS idx_blob_tags_tag ON blob_tags(tag);
`

func bootstrapSchema(db *sql.DB) error {
	_, err := db.Exec(schemaSQL)
	return err
}
