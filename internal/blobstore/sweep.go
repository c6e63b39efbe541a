package blobstore

import (
	"context"
	"errors"
	"os"
	"time"

	"blobshare/internal/blobid"
)

// SweepResult reports one expiry sweep.
type SweepResult struct {
	CandidateCount int   `json:"candidate_count"`
	DeletedCount   int   `json:"deleted_count"`
	FailedCount    int   `json:"failed_count"`
	ReclaimedBytes int64 `json:"reclaimed_bytes"`
	DryRun         bool  `json:"dry_run"`
}

// SweepExpired removes blobs whose TTL has passed, in batches of up to
// batchSize records per pass until none remain. Payload files already
// missing from the volume still get their metadata rows cleared.
// Nothing in the read or write paths depends on sweeping; expiry stays
// advisory until this runs.
func (s *Store) SweepExpired(ctx context.Context, batchSize int, dryRun bool) (SweepResult, error) {
	result := SweepResult{DryRun: dryRun}
	if s == nil {
		return result, errors.New("blob store is not configured")
	}

	now := time.Now().UTC()
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		expired, err := s.meta.ListExpired(ctx, now, batchSize)
		if err != nil {
			return result, err
		}
		if len(expired) == 0 {
			return result, nil
		}
		result.CandidateCount += len(expired)

		if dryRun {
			for _, meta := range expired {
				result.ReclaimedBytes += meta.SizeBytes
			}
			return result, nil
		}

		deletedThisPass := 0
		for _, meta := range expired {
			path, err := blobid.Path(meta.BlobID, s.root)
			if err != nil {
				result.FailedCount++
				continue
			}

			unlock := s.lockHash(meta.SHA256)
			removeErr := os.Remove(path)
			if removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
				unlock()
				result.FailedCount++
				continue
			}
			if err := s.meta.DeleteBlob(ctx, meta.BlobID); err != nil {
				unlock()
				result.FailedCount++
				continue
			}
			unlock()

			result.DeletedCount++
			result.ReclaimedBytes += meta.SizeBytes
			deletedThisPass++
		}

		// Stop once a batch drains or makes no progress; rows that
		// keep failing would otherwise loop forever.
		if len(expired) < batchSize || deletedThisPass == 0 {
			return result, nil
		}
	}
}
