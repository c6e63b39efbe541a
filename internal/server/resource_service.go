package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blobshare/internal/acquire"
	"blobshare/internal/api"
	"blobshare/internal/blobid"
	"blobshare/internal/blobstore"
	"blobshare/internal/models"
	"blobshare/internal/store"
	"blobshare/internal/transform"
)

// ResizeOptions carries the optional constraints accepted by every
// image operation. Nil means "not supplied"; the policy in the
// transform package distinguishes that from an explicit zero.
type ResizeOptions struct {
	MaxWidth  *int
	MaxHeight *int
	Quality   *int
}

// ResourceService composes blob storage, image transformation, and
// upstream acquisition behind the handlers. All methods translate
// domain sentinels into apiError values so handlers only need
// writeServiceError.
type ResourceService struct {
	blobs    *blobstore.Store
	meta     *store.Store
	source   acquire.Source
	hostRoot string
}

// NewResourceService wires the service. source may be nil when no
// upstream is configured; fetch operations then fail cleanly.
func NewResourceService(blobs *blobstore.Store, meta *store.Store, source acquire.Source, hostRoot string) *ResourceService {
	return &ResourceService{
		blobs:    blobs,
		meta:     meta,
		source:   source,
		hostRoot: strings.TrimRight(hostRoot, "/"),
	}
}

// StoreFile persists raw bytes as a file blob.
func (s *ResourceService) StoreFile(ctx context.Context, data []byte, filename string, tags []string, ttlHours int) (api.ResourceResponse, error) {
	var zero api.ResourceResponse

	result, err := s.blobs.Upload(ctx, data, filename, withDefaultTag(tags, "file"), ttlHours)
	if err != nil {
		return zero, serviceError(err)
	}
	return s.resourceResponse(ctx, result)
}

// StoreImage decodes, optionally resizes, and persists an image. The
// stored bytes are the transformed ones; the original is discarded.
func (s *ResourceService) StoreImage(ctx context.Context, data []byte, filename string, tags []string, ttlHours int, opts ResizeOptions) (api.ResourceResponse, error) {
	var zero api.ResourceResponse

	if err := transform.ValidateQuality(opts.Quality); err != nil {
		return zero, serviceError(err)
	}
	if len(data) == 0 {
		return zero, serviceError(blobstore.ErrEmptyData)
	}
	format, err := transform.DetectFormat(data)
	if err != nil {
		return zero, serviceError(err)
	}

	resized, _, _, outFormat, err := transform.Resize(data, format, opts.MaxWidth, opts.MaxHeight, opts.Quality)
	if err != nil {
		return zero, serviceError(err)
	}

	filename = filenameForFormat(filename, format, outFormat)
	result, err := s.blobs.Upload(ctx, resized, filename, withDefaultTag(tags, "image"), ttlHours)
	if err != nil {
		return zero, serviceError(err)
	}
	return s.resourceResponse(ctx, result)
}

// StoreFileFromSource pulls a document from the upstream source and
// stores it as a file blob.
func (s *ResourceService) StoreFileFromSource(ctx context.Context, req api.FetchRequest) (api.ResourceResponse, error) {
	payload, err := s.fetch(ctx, req.Ref)
	if err != nil {
		return api.ResourceResponse{}, err
	}
	filename := firstNonEmpty(req.Filename, payload.Filename)
	return s.StoreFile(ctx, payload.Data, filename, req.Tags, req.TTLHours)
}

// StoreImageFromSource pulls an image from the upstream source,
// resizes it, and stores it.
func (s *ResourceService) StoreImageFromSource(ctx context.Context, req api.FetchImageRequest) (api.ResourceResponse, error) {
	payload, err := s.fetch(ctx, req.Ref)
	if err != nil {
		return api.ResourceResponse{}, err
	}
	filename := firstNonEmpty(req.Filename, payload.Filename)
	opts := ResizeOptions{MaxWidth: req.MaxWidth, MaxHeight: req.MaxHeight, Quality: req.Quality}
	return s.StoreImage(ctx, payload.Data, filename, req.Tags, req.TTLHours, opts)
}

// FileContent returns a stored blob's bytes with its mime type.
func (s *ResourceService) FileContent(ctx context.Context, blobID string) ([]byte, string, error) {
	data, err := s.blobs.Read(ctx, blobID)
	if err != nil {
		return nil, "", serviceError(err)
	}
	meta, err := s.blobs.GetMetadata(ctx, blobID)
	if err != nil {
		return nil, "", serviceError(err)
	}
	return data, meta.MimeType, nil
}

// ImageContent returns a stored image's bytes, resized on the way out
// when constraints are supplied. The stored blob is not modified.
func (s *ResourceService) ImageContent(ctx context.Context, blobID string, opts ResizeOptions) ([]byte, string, error) {
	if err := transform.ValidateQuality(opts.Quality); err != nil {
		return nil, "", serviceError(err)
	}
	data, meta, err := s.imageBlob(ctx, blobID)
	if err != nil {
		return nil, "", err
	}

	format, err := transform.DetectFormat(data)
	if err != nil {
		return nil, "", serviceError(err)
	}
	resized, _, _, outFormat, err := transform.Resize(data, format, opts.MaxWidth, opts.MaxHeight, opts.Quality)
	if err != nil {
		return nil, "", serviceError(err)
	}

	contentType := meta.MimeType
	if outFormat != format {
		contentType = "image/" + outFormat
	}
	return resized, contentType, nil
}

// FileInfo describes a stored file without returning its content.
func (s *ResourceService) FileInfo(ctx context.Context, blobID string) (api.FileInfoResponse, error) {
	var zero api.FileInfoResponse

	meta, err := s.blobs.GetMetadata(ctx, blobID)
	if err != nil {
		return zero, serviceError(err)
	}
	path, err := s.blobs.BlobPath(blobID)
	if err != nil {
		return zero, serviceError(err)
	}

	return api.FileInfoResponse{
		BlobID:    meta.BlobID,
		Filename:  meta.Filename,
		MimeType:  meta.MimeType,
		SizeBytes: meta.SizeBytes,
		SHA256:    meta.SHA256,
		FilePath:  path,
		HostPath:  s.hostPath(meta.BlobID),
		ExpiresAt: meta.ExpiresAt,
		Tags:      meta.Tags,
	}, nil
}

// ImageInfo reads just enough of a stored image to report its pixel
// dimensions and encoding.
func (s *ResourceService) ImageInfo(ctx context.Context, blobID string) (api.ImageInfoResponse, error) {
	var zero api.ImageInfoResponse

	data, meta, err := s.imageBlob(ctx, blobID)
	if err != nil {
		return zero, err
	}
	info, err := transform.DecodeInfo(data)
	if err != nil {
		return zero, serviceError(err)
	}

	return api.ImageInfoResponse{
		BlobID:    meta.BlobID,
		Filename:  meta.Filename,
		Format:    info.Format,
		Width:     info.Width,
		Height:    info.Height,
		SizeBytes: meta.SizeBytes,
	}, nil
}

// ImageEstimate predicts the dimensions and compressed size a resize
// would produce without decoding the full image or writing anything.
func (s *ResourceService) ImageEstimate(ctx context.Context, blobID string, opts ResizeOptions) (api.ImageSizeEstimateResponse, error) {
	var zero api.ImageSizeEstimateResponse

	if err := transform.ValidateQuality(opts.Quality); err != nil {
		return zero, serviceError(err)
	}
	data, meta, err := s.imageBlob(ctx, blobID)
	if err != nil {
		return zero, err
	}
	info, err := transform.DecodeInfo(data)
	if err != nil {
		return zero, serviceError(err)
	}

	newWidth, newHeight, wouldResize := transform.CalculateResizeDimensions(
		info.Width, info.Height, opts.MaxWidth, opts.MaxHeight)

	// For JPEG the quality factor applies even without a resize, with
	// the encoder default standing in for an omitted quality. Other
	// formats ignore quality entirely.
	var effectiveQuality *int
	if transform.IsJPEG(info.Format) {
		q := transform.DefaultJPEGQuality
		if opts.Quality != nil {
			q = *opts.Quality
		}
		effectiveQuality = &q
	}

	estimated := transform.EstimateCompressedSize(
		meta.SizeBytes, info.Width, info.Height, newWidth, newHeight, info.Format, effectiveQuality)

	return api.ImageSizeEstimateResponse{
		BlobID:             meta.BlobID,
		Format:             info.Format,
		OriginalWidth:      info.Width,
		OriginalHeight:     info.Height,
		OriginalSizeBytes:  meta.SizeBytes,
		EstimatedWidth:     newWidth,
		EstimatedHeight:    newHeight,
		EstimatedSizeBytes: estimated,
		WouldResize:        wouldResize,
		Quality:            effectiveQuality,
	}, nil
}

// Metadata returns the full metadata record for a blob.
func (s *ResourceService) Metadata(ctx context.Context, blobID string) (api.MetadataResponse, error) {
	var zero api.MetadataResponse

	meta, err := s.blobs.GetMetadata(ctx, blobID)
	if err != nil {
		return zero, serviceError(err)
	}
	return metadataResponse(meta), nil
}

// ListMetadata returns every metadata record, oldest first.
func (s *ResourceService) ListMetadata(ctx context.Context) ([]api.MetadataResponse, error) {
	blobs, err := s.meta.ListBlobs(ctx)
	if err != nil {
		return nil, storeFailure(err)
	}
	out := make([]api.MetadataResponse, 0, len(blobs))
	for _, meta := range blobs {
		out = append(out, metadataResponse(meta))
	}
	return out, nil
}

// Sweep removes expired blobs.
func (s *ResourceService) Sweep(ctx context.Context, batchSize int, dryRun bool) (api.SweepResponse, error) {
	result, err := s.blobs.SweepExpired(ctx, batchSize, dryRun)
	if err != nil {
		return api.SweepResponse{}, storeFailure(err)
	}
	return api.SweepResponse{
		CandidateCount: result.CandidateCount,
		DeletedCount:   result.DeletedCount,
		FailedCount:    result.FailedCount,
		ReclaimedBytes: result.ReclaimedBytes,
		DryRun:         result.DryRun,
	}, nil
}

// Stats reports the record count and total payload size.
func (s *ResourceService) Stats(ctx context.Context) (count, totalBytes int64, err error) {
	count, totalBytes, err = s.meta.Stats(ctx)
	if err != nil {
		return 0, 0, storeFailure(err)
	}
	return count, totalBytes, nil
}

func (s *ResourceService) fetch(ctx context.Context, ref string) (acquire.Payload, error) {
	if s.source == nil {
		return acquire.Payload{}, badRequest(fmt.Errorf("no upstream source is configured"))
	}
	payload, err := s.source.Fetch(ctx, ref)
	if err != nil {
		return acquire.Payload{}, serviceError(err)
	}
	return payload, nil
}

// imageBlob loads a blob and rejects it unless its stored mime type
// marks it as an image.
func (s *ResourceService) imageBlob(ctx context.Context, blobID string) ([]byte, models.BlobMetadata, error) {
	var zero models.BlobMetadata

	meta, err := s.blobs.GetMetadata(ctx, blobID)
	if err != nil {
		return nil, zero, serviceError(err)
	}
	if !strings.HasPrefix(meta.MimeType, "image/") {
		return nil, zero, makeAPIError(400, "invalid_argument", ErrCodeNotAnImage,
			fmt.Errorf("blob %s is not an image (%s)", blobID, meta.MimeType))
	}
	data, err := s.blobs.Read(ctx, blobID)
	if err != nil {
		return nil, zero, serviceError(err)
	}
	return data, meta, nil
}

func (s *ResourceService) resourceResponse(ctx context.Context, result blobstore.UploadResult) (api.ResourceResponse, error) {
	meta, err := s.blobs.GetMetadata(ctx, result.BlobID)
	if err != nil {
		return api.ResourceResponse{}, serviceError(err)
	}

	expiresAt := meta.ExpiresAt
	return api.ResourceResponse{
		BlobID:    result.BlobID,
		FilePath:  result.FilePath,
		HostPath:  s.hostPath(result.BlobID),
		SHA256:    result.SHA256,
		Filename:  meta.Filename,
		MimeType:  meta.MimeType,
		SizeBytes: meta.SizeBytes,
		ExpiresAt: &expiresAt,
		Tags:      meta.Tags,
	}, nil
}

// hostPath maps a blob onto the storage root as mounted on the host,
// for consumers running outside the server's filesystem namespace.
func (s *ResourceService) hostPath(blobID string) string {
	if s.hostRoot == "" {
		return ""
	}
	id, err := blobid.Decode(blobID)
	if err != nil {
		return ""
	}
	return s.hostRoot + "/" + id.RelPath()
}

// serviceError maps domain sentinels onto HTTP-facing apiError values.
// Already classified errors pass through unchanged.
func serviceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, blobid.ErrInvalidID):
		return badRequestCode(err, ErrCodeInvalidBlobID)
	case errors.Is(err, blobstore.ErrNotFound):
		return notFoundCode(err, ErrCodeBlobNotFound)
	case errors.Is(err, blobstore.ErrEmptyData), errors.Is(err, blobstore.ErrEmptyFilename):
		return badRequestCode(err, ErrCodeMissingRequired)
	case errors.Is(err, blobstore.ErrTooLarge), errors.Is(err, acquire.ErrTooLarge):
		return payloadTooLarge(err)
	case errors.Is(err, transform.ErrInvalidQuality):
		return badRequestCode(err, ErrCodeInvalidQuality)
	case errors.Is(err, transform.ErrDecode):
		return badRequestCode(err, ErrCodeImageDecodeFailed)
	case errors.Is(err, acquire.ErrEmptyRef):
		return badRequestCode(err, ErrCodeMissingRequired)
	case errors.Is(err, acquire.ErrUpstream):
		return upstreamFailure(err)
	default:
		return storeFailure(err)
	}
}

func metadataResponse(meta models.BlobMetadata) api.MetadataResponse {
	return api.MetadataResponse{
		BlobID:    meta.BlobID,
		Filename:  meta.Filename,
		MimeType:  meta.MimeType,
		SizeBytes: meta.SizeBytes,
		SHA256:    meta.SHA256,
		CreatedAt: meta.CreatedAt,
		ExpiresAt: meta.ExpiresAt,
		Expired:   meta.Expired(time.Now().UTC()),
		Tags:      meta.Tags,
	}
}

func withDefaultTag(tags []string, kind string) []string {
	for _, tag := range tags {
		if strings.EqualFold(strings.TrimSpace(tag), kind) {
			return tags
		}
	}
	return append(append([]string{}, tags...), kind)
}

// filenameForFormat rewrites the extension when the transform changed
// the encoding, so the minted identifier matches the stored bytes.
func filenameForFormat(filename, inFormat, outFormat string) string {
	if inFormat == outFormat {
		return filename
	}
	if idx := strings.LastIndex(filename, "."); idx > 0 {
		filename = filename[:idx]
	}
	return filename + "." + outFormat
}
