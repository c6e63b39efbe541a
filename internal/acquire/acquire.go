// Package acquire fetches payloads from external collaborators so they
// can be persisted as blobs. The HTTP source is the only production
// implementation; tests substitute their own Source.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

var (
	// ErrEmptyRef reports a fetch without a reference.
	ErrEmptyRef = errors.New("fetch reference is required")

	// ErrTooLarge reports a response body over the configured ceiling.
	ErrTooLarge = errors.New("fetched payload exceeds maximum size")

	// ErrUpstream reports a non-success status from the collaborator.
	ErrUpstream = errors.New("upstream fetch failed")
)

// Payload is one fetched document, ready for upload.
type Payload struct {
	Data      []byte
	Filename  string
	MediaType string
}

// Source resolves a reference to a payload.
type Source interface {
	Fetch(ctx context.Context, ref string) (Payload, error)
}

// HTTPSource fetches payloads over HTTP. References are either
// absolute URLs or paths resolved against the configured base URL.
// Successful fetches are cached for a short TTL so repeated stores of
// the same reference do not hammer the collaborator.
type HTTPSource struct {
	baseURL  string
	client   *http.Client
	maxBytes int64
	cache    *payloadCache
}

// HTTPSourceOptions configures an HTTPSource. Zero values select the
// defaults: a 30s request timeout, a 100MB body ceiling, and a 5m
// cache TTL. A negative CacheTTL disables caching.
type HTTPSourceOptions struct {
	Timeout  time.Duration
	MaxBytes int64
	CacheTTL time.Duration
}

// NewHTTPSource creates a source rooted at baseURL, which may be empty
// when only absolute references will be fetched.
func NewHTTPSource(baseURL string, opts HTTPSourceOptions) *HTTPSource {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 100 << 20
	}

	var cache *payloadCache
	switch {
	case opts.CacheTTL < 0:
	case opts.CacheTTL == 0:
		cache = newPayloadCache(5 * time.Minute)
	default:
		cache = newPayloadCache(opts.CacheTTL)
	}

	return &HTTPSource{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
		cache:    cache,
	}
}

// Fetch resolves ref to a URL, downloads the body, and derives a
// filename and media type from the response.
func (s *HTTPSource) Fetch(ctx context.Context, ref string) (Payload, error) {
	var zero Payload
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return zero, ErrEmptyRef
	}

	target, err := s.resolve(ref)
	if err != nil {
		return zero, err
	}

	if s.cache != nil {
		if payload, ok := s.cache.Get(target); ok {
			return payload, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return zero, fmt.Errorf("build fetch request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return zero, fmt.Errorf("%w: %s returned %s", ErrUpstream, target, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return zero, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}
	if int64(len(data)) > s.maxBytes {
		return zero, fmt.Errorf("%w: body over %d bytes", ErrTooLarge, s.maxBytes)
	}

	payload := Payload{
		Data:      data,
		Filename:  responseFilename(resp, target),
		MediaType: responseMediaType(resp),
	}
	if s.cache != nil {
		s.cache.Put(target, payload)
	}
	return payload, nil
}

func (s *HTTPSource) resolve(ref string) (string, error) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("bad fetch reference %q: %w", ref, err)
	}
	if parsed.IsAbs() {
		return ref, nil
	}
	if s.baseURL == "" {
		return "", fmt.Errorf("relative reference %q requires a base URL", ref)
	}
	return s.baseURL + "/" + strings.TrimLeft(ref, "/"), nil
}

// responseFilename prefers Content-Disposition, then the URL path.
func responseFilename(resp *http.Response, target string) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := strings.TrimSpace(params["filename"]); name != "" {
				return path.Base(name)
			}
		}
	}
	if parsed, err := url.Parse(target); err == nil {
		if name := path.Base(parsed.Path); name != "" && name != "." && name != "/" {
			return name
		}
	}
	return "download.bin"
}

func responseMediaType(resp *http.Response) string {
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		return "application/octet-stream"
	}
	if parsed, _, err := mime.ParseMediaType(ct); err == nil {
		return parsed
	}
	return ct
}
