package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	httpTimeoutEnvKey  = "BLOBSHARE_HTTP_TIMEOUT"
)

// Client is a simple HTTP client for the blobshare API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: httpTimeoutFromEnv()},
	}
}

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) GetInfo(ctx context.Context) (InfoResponse, error) {
	var resp InfoResponse
	err := c.do(ctx, http.MethodGet, "/v1/info", nil, nil, &resp)
	return resp, err
}

// UploadParams carries the optional knobs shared by every upload.
type UploadParams struct {
	Tags     []string
	TTLHours int
}

// ImageUploadParams extends UploadParams with resize constraints.
type ImageUploadParams struct {
	UploadParams
	MaxWidth  *int
	MaxHeight *int
	Quality   *int
}

// StoreFile uploads raw bytes as a managed file blob.
func (c *Client) StoreFile(ctx context.Context, data []byte, filename string, params UploadParams) (ResourceResponse, error) {
	var resp ResourceResponse
	err := c.upload(ctx, "/v1/files", data, filename, uploadFields(params, nil, nil, nil), &resp)
	return resp, err
}

// StoreImage uploads image bytes, letting the server resize before
// persisting.
func (c *Client) StoreImage(ctx context.Context, data []byte, filename string, params ImageUploadParams) (ResourceResponse, error) {
	var resp ResourceResponse
	err := c.upload(ctx, "/v1/images", data, filename,
		uploadFields(params.UploadParams, params.MaxWidth, params.MaxHeight, params.Quality), &resp)
	return resp, err
}

// FetchFile asks the server to pull a document from its upstream
// source and store it.
func (c *Client) FetchFile(ctx context.Context, req FetchRequest) (ResourceResponse, error) {
	var resp ResourceResponse
	err := c.do(ctx, http.MethodPost, "/v1/files/fetch", nil, req, &resp)
	return resp, err
}

// FetchImage asks the server to pull an image from its upstream
// source, resize it, and store it.
func (c *Client) FetchImage(ctx context.Context, req FetchImageRequest) (ResourceResponse, error) {
	var resp ResourceResponse
	err := c.do(ctx, http.MethodPost, "/v1/images/fetch", nil, req, &resp)
	return resp, err
}

// GetFileContent streams a stored blob's raw bytes to w and returns
// the response content type.
func (c *Client) GetFileContent(ctx context.Context, blobID string, w io.Writer) (string, error) {
	return c.download(ctx, "/v1/files/content", blobIDQuery(blobID), w)
}

// GetImageContent streams a stored image to w, optionally resized on
// the way out, and returns the response content type.
func (c *Client) GetImageContent(ctx context.Context, blobID string, maxWidth, maxHeight, quality *int, w io.Writer) (string, error) {
	query := blobIDQuery(blobID)
	setOptionalInt(query, "max_width", maxWidth)
	setOptionalInt(query, "max_height", maxHeight)
	setOptionalInt(query, "quality", quality)
	return c.download(ctx, "/v1/images/content", query, w)
}

func (c *Client) GetFileInfo(ctx context.Context, blobID string) (FileInfoResponse, error) {
	var resp FileInfoResponse
	err := c.do(ctx, http.MethodGet, "/v1/files/info", blobIDQuery(blobID), nil, &resp)
	return resp, err
}

func (c *Client) GetImageInfo(ctx context.Context, blobID string) (ImageInfoResponse, error) {
	var resp ImageInfoResponse
	err := c.do(ctx, http.MethodGet, "/v1/images/info", blobIDQuery(blobID), nil, &resp)
	return resp, err
}

func (c *Client) GetImageEstimate(ctx context.Context, blobID string, maxWidth, maxHeight, quality *int) (ImageSizeEstimateResponse, error) {
	query := blobIDQuery(blobID)
	setOptionalInt(query, "max_width", maxWidth)
	setOptionalInt(query, "max_height", maxHeight)
	setOptionalInt(query, "quality", quality)

	var resp ImageSizeEstimateResponse
	err := c.do(ctx, http.MethodGet, "/v1/images/estimate", query, nil, &resp)
	return resp, err
}

func (c *Client) GetMetadata(ctx context.Context, blobID string) (MetadataResponse, error) {
	var resp MetadataResponse
	err := c.do(ctx, http.MethodGet, "/v1/metadata", blobIDQuery(blobID), nil, &resp)
	return resp, err
}

// Export streams the metadata export to w. Format is "yaml" or "json".
func (c *Client) Export(ctx context.Context, format string, w io.Writer) error {
	query := url.Values{}
	if format != "" {
		query.Set("format", format)
	}
	_, err := c.download(ctx, "/v1/export", query, w)
	return err
}

// AdminSweep removes expired blobs. Non-dry-run sweeps require
// confirm, which sets the X-Confirm header the server insists on.
func (c *Client) AdminSweep(ctx context.Context, req SweepRequest, confirm bool) (SweepResponse, error) {
	var resp SweepResponse
	payload, err := json.Marshal(req)
	if err != nil {
		return resp, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/admin/sweep", bytes.NewReader(payload))
	if err != nil {
		return resp, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if confirm {
		httpReq.Header.Set("X-Confirm", "true")
	}
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return resp, err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode >= 400 {
		return resp, decodeError(httpResp)
	}
	err = json.NewDecoder(httpResp.Body).Decode(&resp)
	return resp, err
}

// upload sends a multipart request with the payload under the "file"
// part and the remaining knobs as form fields.
func (c *Client) upload(ctx context.Context, path string, data []byte, filename string, fields map[string]string, out any) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) download(ctx context.Context, path string, query url.Values, w io.Writer) (string, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", decodeError(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", err
	}
	return resp.Header.Get("Content-Type"), nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		return &APIError{
			Status:    resp.StatusCode,
			Code:      errResp.Code,
			ErrorCode: errResp.ErrorCode,
			Message:   errResp.Error,
		}
	}
	return &APIError{Status: resp.StatusCode}
}

func uploadFields(params UploadParams, maxWidth, maxHeight, quality *int) map[string]string {
	fields := map[string]string{}
	if len(params.Tags) > 0 {
		fields["tags"] = strings.Join(params.Tags, ",")
	}
	if params.TTLHours > 0 {
		fields["ttl_hours"] = strconv.Itoa(params.TTLHours)
	}
	if maxWidth != nil {
		fields["max_width"] = strconv.Itoa(*maxWidth)
	}
	if maxHeight != nil {
		fields["max_height"] = strconv.Itoa(*maxHeight)
	}
	if quality != nil {
		fields["quality"] = strconv.Itoa(*quality)
	}
	return fields
}

func blobIDQuery(blobID string) url.Values {
	query := url.Values{}
	query.Set("blob_id", blobID)
	return query
}

func setOptionalInt(query url.Values, key string, value *int) {
	if value != nil {
		query.Set(key, strconv.Itoa(*value))
	}
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
