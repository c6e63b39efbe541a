package transform

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	// The imaging package registers png/jpeg/gif/bmp/tiff decoders;
	// webp is decode-only and registered here.
	_ "golang.org/x/image/webp"
)

// ImageInfo describes an image header without decoded pixel data.
type ImageInfo struct {
	Width  int
	Height int
	Format string
}

// DecodeInfo reads dimensions and format from the image header only.
// It never decodes pixel data, so it stays cheap for large payloads.
func DecodeInfo(data []byte) (ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return ImageInfo{Width: cfg.Width, Height: cfg.Height, Format: NormalizeFormat(format)}, nil
}

// DetectFormat sniffs the image format from the payload bytes,
// ignoring whatever the filename claims.
func DetectFormat(data []byte) (string, error) {
	info, err := DecodeInfo(data)
	if err != nil {
		return "", err
	}
	return info.Format, nil
}

// Resize decodes the image, fits it into the given constraints, and
// re-encodes. When no resize is needed the original bytes are returned
// untouched, avoiding a lossy round trip. The returned format can
// differ from the input for formats without an encoder (webp becomes
// png).
func Resize(data []byte, format string, maxW, maxH, quality *int) ([]byte, int, int, string, error) {
	format = NormalizeFormat(format)

	if err := ValidateQuality(quality); err != nil {
		return nil, 0, 0, "", err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	bounds := img.Bounds()
	origW, origH := bounds.Dx(), bounds.Dy()

	newW, newH, shouldResize := CalculateResizeDimensions(origW, origH, maxW, maxH)
	if !shouldResize {
		return data, origW, origH, format, nil
	}

	resized := imaging.Resize(img, newW, newH, imaging.Lanczos)

	encFormat, ok := encodeFormat(format)
	if !ok {
		// No encoder for this format; fall back to lossless PNG.
		format = "png"
		encFormat = imaging.PNG
	}

	var buf bytes.Buffer
	switch encFormat {
	case imaging.JPEG:
		q := DefaultJPEGQuality
		if quality != nil {
			q = *quality
		}
		// JPEG has no alpha channel; flatten onto white first.
		flat := imaging.Overlay(imaging.New(newW, newH, color.White), resized, image.Pt(0, 0), 1.0)
		err = imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(q))
	default:
		err = imaging.Encode(&buf, resized, encFormat)
	}
	if err != nil {
		return nil, 0, 0, "", fmt.Errorf("encode %s: %w", format, err)
	}

	return buf.Bytes(), newW, newH, format, nil
}

func encodeFormat(format string) (imaging.Format, bool) {
	switch format {
	case "jpeg":
		return imaging.JPEG, true
	case "png":
		return imaging.PNG, true
	case "gif":
		return imaging.GIF, true
	case "tiff":
		return imaging.TIFF, true
	case "bmp":
		return imaging.BMP, true
	}
	return imaging.Format(-1), false
}
