// Package transform computes bounding-box resize dimensions, performs
// aspect-preserving image resizes, and produces cheap size estimates.
// It operates on raw image bytes only; blob storage concerns live
// elsewhere.
package transform

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	// DefaultMaxWidth and DefaultMaxHeight bound resizes when the
	// caller omits both constraints.
	DefaultMaxWidth  = 1920
	DefaultMaxHeight = 1080

	// DefaultJPEGQuality applies when no quality is given.
	DefaultJPEGQuality = 85

	minQuality = 1
	maxQuality = 100

	// minEstimatedBytes floors size estimates so degenerate inputs
	// never produce zero or negative predictions.
	minEstimatedBytes = 100
)

var (
	// ErrInvalidQuality reports a quality outside [1,100].
	ErrInvalidQuality = fmt.Errorf("quality must be between %d and %d", minQuality, maxQuality)

	// ErrDecode reports image bytes the codec cannot parse.
	ErrDecode = errors.New("image data could not be decoded")
)

// ValidateQuality rejects an out-of-range quality before any decode or
// resize work starts. A nil quality means "use the default" and is
// always valid.
func ValidateQuality(quality *int) error {
	if quality == nil {
		return nil
	}
	if *quality < minQuality || *quality > maxQuality {
		return fmt.Errorf("%w, got %d", ErrInvalidQuality, *quality)
	}
	return nil
}

// NormalizeFormat lowercases a format token and folds the jpg alias
// into jpeg.
func NormalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "jpg" {
		return "jpeg"
	}
	return format
}

// IsJPEG reports whether the token names the JPEG family.
func IsJPEG(format string) bool {
	return NormalizeFormat(format) == "jpeg"
}

// CalculateResizeDimensions returns the target dimensions for fitting
// origW x origH into the constraints, preserving aspect ratio and
// never upscaling.
//
// Constraint semantics:
//   - both nil: default bounding box (1920x1080)
//   - one nil: the omitted axis is unconstrained and scales with the other
//   - both zero: resizing disabled, original dimensions returned
//   - one zero: that axis is unconstrained, the other is the bound
//   - both set: hard bounding box
func CalculateResizeDimensions(origW, origH int, maxW, maxH *int) (int, int, bool) {
	if maxW != nil && *maxW == 0 && maxH != nil && *maxH == 0 {
		return origW, origH, false
	}

	var effW, effH int
	switch {
	case maxW == nil && maxH == nil:
		effW, effH = DefaultMaxWidth, DefaultMaxHeight
	case maxW == nil:
		effW = origW
		if *maxH != 0 {
			effH = *maxH
		} else {
			effH = origH
		}
	case maxH == nil:
		if *maxW != 0 {
			effW = *maxW
		} else {
			effW = origW
		}
		effH = origH
	default:
		effW, effH = *maxW, *maxH
		if effW == 0 {
			effW = origW
		}
		if effH == 0 {
			effH = origH
		}
	}

	// Never upscale.
	if origW <= effW && origH <= effH {
		return origW, origH, false
	}

	scale := math.Min(float64(effW)/float64(origW), float64(effH)/float64(origH))
	newW := int(float64(origW) * scale)
	newH := int(float64(origH) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	return newW, newH, true
}

// EstimateCompressedSize predicts the encoded size after a resize
// without performing any encoding. The estimate scales the original
// size by the pixel ratio and, for JPEG with an explicit quality, by
// quality/100. It is an approximation; actual sizes vary with content.
func EstimateCompressedSize(origSize int64, origW, origH, newW, newH int, format string, quality *int) int64 {
	origPixels := int64(origW) * int64(origH)
	pixelRatio := 1.0
	if origPixels > 0 {
		pixelRatio = float64(int64(newW)*int64(newH)) / float64(origPixels)
	}

	estimated := int64(float64(origSize) * pixelRatio)

	if IsJPEG(format) && quality != nil {
		// Quality affects size roughly linearly.
		estimated = int64(float64(estimated) * float64(*quality) / 100)
	}

	if estimated < minEstimatedBytes {
		estimated = minEstimatedBytes
	}
	return estimated
}
