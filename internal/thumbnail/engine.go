// Package thumbnail derives JPEG thumbnails from uploaded raster images.
package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // PNG sources are accepted and re-encoded as JPEG

	"golang.org/x/image/draw"
)

// ErrInvalidSize is returned when the requested target height is not positive.
var ErrInvalidSize = errors.New("target height must be positive")

// DecodeError wraps a failure to decode the source bytes as a raster image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode source image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Resize scales src down to targetHeight preserving aspect ratio and returns
// JPEG bytes. The output width is floor(aspectRatio * targetHeight); alpha is
// dropped during JPEG encoding. Deterministic for identical inputs.
//
// Resize never retries: a decode failure is not transient and is reported to
// the caller as *DecodeError.
func Resize(src []byte, targetHeight int) ([]byte, error) {
	if targetHeight <= 0 {
		return nil, ErrInvalidSize
	}

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, &DecodeError{Err: errors.New("image has zero dimension")}
	}

	aspectRatio := float64(width) / float64(height)
	newWidth := int(aspectRatio * float64(targetHeight))
	newHeight := targetHeight

	// Only shrink. A source smaller than the bounding box is re-encoded as-is.
	if newWidth >= width || newHeight >= height {
		newWidth, newHeight = width, height
	}
	if newWidth == 0 {
		newWidth = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, nil); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return out.Bytes(), nil
}

// Dimensions reports the decoded width and height of src without a full decode.
func Dimensions(src []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return 0, 0, &DecodeError{Err: err}
	}
	return cfg.Width, cfg.Height, nil
}
