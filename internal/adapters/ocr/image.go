package ocr

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	// DefaultMaxDimension caps the longest side sent to the model.
	DefaultMaxDimension = 2048

	jpegQuality = 85

	// PreparedMediaType is the media type of PrepareImage output.
	PreparedMediaType = "image/jpeg"
)

// PrepareImage decodes an uploaded photo, applies its EXIF orientation,
// downscales it so neither side exceeds maxDim and re-encodes it as JPEG.
// Images already within bounds keep their size.
func PrepareImage(data []byte, maxDim int) ([]byte, error) {
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
