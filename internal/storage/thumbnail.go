package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
)

// jpegThumbnailQuality is the JPEG encoder quality for thumbnails.
const jpegThumbnailQuality = 80

// ThumbnailFilename derives the thumbnail name for a stored image.
//
// Example: "1735689600000-384729174.jpg" -> "1735689600000-384729174_thumb.jpg"
func ThumbnailFilename(filename string) string {
	ext := filepath.Ext(filename)
	return strings.TrimSuffix(filename, ext) + "_thumb" + ext
}

// GenerateThumbnail decodes an image and scales it down to fit within
// maxWidth x maxHeight, preserving aspect ratio. Images already within
// bounds are re-encoded unscaled. The result is encoded in the source
// format (JPEG or PNG).
func GenerateThumbnail(r io.Reader, maxWidth, maxHeight int) ([]byte, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxWidth || bounds.Dy() > maxHeight {
		img = resize.Thumbnail(uint(maxWidth), uint(maxHeight), img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegThumbnailQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return buf.Bytes(), nil
}
