package ingest

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	// register the decoders accepted for incoming photos
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

const (
	// thumbnailSize is the side of the square clear-text preview.
	thumbnailSize = 150
	// thumbnailQuality / fullQuality are the JPEG encoder settings for
	// the preview and the encrypted full-resolution copy.
	thumbnailQuality = 70
	fullQuality      = 90
)

func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// makeThumbnail center-crops img to a square and scales it down to
// thumbnailSize, returning JPEG bytes.
func makeThumbnail(img image.Image) ([]byte, error) {
	b := img.Bounds()

	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	crop := image.Rect(0, 0, side, side).
		Add(image.Pt(b.Min.X+(b.Dx()-side)/2, b.Min.Y+(b.Dy()-side)/2))

	dst := image.NewRGBA(image.Rect(0, 0, thumbnailSize, thumbnailSize))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, crop, draw.Src, nil)

	return encodeJPEG(dst, thumbnailQuality)
}
