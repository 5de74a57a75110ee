package images

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
)

// EncodePNG writes image as PNG trading some size for speed.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestSpeed)); err != nil {
		return fmt.Errorf("unable to encode png: %w", err)
	}
	return nil
}

// DataURI returns image as base64 PNG data URI suitable for embedding.
func DataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Resize scales image to exactly w x h pixels.
func Resize(img image.Image, w, h int) *image.NRGBA {
	return imaging.Resize(img, max(w, 1), max(h, 1), imaging.Lanczos)
}
