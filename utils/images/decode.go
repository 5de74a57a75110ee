// Package images decodes images referenced by markup and encodes rendered
// results.
package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrUnknownFormat = errors.New("unknown image format")

// Detect returns format of image data: png, jpg, gif, webp, bmp, tif or svg.
// Empty string means format is not supported.
func Detect(data []byte) string {
	if kind, err := filetype.Image(data); err == nil && kind != filetype.Unknown {
		switch kind.Extension {
		case "png", "jpg", "gif", "webp", "bmp", "tif":
			return kind.Extension
		}
		return ""
	}
	if IsSVG(data) {
		return "svg"
	}
	return ""
}

// Size returns intrinsic image size without decoding pixels where possible.
func Size(data []byte) (float64, float64, error) {
	switch Detect(data) {
	case "":
		return 0, 0, ErrUnknownFormat
	case "svg":
		return SVGSize(data)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("unable to decode image config: %w", err)
	}
	return float64(cfg.Width), float64(cfg.Height), nil
}

// Decode decodes raster image or rasterizes SVG at intrinsic size. Format
// name is the same as returned by Detect.
func Decode(data []byte) (image.Image, string, error) {
	format := Detect(data)
	switch format {
	case "":
		return nil, "", ErrUnknownFormat
	case "svg":
		img, err := RasterizeSVG(data, 0, 0)
		if err != nil {
			return nil, format, err
		}
		return img, format, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, format, fmt.Errorf("unable to decode %s image: %w", format, err)
	}
	return img, format, nil
}
