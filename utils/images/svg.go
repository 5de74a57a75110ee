package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// used when SVG has neither width/height nor viewBox
const defaultSVGSize = 150

// maxRasterDim is the maximum pixel dimension (width or height) allowed when
// rasterizing an SVG. This prevents OOM from malicious SVGs with enormous
// viewBox values.
var maxRasterDim = 8192

// IsSVG reports whether data looks like SVG document.
func IsSVG(data []byte) bool {
	head := data[:min(len(data), 1024)]
	head = bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))
	head = bytes.TrimSpace(head)
	if !bytes.HasPrefix(head, []byte("<")) {
		return false
	}
	return bytes.Contains(head, []byte("<svg"))
}

// SVGSize returns intrinsic size of SVG image. Absolute width and height
// attributes win, otherwise viewBox is used, when one side is missing it is
// computed from viewBox proportions.
func SVGSize(data []byte) (float64, float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return 0, 0, fmt.Errorf("unable to parse svg: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "svg" {
		return 0, 0, errors.New("not an svg document")
	}

	var vbW, vbH float64
	if vb := strings.Fields(strings.ReplaceAll(root.SelectAttrValue("viewBox", ""), ",", " ")); len(vb) == 4 {
		vbW, _ = strconv.ParseFloat(vb[2], 64)
		vbH, _ = strconv.ParseFloat(vb[3], 64)
	}
	w, okW := svgLength(root.SelectAttrValue("width", ""))
	h, okH := svgLength(root.SelectAttrValue("height", ""))

	switch {
	case okW && okH:
	case okW && vbW > 0 && vbH > 0:
		h = w * vbH / vbW
	case okH && vbW > 0 && vbH > 0:
		w = h * vbW / vbH
	case vbW > 0 && vbH > 0:
		w, h = vbW, vbH
	default:
		w, h = defaultSVGSize, defaultSVGSize
	}
	return w, h, nil
}

// svgLength parses absolute length, percentages are not intrinsic sizes
func svgLength(s string) (float64, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// RasterizeSVG renders SVG to an image with transparent background.
//
// Rules:
//   - if targetW == 0 && targetH == 0: use intrinsic SVG size
//   - if only one of targetW/targetH is > 0: scale by that dimension keeping aspect ratio
//   - if both targetW and targetH are > 0: stretch to that box, callers do fitting
func RasterizeSVG(data []byte, targetW, targetH int) (*image.RGBA, error) {
	intrW, intrH, err := SVGSize(data)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("unable to read svg: %w", err)
	}
	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		icon.ViewBox.W, icon.ViewBox.H = intrW, intrH
	}

	w, h := int(math.Ceil(intrW)), int(math.Ceil(intrH))
	switch {
	case targetW > 0 && targetH > 0:
		w, h = targetW, targetH
	case targetW > 0:
		w = targetW
		h = int(math.Round(float64(w) * intrH / intrW))
	case targetH > 0:
		h = targetH
		w = int(math.Round(float64(h) * intrW / intrH))
	}
	w, h = max(w, 1), max(h, 1)

	// Clamp to maxRasterDim preserving aspect ratio to prevent OOM.
	if w > maxRasterDim || h > maxRasterDim {
		s := min(float64(maxRasterDim)/float64(w), float64(maxRasterDim)/float64(h))
		w = max(int(math.Round(float64(w)*s)), 1)
		h = max(int(math.Round(float64(h)*s)), 1)
	}

	icon.SetTarget(0, 0, float64(w), float64(h))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1.0)
	return dst, nil
}
