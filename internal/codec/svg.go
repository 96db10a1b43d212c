package codec

import (
	"bytes"
	"fmt"
	"image"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// rasterizeSVG renders an SVG document to RGBA at its intrinsic dimensions.
// Documents without explicit width/height fall back to their viewBox extent.
func rasterizeSVG(data []byte) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}

	width := int(icon.ViewBox.W + 0.5)
	height := int(icon.ViewBox.H + 0.5)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("svg has no usable dimensions (%gx%g viewport)", icon.ViewBox.W, icon.ViewBox.H)
	}

	icon.SetTarget(0, 0, float64(width), float64(height))

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(width, height, scanner), 1.0)

	return rgba, nil
}
