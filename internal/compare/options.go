package compare

import (
	"github.com/cwbudde/pixeldiff/internal/codec"
	"github.com/cwbudde/pixeldiff/internal/imaging"
	"github.com/cwbudde/pixeldiff/internal/pixeldiff"
)

// Options fully enumerates the knobs of a comparison. Defaults are applied
// by DefaultOptions at construction, never at point of use.
type Options struct {
	// ColorThreshold is the perceptual cutoff in [0,1] for a pixel pair to
	// count as differing.
	ColorThreshold float64

	// IncludeAntialiasing counts antialiased pixels as differences.
	IncludeAntialiasing bool

	// UnchangedPixelAlpha fades unchanged pixels in the diff image, [0,1].
	UnchangedPixelAlpha float64

	// DiffColor marks true mismatches in the diff image.
	DiffColor pixeldiff.Color

	// AlternateDiffColor, when set, marks mismatches where the actual pixel
	// is lighter than the base pixel.
	AlternateDiffColor *pixeldiff.Color

	// AntialiasColor marks excluded antialiasing artifacts.
	AntialiasColor pixeldiff.Color

	// DiffMaskOnly renders only the differences on a blank background.
	DiffMaskOnly bool

	// Resize governs dimension reconciliation of mismatched inputs.
	Resize imaging.ResizeSpec

	// OutputFormat is the encoding of the diff image.
	OutputFormat codec.Format

	// OutputQuality is the PNG compression level (0-9) or JPEG/WebP quality
	// (1-100). Negative means the format default.
	OutputQuality int

	// IncludeBounds computes the bounding box of changed pixels.
	IncludeBounds bool

	// IncludeMetadata attaches dimensions, formats and stage timings to the
	// outcome.
	IncludeMetadata bool

	// Threshold is the pass/fail cutoff on the difference percentage,
	// in [0,100]. A difference strictly above it fails.
	Threshold float64
}

// DefaultOptions returns the documented defaults for Compare.
func DefaultOptions() Options {
	return Options{
		ColorThreshold:      0.1,
		UnchangedPixelAlpha: 0.1,
		DiffColor:           pixeldiff.Color{R: 255, G: 0, B: 255},
		AntialiasColor:      pixeldiff.Color{R: 255, G: 255, B: 0},
		Resize: imaging.ResizeSpec{
			Enabled:  true,
			Strategy: imaging.StrategyFill,
		},
		OutputFormat:  codec.FormatPNG,
		OutputQuality: -1,
	}
}

func (o Options) engineOptions() pixeldiff.Options {
	return pixeldiff.Options{
		ColorThreshold:      o.ColorThreshold,
		IncludeAntialiasing: o.IncludeAntialiasing,
		UnchangedPixelAlpha: o.UnchangedPixelAlpha,
		AntialiasColor:      o.AntialiasColor,
		DiffColor:           o.DiffColor,
		AlternateDiffColor:  o.AlternateDiffColor,
		DiffMaskOnly:        o.DiffMaskOnly,
	}
}
