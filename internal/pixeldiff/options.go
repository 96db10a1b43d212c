package pixeldiff

// Color is an opaque RGB triple used for diff visualization.
type Color struct {
	R, G, B uint8
}

// Options configures a single diff run. The zero value is not useful; start
// from DefaultOptions. Options are read-only during execution.
type Options struct {
	// ColorThreshold is the perceptual color-distance cutoff in [0,1].
	// Smaller values make the comparison more sensitive.
	ColorThreshold float64

	// IncludeAntialiasing counts antialiased pixels as real differences
	// instead of excluding them.
	IncludeAntialiasing bool

	// UnchangedPixelAlpha fades unchanged pixels in the output, in [0,1].
	UnchangedPixelAlpha float64

	// AntialiasColor marks pixels excluded as antialiasing artifacts.
	AntialiasColor Color

	// DiffColor marks true mismatches.
	DiffColor Color

	// AlternateDiffColor, when set, marks mismatches where the actual pixel
	// is perceptually lighter than the base pixel.
	AlternateDiffColor *Color

	// DiffMaskOnly renders differences on a transparent background instead
	// of overlaying the faded base image.
	DiffMaskOnly bool
}

// DefaultOptions returns the standard comparison settings.
func DefaultOptions() Options {
	return Options{
		ColorThreshold:      0.1,
		UnchangedPixelAlpha: 0.1,
		AntialiasColor:      Color{R: 255, G: 255, B: 0},
		DiffColor:           Color{R: 255, G: 0, B: 255},
	}
}
