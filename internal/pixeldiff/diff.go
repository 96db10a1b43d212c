// Package pixeldiff implements the perceptual pixel-by-pixel comparison of
// two equal-dimension RGBA buffers, with antialiasing detection and a
// composited diff visualization.
package pixeldiff

import (
	"bytes"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/pixeldiff/internal/imaging"
)

// Result holds the output of a diff run.
type Result struct {
	// MismatchCount is the number of true-mismatch pixels, after
	// antialiasing exclusion.
	MismatchCount int

	// AntialiasCount is the number of raw mismatches excluded as
	// antialiasing artifacts.
	AntialiasCount int

	// TotalPixels is width * height.
	TotalPixels int

	// Diff visualizes the comparison. It is nil when MismatchCount is zero.
	Diff *imaging.Buffer

	// Elapsed is the wall time spent comparing.
	Elapsed time.Duration
}

// Percentage returns the share of true-mismatch pixels in [0,100].
func (r *Result) Percentage() float64 {
	if r.TotalPixels == 0 {
		return 0
	}
	return float64(r.MismatchCount) / float64(r.TotalPixels) * 100
}

// Diff compares two equal-dimension buffers pixel by pixel. Rows are
// partitioned across GOMAXPROCS workers; each worker writes only its own
// output rows and keeps local counts that are summed after the join, so the
// result is independent of scheduling.
func Diff(base, actual *imaging.Buffer, opts Options) (*Result, error) {
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("base image: %w", err)
	}
	if err := actual.Validate(); err != nil {
		return nil, fmt.Errorf("actual image: %w", err)
	}
	if base.Width != actual.Width || base.Height != actual.Height {
		return nil, fmt.Errorf("image dimensions must match: base is %dx%d, actual is %dx%d",
			base.Width, base.Height, actual.Width, actual.Height)
	}
	if opts.ColorThreshold < 0 || opts.ColorThreshold > 1 {
		return nil, fmt.Errorf("color threshold %g out of range [0,1]", opts.ColorThreshold)
	}

	start := time.Now()
	total := base.Width * base.Height

	// Byte-identical inputs need no per-pixel work and no diff image.
	if bytes.Equal(base.Pix, actual.Pix) {
		return &Result{TotalPixels: total, Elapsed: time.Since(start)}, nil
	}

	out := imaging.New(base.Width, base.Height)
	maxDelta := maxYIQDelta * opts.ColorThreshold * opts.ColorThreshold

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > base.Height {
		numWorkers = base.Height
	}
	rowsPerWorker := base.Height / numWorkers

	var mismatches, aaPixels int64
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for i := 0; i < numWorkers; i++ {
		startY := i * rowsPerWorker
		endY := startY + rowsPerWorker
		if i == numWorkers-1 {
			endY = base.Height
		}

		go func(startY, endY int) {
			defer wg.Done()
			diff, aa := diffRows(base, actual, out, opts, maxDelta, startY, endY)
			atomic.AddInt64(&mismatches, diff)
			atomic.AddInt64(&aaPixels, aa)
		}(startY, endY)
	}

	wg.Wait()

	result := &Result{
		MismatchCount:  int(mismatches),
		AntialiasCount: int(aaPixels),
		TotalPixels:    total,
		Elapsed:        time.Since(start),
	}
	if result.MismatchCount > 0 {
		result.Diff = out
	}
	return result, nil
}

// diffRows classifies every pixel in [startY, endY) and composites the
// output rows. It returns the partition's true-mismatch and
// antialiasing-excluded counts.
func diffRows(base, actual, out *imaging.Buffer, opts Options, maxDelta float64, startY, endY int) (int64, int64) {
	var mismatches, aaPixels int64

	for y := startY; y < endY; y++ {
		for x := 0; x < base.Width; x++ {
			pos := base.PixOffset(x, y)

			delta := colorDelta(base.Pix, actual.Pix, pos, pos, false)
			if math.Abs(delta) <= maxDelta {
				if !opts.DiffMaskOnly {
					writeFaded(base, out, pos, opts.UnchangedPixelAlpha)
				}
				continue
			}

			if !opts.IncludeAntialiasing &&
				(antialiased(base, x, y, actual) || antialiased(actual, x, y, base)) {
				if !opts.DiffMaskOnly {
					writeColor(out, pos, opts.AntialiasColor)
				}
				aaPixels++
				continue
			}

			c := opts.DiffColor
			if opts.AlternateDiffColor != nil && delta > 0 {
				c = *opts.AlternateDiffColor
			}
			writeColor(out, pos, c)
			mismatches++
		}
	}

	return mismatches, aaPixels
}

// writeColor paints an opaque marker pixel.
func writeColor(out *imaging.Buffer, pos int, c Color) {
	out.Pix[pos] = c.R
	out.Pix[pos+1] = c.G
	out.Pix[pos+2] = c.B
	out.Pix[pos+3] = 255
}

// writeFaded paints the source pixel as a washed-out gray so the unchanged
// region stays recognizable under the diff markers.
func writeFaded(src, out *imaging.Buffer, pos int, alpha float64) {
	r := float64(src.Pix[pos])
	g := float64(src.Pix[pos+1])
	b := float64(src.Pix[pos+2])
	a := float64(src.Pix[pos+3])

	val := blend(rgb2y(r, g, b), alpha*a/255)
	gray := uint8(val)

	out.Pix[pos] = gray
	out.Pix[pos+1] = gray
	out.Pix[pos+2] = gray
	out.Pix[pos+3] = 255
}
