// Package budget shrinks encoded images under a byte-size ceiling through a
// bounded ladder of quality reduction and downscaling stages.
package budget

import (
	"fmt"

	"github.com/cwbudde/pixeldiff/internal/codec"
	"github.com/cwbudde/pixeldiff/internal/imaging"
)

// Stage ladder settings. The ladder is fixed at three stages so worst-case
// work stays bounded.
const (
	stageOneQuality   = 75
	stageTwoQuality   = 60
	stageThreeQuality = 40

	stageTwoMaxDim   = 2048
	stageThreeMaxDim = 1280
)

// Result describes the outcome of a shrink pass.
type Result struct {
	Data   []byte
	Format codec.Format
	// Stages is the number of ladder stages applied; 0 means the input was
	// already under the ceiling and is returned unchanged.
	Stages int
}

// Shrink reduces an encoded image until it fits under softLimit, applying at
// most three stages: re-encode at reduced quality, downscale and re-encode,
// then downscale harder and re-encode. Inputs already under the limit pass
// through untouched. When all stages are exhausted the smallest attempt is
// returned even if still over the limit; the caller decides whether that is
// fatal.
func Shrink(data []byte, softLimit int) (*Result, error) {
	if softLimit <= 0 || len(data) <= softLimit {
		return &Result{Data: data, Format: codec.Detect(data), Stages: 0}, nil
	}

	buf, format, err := codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}

	lossy := lossyTarget(format, isOpaque(buf))

	// Stage 1: re-encode at a reduced setting. PNG gets its strongest
	// compression level; everything else drops to a lossy encode.
	stageFormat := lossy
	stageSetting := stageOneQuality
	if format == codec.FormatPNG {
		stageFormat = codec.FormatPNG
		stageSetting = 9
	}
	best, bestFormat, err := encodeAttempt(buf, stageFormat, stageSetting, nil, codec.FormatUnknown)
	if err != nil {
		return nil, err
	}
	if len(best) <= softLimit {
		return &Result{Data: best, Format: bestFormat, Stages: 1}, nil
	}

	// Stage 2: cap dimensions and re-encode lossy at a lower quality.
	scaled, err := imaging.ScaleToFit(buf, stageTwoMaxDim)
	if err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	best, bestFormat, err = encodeAttempt(scaled, lossy, stageTwoQuality, best, bestFormat)
	if err != nil {
		return nil, err
	}
	if len(best) <= softLimit {
		return &Result{Data: best, Format: bestFormat, Stages: 2}, nil
	}

	// Stage 3: smaller cap, lower quality still.
	scaled, err = imaging.ScaleToFit(buf, stageThreeMaxDim)
	if err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	best, bestFormat, err = encodeAttempt(scaled, lossy, stageThreeQuality, best, bestFormat)
	if err != nil {
		return nil, err
	}
	return &Result{Data: best, Format: bestFormat, Stages: 3}, nil
}

// encodeAttempt encodes and keeps whichever of the new attempt and the
// previous best is smaller.
func encodeAttempt(buf *imaging.Buffer, format codec.Format, setting int, prev []byte, prevFormat codec.Format) ([]byte, codec.Format, error) {
	out, err := codec.Encode(buf, format, setting)
	if err != nil {
		return nil, codec.FormatUnknown, fmt.Errorf("compress: %w", err)
	}
	if prev != nil && len(prev) < len(out) {
		return prev, prevFormat, nil
	}
	return out, format, nil
}

// lossyTarget picks the lossy format a payload degrades into: its own format
// when already lossy, otherwise JPEG for opaque images and WebP when the
// alpha channel carries information.
func lossyTarget(format codec.Format, opaque bool) codec.Format {
	if format.Lossy() {
		return format
	}
	if opaque {
		return codec.FormatJPEG
	}
	return codec.FormatWebP
}

func isOpaque(buf *imaging.Buffer) bool {
	for i := 3; i < len(buf.Pix); i += 4 {
		if buf.Pix[i] != 255 {
			return false
		}
	}
	return true
}
