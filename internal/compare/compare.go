// Package compare orchestrates a full image comparison: decode, reconcile
// dimensions, diff, bound, encode, verdict.
package compare

import (
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/pixeldiff/internal/budget"
	"github.com/cwbudde/pixeldiff/internal/codec"
	"github.com/cwbudde/pixeldiff/internal/imaging"
	"github.com/cwbudde/pixeldiff/internal/pixeldiff"
)

// State identifies a stage of the comparison pipeline. Done and Failed are
// terminal; a failure in any stage aborts the comparison.
type State string

const (
	StateValidating  State = "validating"
	StateDecoding    State = "decoding"
	StateReconciling State = "reconciling"
	StateDiffing     State = "diffing"
	StateBounding    State = "bounding"
	StateEncoding    State = "encoding"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Status is the pass/fail verdict against the caller-supplied threshold.
type Status string

const (
	StatusPassed Status = "Passed"
	StatusFailed Status = "Failed"
)

// Metadata carries optional diagnostics about a comparison.
type Metadata struct {
	BaseWidth    int          `json:"baseWidth"`
	BaseHeight   int          `json:"baseHeight"`
	ActualWidth  int          `json:"actualWidth"`
	ActualHeight int          `json:"actualHeight"`
	BaseFormat   codec.Format `json:"baseFormat"`
	ActualFormat codec.Format `json:"actualFormat"`
	OutputWidth  int          `json:"outputWidth"`
	OutputHeight int          `json:"outputHeight"`

	MismatchPixels  int `json:"mismatchPixels"`
	AntialiasPixels int `json:"antialiasPixels"`
	TotalPixels     int `json:"totalPixels"`

	// StageMillis maps each executed pipeline state to its duration.
	StageMillis map[State]float64 `json:"stageMillis"`
}

// Outcome is the success record of a comparison.
type Outcome struct {
	DifferencePercentage float64
	Status               Status

	// DiffImage is the encoded diff visualization; nil when the images do
	// not differ. Callers depend on absence, not an all-transparent image.
	DiffImage  []byte
	DiffFormat codec.Format

	BoundingBox *pixeldiff.Box
	Metadata    *Metadata
	Elapsed     time.Duration
}

// Comparator runs comparisons under injected byte-size ceilings. It holds no
// mutable state; one Comparator may serve any number of concurrent
// comparisons.
type Comparator struct {
	// SoftLimit triggers the compression ladder for oversized payloads.
	// Zero disables compression.
	SoftLimit int

	// HardLimit is the transport ceiling. Payloads that stay above it after
	// compression are rejected. Zero disables the check.
	HardLimit int
}

// New creates a Comparator with the given soft and hard byte ceilings.
func New(softLimit, hardLimit int) *Comparator {
	return &Comparator{SoftLimit: softLimit, HardLimit: hardLimit}
}

// Compare decodes both payloads, reconciles dimensions, diffs the pixels and
// assembles the outcome. All failures are terminal and tagged with a Kind.
func (c *Comparator) Compare(baseBytes, actualBytes []byte, opts Options) (*Outcome, error) {
	start := time.Now()
	timings := make(map[State]float64)
	stageStart := start
	mark := func(s State) {
		timings[s] = float64(time.Since(stageStart).Microseconds()) / 1000
		stageStart = time.Now()
	}

	// Validating.
	if err := c.validate(baseBytes, actualBytes, opts); err != nil {
		return nil, err
	}
	mark(StateValidating)

	// Decoding. The two sources are independent; compress and decode them
	// concurrently.
	var (
		baseBuf, actualBuf *imaging.Buffer
		baseFmt, actualFmt codec.Format
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		baseBuf, baseFmt, err = c.ingest(baseBytes, "base")
		return err
	})
	g.Go(func() error {
		var err error
		actualBuf, actualFmt, err = c.ingest(actualBytes, "actual")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	mark(StateDecoding)

	// Reconciling.
	reconciledBase, reconciledActual, err := imaging.Reconcile(baseBuf, actualBuf, opts.Resize)
	if err != nil {
		if errors.Is(err, imaging.ErrDimensionMismatch) {
			return nil, wrapError(KindDimensionMismatch, nil, "%s", err.Error())
		}
		return nil, wrapError(KindResize, err, "failed to reconcile image dimensions")
	}
	mark(StateReconciling)

	// Diffing.
	result, err := pixeldiff.Diff(reconciledBase, reconciledActual, opts.engineOptions())
	if err != nil {
		return nil, wrapError(KindInvalidInput, err, "comparison rejected")
	}
	mark(StateDiffing)

	outcome := &Outcome{
		DifferencePercentage: result.Percentage(),
	}
	outcome.Status = StatusPassed
	if outcome.DifferencePercentage > opts.Threshold {
		outcome.Status = StatusFailed
	}

	// Bounding, only on request and only when something changed.
	if opts.IncludeBounds && result.Diff != nil {
		outcome.BoundingBox = pixeldiff.Bounds(result.Diff, opts.engineOptions())
		mark(StateBounding)
	}

	// Encoding is skipped entirely for identical images.
	if result.Diff != nil {
		data, format, err := c.encodeDiff(result.Diff, opts)
		if err != nil {
			return nil, err
		}
		outcome.DiffImage = data
		outcome.DiffFormat = format
		mark(StateEncoding)
	}

	outcome.Elapsed = time.Since(start)

	if opts.IncludeMetadata {
		outcome.Metadata = &Metadata{
			BaseWidth:       baseBuf.Width,
			BaseHeight:      baseBuf.Height,
			ActualWidth:     actualBuf.Width,
			ActualHeight:    actualBuf.Height,
			BaseFormat:      baseFmt,
			ActualFormat:    actualFmt,
			OutputWidth:     reconciledBase.Width,
			OutputHeight:    reconciledBase.Height,
			MismatchPixels:  result.MismatchCount,
			AntialiasPixels: result.AntialiasCount,
			TotalPixels:     result.TotalPixels,
			StageMillis:     timings,
		}
	}

	slog.Debug("comparison done",
		"difference_pct", outcome.DifferencePercentage,
		"mismatch_pixels", result.MismatchCount,
		"aa_pixels", result.AntialiasCount,
		"status", outcome.Status,
		"elapsed", outcome.Elapsed,
	)

	return outcome, nil
}

func (c *Comparator) validate(baseBytes, actualBytes []byte, opts Options) error {
	if len(baseBytes) == 0 {
		return newError(KindInvalidInput, "base image is missing")
	}
	if len(actualBytes) == 0 {
		return newError(KindInvalidInput, "actual image is missing")
	}
	if opts.Threshold < 0 || opts.Threshold > 100 {
		return newError(KindInvalidInput, "threshold %g out of range [0,100]", opts.Threshold)
	}
	if opts.ColorThreshold < 0 || opts.ColorThreshold > 1 {
		return newError(KindInvalidInput, "color threshold %g out of range [0,1]", opts.ColorThreshold)
	}
	if opts.UnchangedPixelAlpha < 0 || opts.UnchangedPixelAlpha > 1 {
		return newError(KindInvalidInput, "unchanged pixel alpha %g out of range [0,1]", opts.UnchangedPixelAlpha)
	}
	if c.HardLimit > 0 && len(baseBytes)+len(actualBytes) > c.HardLimit {
		return newError(KindPayloadTooLarge,
			"combined payload of %d bytes exceeds the hard limit of %d bytes",
			len(baseBytes)+len(actualBytes), c.HardLimit)
	}
	return nil
}

// ingest compresses an oversized payload under the soft ceiling and decodes
// it. name is "base" or "actual" and appears in every failure message.
func (c *Comparator) ingest(data []byte, name string) (*imaging.Buffer, codec.Format, error) {
	if c.SoftLimit > 0 && len(data) > c.SoftLimit {
		shrunk, err := budget.Shrink(data, c.SoftLimit)
		if err != nil {
			return nil, codec.FormatUnknown, wrapError(KindDecode, err, "failed to compress %s image", name)
		}
		if c.HardLimit > 0 && len(shrunk.Data) > c.HardLimit {
			return nil, codec.FormatUnknown, newError(KindPayloadTooLarge,
				"%s image is still %d bytes after compression, above the hard limit of %d bytes",
				name, len(shrunk.Data), c.HardLimit)
		}
		data = shrunk.Data
	}

	buf, format, err := codec.Decode(data)
	if err != nil {
		if format == codec.FormatUnknown {
			return nil, format, wrapError(KindDecode, err, "%s image is not a recognized format", name)
		}
		return nil, format, wrapError(KindDecode, err, "failed to decode %s image as %s", name, format)
	}
	return buf, format, nil
}

// encodeDiff serializes the diff buffer and squeezes it under the ceilings.
func (c *Comparator) encodeDiff(diff *imaging.Buffer, opts Options) ([]byte, codec.Format, error) {
	data, err := codec.Encode(diff, opts.OutputFormat, opts.OutputQuality)
	if err != nil {
		return nil, codec.FormatUnknown, wrapError(KindEncode, err, "failed to encode diff image")
	}
	format := opts.OutputFormat

	if c.SoftLimit > 0 && len(data) > c.SoftLimit {
		shrunk, err := budget.Shrink(data, c.SoftLimit)
		if err != nil {
			return nil, codec.FormatUnknown, wrapError(KindEncode, err, "failed to compress diff image")
		}
		data = shrunk.Data
		format = shrunk.Format
	}
	if c.HardLimit > 0 && len(data) > c.HardLimit {
		return nil, codec.FormatUnknown, newError(KindPayloadTooLarge,
			"diff image is still %d bytes after compression, above the hard limit of %d bytes",
			len(data), c.HardLimit)
	}
	return data, format, nil
}
