package imaging

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch is returned when two images differ in size and
// resizing is disabled.
var ErrDimensionMismatch = errors.New("image dimensions do not match")

// ResizeSpec governs how mismatched dimensions are reconciled.
type ResizeSpec struct {
	Enabled      bool
	TargetWidth  int
	TargetHeight int
	Strategy     Strategy
}

// Reconcile brings two buffers to identical dimensions. Matching inputs pass
// through unchanged. Mismatched inputs fail with ErrDimensionMismatch unless
// resizing is enabled, in which case both are independently resampled to the
// target size (element-wise maximum of the two unless overridden).
func Reconcile(base, actual *Buffer, spec ResizeSpec) (*Buffer, *Buffer, error) {
	sameSize := base.Width == actual.Width && base.Height == actual.Height
	explicitTarget := spec.TargetWidth > 0 && spec.TargetHeight > 0

	if sameSize && (!explicitTarget || !spec.Enabled) {
		return base, actual, nil
	}

	if !spec.Enabled {
		return nil, nil, fmt.Errorf("%w: base is %dx%d, actual is %dx%d",
			ErrDimensionMismatch, base.Width, base.Height, actual.Width, actual.Height)
	}

	targetW := spec.TargetWidth
	targetH := spec.TargetHeight
	if !explicitTarget {
		targetW = maxInt(base.Width, actual.Width)
		targetH = maxInt(base.Height, actual.Height)
	}

	scaledBase, err := Scale(base, targetW, targetH, spec.Strategy)
	if err != nil {
		return nil, nil, fmt.Errorf("resize base image: %w", err)
	}
	scaledActual, err := Scale(actual, targetW, targetH, spec.Strategy)
	if err != nil {
		return nil, nil, fmt.Errorf("resize actual image: %w", err)
	}

	return scaledBase, scaledActual, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
