package pixeldiff

import "github.com/cwbudde/pixeldiff/internal/imaging"

// Box is an inclusive bounding rectangle in pixel coordinates.
type Box struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Width returns the box width in pixels.
func (b Box) Width() int { return b.Right - b.Left + 1 }

// Height returns the box height in pixels.
func (b Box) Height() int { return b.Bottom - b.Top + 1 }

// Bounds scans a diff buffer and returns the minimal rectangle enclosing all
// true-mismatch pixels, identified by the configured diff colors at full
// opacity. It returns nil when no pixel qualifies.
func Bounds(diff *imaging.Buffer, opts Options) *Box {
	var box *Box

	for y := 0; y < diff.Height; y++ {
		for x := 0; x < diff.Width; x++ {
			pos := diff.PixOffset(x, y)
			if !isMarker(diff, pos, opts.DiffColor) &&
				(opts.AlternateDiffColor == nil || !isMarker(diff, pos, *opts.AlternateDiffColor)) {
				continue
			}
			if box == nil {
				box = &Box{Left: x, Top: y, Right: x, Bottom: y}
				continue
			}
			if x < box.Left {
				box.Left = x
			}
			if x > box.Right {
				box.Right = x
			}
			if y > box.Bottom {
				box.Bottom = y
			}
		}
	}

	return box
}

func isMarker(diff *imaging.Buffer, pos int, c Color) bool {
	return diff.Pix[pos] == c.R &&
		diff.Pix[pos+1] == c.G &&
		diff.Pix[pos+2] == c.B &&
		diff.Pix[pos+3] == 255
}
