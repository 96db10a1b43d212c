package pixeldiff

import "github.com/cwbudde/pixeldiff/internal/imaging"

// antialiased reports whether the pixel at (x, y) of img looks like part of
// a smoothed edge rather than a genuine change. It inspects the 3x3
// neighborhood: an antialiased pixel sits on a brightness gradient between a
// darkest and a brightest neighbor, and that extremum neighbor belongs to a
// flat color region in both images. More than two identical neighbors means
// the pixel is inside a flat region itself and cannot be edge smoothing.
func antialiased(img *imaging.Buffer, x, y int, pair *imaging.Buffer) bool {
	x0 := maxInt(x-1, 0)
	y0 := maxInt(y-1, 0)
	x1 := minInt(x+1, img.Width-1)
	y1 := minInt(y+1, img.Height-1)

	// Missing neighbors on the border count as identical.
	zeroes := 0
	if x == x0 || x == x1 || y == y0 || y == y1 {
		zeroes = 1
	}

	pos := img.PixOffset(x, y)

	var minDelta, maxDelta float64
	var minX, minY, maxX, maxY int

	for ny := y0; ny <= y1; ny++ {
		for nx := x0; nx <= x1; nx++ {
			if nx == x && ny == y {
				continue
			}

			delta := colorDelta(img.Pix, img.Pix, pos, img.PixOffset(nx, ny), true)

			switch {
			case delta == 0:
				zeroes++
				if zeroes > 2 {
					return false
				}
			case delta < minDelta:
				minDelta = delta
				minX, minY = nx, ny
			case delta > maxDelta:
				maxDelta = delta
				maxX, maxY = nx, ny
			}
		}
	}

	// No darker or no brighter neighbor: not a gradient.
	if minDelta == 0 || maxDelta == 0 {
		return false
	}

	// The extremum must anchor a flat region in both images, otherwise the
	// area was actually displaced or recolored.
	return (hasManySiblings(img, minX, minY) && hasManySiblings(pair, minX, minY)) ||
		(hasManySiblings(img, maxX, maxY) && hasManySiblings(pair, maxX, maxY))
}

// hasManySiblings reports whether more than two of the 3x3 neighbors of
// (x, y) have exactly the pixel's color.
func hasManySiblings(img *imaging.Buffer, x, y int) bool {
	x0 := maxInt(x-1, 0)
	y0 := maxInt(y-1, 0)
	x1 := minInt(x+1, img.Width-1)
	y1 := minInt(y+1, img.Height-1)

	zeroes := 0
	if x == x0 || x == x1 || y == y0 || y == y1 {
		zeroes = 1
	}

	pos := img.PixOffset(x, y)

	for ny := y0; ny <= y1; ny++ {
		for nx := x0; nx <= x1; nx++ {
			if nx == x && ny == y {
				continue
			}
			off := img.PixOffset(nx, ny)
			if img.Pix[pos] == img.Pix[off] &&
				img.Pix[pos+1] == img.Pix[off+1] &&
				img.Pix[pos+2] == img.Pix[off+2] &&
				img.Pix[pos+3] == img.Pix[off+3] {
				zeroes++
			}
			if zeroes > 2 {
				return true
			}
		}
	}

	return false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
