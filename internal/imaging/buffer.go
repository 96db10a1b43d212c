package imaging

import (
	"fmt"
	"image"
	"image/draw"
)

// Buffer is a decoded image as interleaved RGBA bytes, row-major, no padding.
// The invariant len(Pix) == Width*Height*4 holds for every Buffer produced by
// this package.
type Buffer struct {
	Pix    []uint8
	Width  int
	Height int
}

// New allocates a zeroed buffer of the given dimensions.
func New(width, height int) *Buffer {
	return &Buffer{
		Pix:    make([]uint8, width*height*4),
		Width:  width,
		Height: height,
	}
}

// FromImage converts any image.Image into a Buffer, forcing an alpha channel.
// Formats without alpha come out fully opaque.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	// Fast path: an NRGBA image with origin bounds and a packed stride is
	// already in the wire layout.
	if n, ok := img.(*image.NRGBA); ok && bounds.Min == (image.Point{}) && n.Stride == width*4 {
		buf := &Buffer{
			Pix:    make([]uint8, len(n.Pix)),
			Width:  width,
			Height: height,
		}
		copy(buf.Pix, n.Pix)
		return buf
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return &Buffer{
		Pix:    dst.Pix,
		Width:  width,
		Height: height,
	}
}

// NRGBA wraps the buffer in an image.NRGBA sharing the same pixel storage.
func (b *Buffer) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// PixOffset returns the byte index of the pixel at (x, y).
func (b *Buffer) PixOffset(x, y int) int {
	return (y*b.Width + x) * 4
}

// Validate checks the dimension and length invariants.
func (b *Buffer) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("zero-area image (%dx%d)", b.Width, b.Height)
	}
	if len(b.Pix) != b.Width*b.Height*4 {
		return fmt.Errorf("pixel buffer length %d does not match %dx%d", len(b.Pix), b.Width, b.Height)
	}
	return nil
}
