package pixeldiff

// maxYIQDelta is the largest possible weighted YIQ distance between two
// pixels (pure white vs pure black). ColorThreshold scales against it.
const maxYIQDelta = 35215.0

// The YIQ weights approximate human luminance sensitivity: green dominates
// brightness perception, blue contributes least.
func rgb2y(r, g, b float64) float64 { return r*0.29889531 + g*0.58662247 + b*0.11448223 }
func rgb2i(r, g, b float64) float64 { return r*0.59597799 - g*0.27417610 - b*0.32180189 }
func rgb2q(r, g, b float64) float64 { return r*0.21147017 - g*0.52261711 + b*0.31114694 }

// blend composites a channel over a white background at the given alpha.
func blend(c, a float64) float64 { return 255 + (c-255)*a }

// colorDelta computes the weighted YIQ color distance between pixel offset i
// of pix1 and offset j of pix2. Semi-transparent pixels are blended over
// white first. With yOnly it returns just the brightness delta. The sign of
// the full delta encodes the lightness relationship: positive means the
// second pixel is lighter.
func colorDelta(pix1, pix2 []uint8, i, j int, yOnly bool) float64 {
	r1 := float64(pix1[i])
	g1 := float64(pix1[i+1])
	b1 := float64(pix1[i+2])
	a1 := float64(pix1[i+3])

	r2 := float64(pix2[j])
	g2 := float64(pix2[j+1])
	b2 := float64(pix2[j+2])
	a2 := float64(pix2[j+3])

	if a1 == a2 && r1 == r2 && g1 == g2 && b1 == b2 {
		return 0
	}

	if a1 < 255 {
		a1 /= 255
		r1 = blend(r1, a1)
		g1 = blend(g1, a1)
		b1 = blend(b1, a1)
	}
	if a2 < 255 {
		a2 /= 255
		r2 = blend(r2, a2)
		g2 = blend(g2, a2)
		b2 = blend(b2, a2)
	}

	y1 := rgb2y(r1, g1, b1)
	y2 := rgb2y(r2, g2, b2)

	if yOnly {
		return y1 - y2
	}

	dy := y1 - y2
	di := rgb2i(r1, g1, b1) - rgb2i(r2, g2, b2)
	dq := rgb2q(r1, g1, b1) - rgb2q(r2, g2, b2)

	delta := 0.5053*dy*dy + 0.299*di*di + 0.1957*dq*dq

	if y1 > y2 {
		return -delta
	}
	return delta
}
