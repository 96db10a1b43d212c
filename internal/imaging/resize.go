package imaging

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Strategy selects how an image is mapped onto target dimensions.
type Strategy string

const (
	// StrategyFill stretches to the exact target, ignoring aspect ratio.
	StrategyFill Strategy = "fill"
	// StrategyFit scales to fit inside the target, padding with transparency.
	StrategyFit Strategy = "fit"
	// StrategyContain is an alias for fit.
	StrategyContain Strategy = "contain"
	// StrategyCover scales to cover the target, cropping the overflow.
	StrategyCover Strategy = "cover"
)

// Scale resamples a buffer to the given dimensions with CatmullRom
// interpolation, applying the chosen strategy. The alpha channel is preserved.
func Scale(src *Buffer, width, height int, strategy Strategy) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target dimensions %dx%d", width, height)
	}
	if src.Width == width && src.Height == height {
		return src, nil
	}

	srcImg := src.NRGBA()
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))

	switch strategy {
	case StrategyFill, "":
		draw.CatmullRom.Scale(dst, dst.Bounds(), srcImg, srcImg.Bounds(), draw.Src, nil)
	case StrategyFit, StrategyContain:
		w, h := containDimensions(src.Width, src.Height, width, height)
		left := (width - w) / 2
		top := (height - h) / 2
		region := image.Rect(left, top, left+w, top+h)
		draw.CatmullRom.Scale(dst, region, srcImg, srcImg.Bounds(), draw.Src, nil)
	case StrategyCover:
		w, h := coverDimensions(src.Width, src.Height, width, height)
		left := (width - w) / 2
		top := (height - h) / 2
		region := image.Rect(left, top, left+w, top+h)
		draw.CatmullRom.Scale(dst, region, srcImg, srcImg.Bounds(), draw.Src, nil)
	default:
		return nil, fmt.Errorf("unknown resize strategy %q", strategy)
	}

	return &Buffer{Pix: dst.Pix, Width: width, Height: height}, nil
}

// ScaleToFit downscales so that neither dimension exceeds maxDim, preserving
// aspect ratio. It never upscales.
func ScaleToFit(src *Buffer, maxDim int) (*Buffer, error) {
	if src.Width <= maxDim && src.Height <= maxDim {
		return src, nil
	}
	w, h := containDimensions(src.Width, src.Height, maxDim, maxDim)
	return Scale(src, w, h, StrategyFill)
}

func containDimensions(srcW, srcH, maxW, maxH int) (int, int) {
	w := maxW
	h := srcH * maxW / srcW
	if h > maxH {
		h = maxH
		w = srcW * maxH / srcH
	}
	return clampDim(w), clampDim(h)
}

func coverDimensions(srcW, srcH, minW, minH int) (int, int) {
	w := minW
	h := srcH * minW / srcW
	if h < minH {
		h = minH
		w = srcW * minH / srcH
	}
	return clampDim(w), clampDim(h)
}

func clampDim(d int) int {
	if d < 1 {
		return 1
	}
	return d
}
