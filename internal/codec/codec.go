// Package codec decodes encoded image bytes into raw RGBA buffers and
// re-encodes buffers into a chosen output format.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	"github.com/cwbudde/pixeldiff/internal/imaging"
	"golang.org/x/image/bmp"
	xwebp "golang.org/x/image/webp"
)

var (
	// ErrUnknownFormat is returned when the payload matches no supported
	// container signature.
	ErrUnknownFormat = errors.New("unrecognized image format")

	// ErrUnsupportedEncode is returned when a format cannot be produced.
	ErrUnsupportedEncode = errors.New("unsupported output format")
)

// Default encoder settings.
const (
	DefaultPNGCompression = 6  // 0-9
	DefaultQuality        = 90 // 1-100, JPEG and WebP
)

// Decode turns encoded bytes into a raw RGBA buffer. The alpha channel is
// always present; opaque formats decode with alpha 255. GIF decodes its first
// frame. SVG is rasterized at its intrinsic dimensions.
func Decode(data []byte) (*imaging.Buffer, Format, error) {
	format := Detect(data)

	var (
		img image.Image
		err error
	)

	switch format {
	case FormatPNG:
		img, err = png.Decode(bytes.NewReader(data))
	case FormatJPEG:
		img, err = jpeg.Decode(bytes.NewReader(data))
	case FormatGIF:
		img, err = gif.Decode(bytes.NewReader(data))
	case FormatWebP:
		img, err = xwebp.Decode(bytes.NewReader(data))
	case FormatBMP:
		img, err = bmp.Decode(bytes.NewReader(data))
	case FormatSVG:
		img, err = rasterizeSVG(data)
	default:
		return nil, FormatUnknown, ErrUnknownFormat
	}

	if err != nil {
		return nil, format, fmt.Errorf("decode %s: %w", format, err)
	}

	buf := imaging.FromImage(img)
	if err := buf.Validate(); err != nil {
		return nil, format, fmt.Errorf("decode %s: %w", format, err)
	}
	return buf, format, nil
}

// Encode serializes a buffer into the given format. For PNG the setting is a
// compression level (0-9); for JPEG and WebP a quality percentage (1-100).
// GIF and BMP ignore the setting. Pass a negative setting for the default.
func Encode(buf *imaging.Buffer, format Format, setting int) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}

	img := buf.NRGBA()
	var out bytes.Buffer
	var err error

	switch format {
	case FormatPNG:
		if setting < 0 {
			setting = DefaultPNGCompression
		}
		enc := png.Encoder{CompressionLevel: pngLevel(setting)}
		err = enc.Encode(&out, img)
	case FormatJPEG:
		err = jpeg.Encode(&out, img, &jpeg.Options{Quality: quality(setting)})
	case FormatWebP:
		err = webp.Encode(&out, img, &webp.Options{Quality: float32(quality(setting))})
	case FormatGIF:
		err = gif.Encode(&out, img, nil)
	case FormatBMP:
		err = bmp.Encode(&out, img)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncode, format)
	}

	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return out.Bytes(), nil
}

func quality(setting int) int {
	if setting < 1 || setting > 100 {
		return DefaultQuality
	}
	return setting
}

func pngLevel(level int) png.CompressionLevel {
	switch {
	case level <= 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 7:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}
