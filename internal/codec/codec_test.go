package codec

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/cwbudde/pixeldiff/internal/imaging"
)

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 37),
				G: uint8(y * 53),
				B: uint8((x + y) * 11),
				A: 255,
			})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestDetect(t *testing.T) {
	img := testImage(4, 4)

	var jpegBuf bytes.Buffer
	if err := jpeg.Encode(&jpegBuf, img, nil); err != nil {
		t.Fatalf("jpeg encode: %v", err)
	}

	cases := []struct {
		name string
		data []byte
		want Format
	}{
		{"png", encodePNG(t, img), FormatPNG},
		{"jpeg", jpegBuf.Bytes(), FormatJPEG},
		{"gif", []byte("GIF89a\x01\x00\x01\x00"), FormatGIF},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), FormatWebP},
		{"bmp", []byte("BM\x00\x00"), FormatBMP},
		{"svg", []byte(`<?xml version="1.0"?><svg width="2" height="2"></svg>`), FormatSVG},
		{"garbage", []byte{0x00, 0x01, 0x02, 0x03}, FormatUnknown},
		{"empty", nil, FormatUnknown},
	}

	for _, tc := range cases {
		if got := Detect(tc.data); got != tc.want {
			t.Errorf("%s: Detect = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestDecodePNG(t *testing.T) {
	data := encodePNG(t, testImage(5, 3))

	buf, format, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if format != FormatPNG {
		t.Errorf("Expected png format, got %q", format)
	}
	if buf.Width != 5 || buf.Height != 3 {
		t.Errorf("Expected 5x3, got %dx%d", buf.Width, buf.Height)
	}
	if len(buf.Pix) != 5*3*4 {
		t.Errorf("Buffer length %d violates the RGBA invariant", len(buf.Pix))
	}
}

func TestDecodeUnknownFormat(t *testing.T) {
	_, _, err := Decode([]byte("definitely not an image"))
	if err == nil {
		t.Fatal("Expected an error for unrecognized bytes")
	}
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat, got %v", err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	data := encodePNG(t, testImage(16, 16))

	_, format, err := Decode(data[:20])
	if err == nil {
		t.Fatal("Expected an error for truncated bytes")
	}
	if format != FormatPNG {
		t.Errorf("Truncated PNG should still be detected as png, got %q", format)
	}
	if !strings.Contains(err.Error(), "png") {
		t.Errorf("Error should name the detected format: %v", err)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := imaging.FromImage(testImage(6, 4))

	for _, format := range []Format{FormatPNG, FormatBMP} {
		data, err := Encode(src, format, -1)
		if err != nil {
			t.Fatalf("Encode %s failed: %v", format, err)
		}

		decoded, got, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode %s failed: %v", format, err)
		}
		if got != format {
			t.Errorf("Round trip detected %q, want %q", got, format)
		}
		if decoded.Width != src.Width || decoded.Height != src.Height {
			t.Errorf("%s: dimensions changed: %dx%d", format, decoded.Width, decoded.Height)
		}
		// Lossless formats preserve pixels exactly.
		if !bytes.Equal(decoded.Pix, src.Pix) {
			t.Errorf("%s: pixel data changed in a lossless round trip", format)
		}
	}
}

func TestEncodeJPEGQuality(t *testing.T) {
	src := imaging.FromImage(testImage(64, 64))

	high, err := Encode(src, FormatJPEG, 95)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	low, err := Encode(src, FormatJPEG, 10)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(low) >= len(high) {
		t.Errorf("Lower quality should produce fewer bytes: %d vs %d", len(low), len(high))
	}
}

func TestEncodeDeterministic(t *testing.T) {
	src := imaging.FromImage(testImage(8, 8))

	first, err := Encode(src, FormatPNG, 6)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	second, err := Encode(src, FormatPNG, 6)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("Identical input and settings should encode identically")
	}
}

func TestEncodeDecodeWebP(t *testing.T) {
	// Solid color: a lossy codec reproduces it almost exactly, so the
	// tolerance below only absorbs colorspace conversion error.
	src := imaging.New(16, 12)
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = 80, 160, 240, 255
	}

	data, err := Encode(src, FormatWebP, 90)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if Detect(data) != FormatWebP {
		t.Fatal("Encoded payload does not carry the WebP signature")
	}

	decoded, format, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if format != FormatWebP {
		t.Errorf("Expected webp format, got %q", format)
	}
	if decoded.Width != 16 || decoded.Height != 12 {
		t.Errorf("Dimensions changed: %dx%d", decoded.Width, decoded.Height)
	}

	// Lossy round trip: pixels drift but stay close at high quality.
	for i := 0; i < len(decoded.Pix); i++ {
		want := int(src.Pix[i])
		got := int(decoded.Pix[i])
		if got-want > 16 || want-got > 16 {
			t.Fatalf("Pixel byte %d drifted too far: %d vs %d", i, got, want)
		}
	}
}

func TestEncodeDecodeGIF(t *testing.T) {
	// Black and white survive GIF palette quantization exactly.
	src := imaging.New(6, 4)
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = 255, 255, 255, 255
	}
	pos := src.PixOffset(2, 1)
	src.Pix[pos], src.Pix[pos+1], src.Pix[pos+2] = 0, 0, 0

	data, err := Encode(src, FormatGIF, -1)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, format, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if format != FormatGIF {
		t.Errorf("Expected gif format, got %q", format)
	}
	if decoded.Width != 6 || decoded.Height != 4 {
		t.Errorf("Dimensions changed: %dx%d", decoded.Width, decoded.Height)
	}
	p := decoded.PixOffset(2, 1)
	if decoded.Pix[p] != 0 || decoded.Pix[p+1] != 0 || decoded.Pix[p+2] != 0 || decoded.Pix[p+3] != 255 {
		t.Errorf("Black pixel lost in the palette round trip: %v", decoded.Pix[p:p+4])
	}
	corner := decoded.PixOffset(0, 0)
	if decoded.Pix[corner] != 255 || decoded.Pix[corner+3] != 255 {
		t.Errorf("White background lost in the palette round trip: %v", decoded.Pix[corner:corner+4])
	}
}

func TestEncodeUnsupportedFormat(t *testing.T) {
	src := imaging.FromImage(testImage(2, 2))

	if _, err := Encode(src, FormatSVG, -1); !errors.Is(err, ErrUnsupportedEncode) {
		t.Errorf("Expected ErrUnsupportedEncode for svg output, got %v", err)
	}
}

func TestDecodeSVG(t *testing.T) {
	svg := `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="8">
		<rect x="0" y="0" width="10" height="8" fill="#ff0000"/>
	</svg>`

	buf, format, err := Decode([]byte(svg))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if format != FormatSVG {
		t.Errorf("Expected svg format, got %q", format)
	}
	if buf.Width != 10 || buf.Height != 8 {
		t.Errorf("Expected intrinsic 10x8, got %dx%d", buf.Width, buf.Height)
	}

	// The rect fills the canvas with red.
	pos := buf.PixOffset(5, 4)
	if buf.Pix[pos] < 200 || buf.Pix[pos+1] > 50 {
		t.Errorf("Expected red fill at center, got %v", buf.Pix[pos:pos+4])
	}
}

func TestDecodeSVGNoDimensions(t *testing.T) {
	svg := `<svg xmlns="http://www.w3.org/2000/svg"></svg>`
	if _, _, err := Decode([]byte(svg)); err == nil {
		t.Error("Expected an error for an SVG without usable dimensions")
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"png":  FormatPNG,
		"jpg":  FormatJPEG,
		"jpeg": FormatJPEG,
		"webp": FormatWebP,
		"bmp":  FormatBMP,
		"gif":  FormatGIF,
	}
	for name, want := range cases {
		got, ok := ParseFormat(name)
		if !ok || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", name, got, ok)
		}
	}
	if _, ok := ParseFormat("tiff"); ok {
		t.Error("ParseFormat should reject unsupported names")
	}
}

func TestCanEncode(t *testing.T) {
	for _, f := range []Format{FormatPNG, FormatJPEG, FormatGIF, FormatWebP, FormatBMP} {
		if !f.CanEncode() {
			t.Errorf("%s should be encodable", f)
		}
	}
	for _, f := range []Format{FormatSVG, FormatUnknown} {
		if f.CanEncode() {
			t.Errorf("%s should not be encodable", f)
		}
	}
}
