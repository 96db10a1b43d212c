package budget

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/cwbudde/pixeldiff/internal/codec"
)

// noisePNG encodes an incompressible noise image; random pixels defeat PNG
// filtering, so the payload stays large.
func noisePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestShrinkUnderLimitPassesThrough(t *testing.T) {
	data := noisePNG(t, 16, 16)

	result, err := Shrink(data, len(data)+1)
	if err != nil {
		t.Fatalf("Shrink failed: %v", err)
	}
	if result.Stages != 0 {
		t.Errorf("Expected 0 stages for fitting input, got %d", result.Stages)
	}
	if !bytes.Equal(result.Data, data) {
		t.Error("Fitting input should pass through byte-identical")
	}
	if result.Format != codec.FormatPNG {
		t.Errorf("Expected png format, got %q", result.Format)
	}
}

func TestShrinkNoLimitPassesThrough(t *testing.T) {
	data := noisePNG(t, 8, 8)

	result, err := Shrink(data, 0)
	if err != nil {
		t.Fatalf("Shrink failed: %v", err)
	}
	if result.Stages != 0 || !bytes.Equal(result.Data, data) {
		t.Error("A non-positive limit should disable shrinking")
	}
}

func TestShrinkOversizedNoise(t *testing.T) {
	data := noisePNG(t, 128, 128)
	limit := len(data) / 3

	result, err := Shrink(data, limit)
	if err != nil {
		t.Fatalf("Shrink failed: %v", err)
	}
	if result.Stages == 0 {
		t.Error("Oversized input should run at least one stage")
	}
	if len(result.Data) >= len(data) {
		t.Errorf("Shrink should reduce size: %d -> %d", len(data), len(result.Data))
	}
	// Opaque PNG degrades to JPEG once the lossy stages kick in.
	if result.Stages > 1 && result.Format != codec.FormatJPEG {
		t.Errorf("Expected jpeg after lossy stage, got %q", result.Format)
	}

	// The output must still decode.
	if _, _, err := codec.Decode(result.Data); err != nil {
		t.Errorf("Shrunk payload no longer decodes: %v", err)
	}
}

func TestShrinkBoundedStages(t *testing.T) {
	data := noisePNG(t, 64, 64)

	// A 1-byte limit is unreachable; the ladder must still terminate and
	// hand back its smallest attempt.
	result, err := Shrink(data, 1)
	if err != nil {
		t.Fatalf("Shrink failed: %v", err)
	}
	if result.Stages != 3 {
		t.Errorf("Unreachable limit should exhaust all 3 stages, got %d", result.Stages)
	}
	if len(result.Data) == 0 {
		t.Error("Expected the smallest attempt, not an empty payload")
	}
}

func TestShrinkInvalidInput(t *testing.T) {
	if _, err := Shrink([]byte("not an image, far too long to fit"), 4); err == nil {
		t.Error("Expected a decode error for invalid oversized input")
	}
}

func TestLossyTarget(t *testing.T) {
	cases := []struct {
		format codec.Format
		opaque bool
		want   codec.Format
	}{
		{codec.FormatJPEG, true, codec.FormatJPEG},
		{codec.FormatWebP, false, codec.FormatWebP},
		{codec.FormatPNG, true, codec.FormatJPEG},
		{codec.FormatPNG, false, codec.FormatWebP},
		{codec.FormatGIF, true, codec.FormatJPEG},
	}
	for _, tc := range cases {
		if got := lossyTarget(tc.format, tc.opaque); got != tc.want {
			t.Errorf("lossyTarget(%q, %v) = %q, want %q", tc.format, tc.opaque, got, tc.want)
		}
	}
}
