package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/cwbudde/pixeldiff/internal/codec"
	"github.com/cwbudde/pixeldiff/internal/compare"
	"github.com/cwbudde/pixeldiff/internal/imaging"
	"github.com/cwbudde/pixeldiff/internal/pixeldiff"
)

// maxMultipartMemory bounds the in-memory portion of multipart parsing;
// larger parts spill to disk.
const maxMultipartMemory = 8 << 20

type compareRequest struct {
	Base    string          `json:"base"`
	Actual  string          `json:"actual"`
	Options *optionsPayload `json:"options,omitempty"`
}

// optionsPayload mirrors compare.Options with every field optional. Numeric
// fields tolerate JSON strings; they are normalized here at the boundary.
type optionsPayload struct {
	ColorThreshold      *looseFloat    `json:"colorThreshold,omitempty"`
	IncludeAntialiasing *bool          `json:"includeAntialiasing,omitempty"`
	UnchangedPixelAlpha *looseFloat    `json:"unchangedPixelAlpha,omitempty"`
	DiffColor           *[3]uint8      `json:"diffColor,omitempty"`
	AlternateDiffColor  *[3]uint8      `json:"alternateDiffColor,omitempty"`
	AntialiasColor      *[3]uint8      `json:"antialiasColor,omitempty"`
	DiffMaskOnly        *bool          `json:"diffMaskOnly,omitempty"`
	Resize              *resizePayload `json:"resize,omitempty"`
	OutputFormat        string         `json:"outputFormat,omitempty"`
	OutputQuality       *looseFloat    `json:"outputQuality,omitempty"`
	IncludeBounds       *bool          `json:"includeBounds,omitempty"`
	IncludeMetadata     *bool          `json:"includeMetadata,omitempty"`
	Threshold           *looseFloat    `json:"threshold,omitempty"`
}

type resizePayload struct {
	Enabled      *bool       `json:"enabled,omitempty"`
	TargetWidth  *looseFloat `json:"targetWidth,omitempty"`
	TargetHeight *looseFloat `json:"targetHeight,omitempty"`
	Strategy     string      `json:"strategy,omitempty"`
}

// looseFloat accepts both JSON numbers and numeric strings. Mismatch
// percentages and thresholds arrive as either from older clients.
type looseFloat float64

func (f *looseFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return fmt.Errorf("not a numeric value: %q", str)
		}
		*f = looseFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = looseFloat(v)
	return nil
}

func parseJSONRequest(r *http.Request) ([]byte, []byte, compare.Options, error) {
	opts := compare.DefaultOptions()

	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, nil, opts, &compare.Error{
			Kind: compare.KindInvalidInput, Message: "invalid JSON body", Err: err,
		}
	}

	baseBytes, err := decodeSource(req.Base, "base")
	if err != nil {
		return nil, nil, opts, err
	}
	actualBytes, err := decodeSource(req.Actual, "actual")
	if err != nil {
		return nil, nil, opts, err
	}

	if err := applyOptions(&opts, req.Options); err != nil {
		return nil, nil, opts, err
	}
	return baseBytes, actualBytes, opts, nil
}

func parseMultipartRequest(r *http.Request) ([]byte, []byte, compare.Options, error) {
	opts := compare.DefaultOptions()

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, nil, opts, &compare.Error{
			Kind: compare.KindInvalidInput, Message: "invalid multipart form", Err: err,
		}
	}

	baseBytes, err := readFormFile(r, "base")
	if err != nil {
		return nil, nil, opts, err
	}
	actualBytes, err := readFormFile(r, "actual")
	if err != nil {
		return nil, nil, opts, err
	}

	if raw := r.FormValue("options"); raw != "" {
		var payload optionsPayload
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return nil, nil, opts, &compare.Error{
				Kind: compare.KindInvalidInput, Message: "invalid options field", Err: err,
			}
		}
		if err := applyOptions(&opts, &payload); err != nil {
			return nil, nil, opts, err
		}
	}
	return baseBytes, actualBytes, opts, nil
}

func readFormFile(r *http.Request, name string) ([]byte, error) {
	file, _, err := r.FormFile(name)
	if err != nil {
		return nil, &compare.Error{
			Kind:    compare.KindInvalidInput,
			Message: fmt.Sprintf("%s image is missing from the form", name),
			Err:     err,
		}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, &compare.Error{
			Kind:    compare.KindInvalidInput,
			Message: fmt.Sprintf("failed to read %s image upload", name),
			Err:     err,
		}
	}
	return data, nil
}

// decodeSource turns a data URI or bare base64 string into raw bytes. name
// is "base" or "actual" for error messages.
func decodeSource(src, name string) ([]byte, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &compare.Error{
			Kind:    compare.KindInvalidInput,
			Message: fmt.Sprintf("%s image is missing", name),
		}
	}

	payload := src
	if strings.HasPrefix(src, "data:") {
		comma := strings.IndexByte(src, ',')
		if comma < 0 {
			return nil, &compare.Error{
				Kind:    compare.KindInvalidInput,
				Message: fmt.Sprintf("%s image has a malformed data URI", name),
			}
		}
		header := src[:comma]
		payload = src[comma+1:]
		if !strings.HasSuffix(header, ";base64") {
			return nil, &compare.Error{
				Kind:    compare.KindInvalidInput,
				Message: fmt.Sprintf("%s image data URI must be base64 encoded", name),
			}
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if data, err2 := base64.RawStdEncoding.DecodeString(payload); err2 == nil {
			return data, nil
		}
		return nil, &compare.Error{
			Kind:    compare.KindInvalidInput,
			Message: fmt.Sprintf("%s image is not valid base64", name),
			Err:     err,
		}
	}
	return data, nil
}

func applyOptions(opts *compare.Options, payload *optionsPayload) error {
	if payload == nil {
		return nil
	}

	if payload.ColorThreshold != nil {
		opts.ColorThreshold = float64(*payload.ColorThreshold)
	}
	if payload.IncludeAntialiasing != nil {
		opts.IncludeAntialiasing = *payload.IncludeAntialiasing
	}
	if payload.UnchangedPixelAlpha != nil {
		opts.UnchangedPixelAlpha = float64(*payload.UnchangedPixelAlpha)
	}
	if payload.DiffColor != nil {
		opts.DiffColor = toColor(*payload.DiffColor)
	}
	if payload.AlternateDiffColor != nil {
		c := toColor(*payload.AlternateDiffColor)
		opts.AlternateDiffColor = &c
	}
	if payload.AntialiasColor != nil {
		opts.AntialiasColor = toColor(*payload.AntialiasColor)
	}
	if payload.DiffMaskOnly != nil {
		opts.DiffMaskOnly = *payload.DiffMaskOnly
	}
	if payload.Resize != nil {
		if payload.Resize.Enabled != nil {
			opts.Resize.Enabled = *payload.Resize.Enabled
		}
		if payload.Resize.TargetWidth != nil {
			opts.Resize.TargetWidth = int(*payload.Resize.TargetWidth)
		}
		if payload.Resize.TargetHeight != nil {
			opts.Resize.TargetHeight = int(*payload.Resize.TargetHeight)
		}
		if payload.Resize.Strategy != "" {
			opts.Resize.Strategy = imaging.Strategy(payload.Resize.Strategy)
		}
	}
	if payload.OutputFormat != "" {
		format, ok := codec.ParseFormat(payload.OutputFormat)
		if !ok || !format.CanEncode() {
			return &compare.Error{
				Kind:    compare.KindInvalidInput,
				Message: fmt.Sprintf("unsupported output format %q", payload.OutputFormat),
			}
		}
		opts.OutputFormat = format
	}
	if payload.OutputQuality != nil {
		opts.OutputQuality = int(*payload.OutputQuality)
	}
	if payload.IncludeBounds != nil {
		opts.IncludeBounds = *payload.IncludeBounds
	}
	if payload.IncludeMetadata != nil {
		opts.IncludeMetadata = *payload.IncludeMetadata
	}
	if payload.Threshold != nil {
		opts.Threshold = float64(*payload.Threshold)
	}
	return nil
}

func toColor(c [3]uint8) pixeldiff.Color {
	return pixeldiff.Color{R: c[0], G: c[1], B: c[2]}
}
