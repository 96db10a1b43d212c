package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/cwbudde/pixeldiff/internal/compare"
	"github.com/cwbudde/pixeldiff/internal/pixeldiff"
)

// compareResponse is the success record returned to clients. Percentages are
// rounded here, at presentation, never inside the core.
type compareResponse struct {
	DifferencePercentage float64           `json:"differencePercentage"`
	Status               compare.Status    `json:"status"`
	DiffImage            string            `json:"diffImage,omitempty"`
	DiffFormat           string            `json:"diffFormat,omitempty"`
	BoundingBox          *boundingBox      `json:"boundingBox,omitempty"`
	Metadata             *compare.Metadata `json:"metadata,omitempty"`
	ProcessingTimeMs     float64           `json:"processingTimeMs"`
}

type boundingBox struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(s.startTime).Seconds(),
	})
}

// handleCompare handles POST /api/v1/compare. It accepts multipart uploads
// (file fields "base" and "actual", optional JSON field "options") or a JSON
// body with base64 or data-URI encoded sources.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Cap the body well before the comparator sees it. Base64 and multipart
	// framing inflate payloads, so allow slack over the hard ceiling.
	if s.comparator.HardLimit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, int64(s.comparator.HardLimit)*3)
	}

	var (
		baseBytes, actualBytes []byte
		opts                   compare.Options
		err                    error
	)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		baseBytes, actualBytes, opts, err = parseMultipartRequest(r)
	} else {
		baseBytes, actualBytes, opts, err = parseJSONRequest(r)
	}
	if err != nil {
		writeComparisonError(w, err)
		return
	}

	outcome, err := s.comparator.Compare(baseBytes, actualBytes, opts)
	if err != nil {
		writeComparisonError(w, err)
		return
	}

	resp := compareResponse{
		DifferencePercentage: roundPercent(outcome.DifferencePercentage),
		Status:               outcome.Status,
		Metadata:             outcome.Metadata,
		ProcessingTimeMs:     float64(outcome.Elapsed.Microseconds()) / 1000,
	}
	if outcome.DiffImage != nil {
		resp.DiffImage = base64.StdEncoding.EncodeToString(outcome.DiffImage)
		resp.DiffFormat = string(outcome.DiffFormat)
	}
	if outcome.BoundingBox != nil {
		resp.BoundingBox = toBoundingBox(outcome.BoundingBox)
	}

	writeJSON(w, http.StatusOK, resp)
}

func toBoundingBox(b *pixeldiff.Box) *boundingBox {
	return &boundingBox{
		Left:   b.Left,
		Top:    b.Top,
		Right:  b.Right,
		Bottom: b.Bottom,
		Width:  b.Width(),
		Height: b.Height(),
	}
}

func roundPercent(p float64) float64 {
	return math.Round(p*100) / 100
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeComparisonError maps failure kinds to transport status codes.
func writeComparisonError(w http.ResponseWriter, err error) {
	kind := compare.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case compare.KindInvalidInput, compare.KindDecode, compare.KindDimensionMismatch:
		status = http.StatusBadRequest
	case compare.KindPayloadTooLarge:
		status = http.StatusRequestEntityTooLarge
	}

	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		status = http.StatusRequestEntityTooLarge
		kind = compare.KindPayloadTooLarge
	}

	writeJSON(w, status, errorResponse{
		Error:   string(kind),
		Message: err.Error(),
	})
}
