package codec

import "bytes"

// Format identifies an image container format.
type Format string

const (
	FormatUnknown Format = ""
	FormatPNG     Format = "png"
	FormatJPEG    Format = "jpeg"
	FormatGIF     Format = "gif"
	FormatWebP    Format = "webp"
	FormatBMP     Format = "bmp"
	FormatSVG     Format = "svg"
)

var (
	pngSignature  = [...]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	riffSignature = [...]byte{'R', 'I', 'F', 'F'}
	webpSignature = [...]byte{'W', 'E', 'B', 'P'}
)

// Detect identifies the format of encoded image bytes by their magic bytes.
// SVG, having no binary signature, is recognized by its document prolog.
func Detect(data []byte) Format {
	if len(data) < 2 {
		return FormatUnknown
	}

	// JPEG: FF D8 FF
	if len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return FormatJPEG
	}

	if bytes.HasPrefix(data, pngSignature[:]) {
		return FormatPNG
	}

	// GIF87a or GIF89a
	if len(data) >= 6 && data[0] == 'G' && data[1] == 'I' && data[2] == 'F' &&
		data[3] == '8' && (data[4] == '7' || data[4] == '9') && data[5] == 'a' {
		return FormatGIF
	}

	if len(data) >= 12 && bytes.HasPrefix(data, riffSignature[:]) &&
		bytes.Equal(data[8:12], webpSignature[:]) {
		return FormatWebP
	}

	// BMP: "BM"
	if data[0] == 'B' && data[1] == 'M' {
		return FormatBMP
	}

	if looksLikeSVG(data) {
		return FormatSVG
	}

	return FormatUnknown
}

// looksLikeSVG scans the head of the payload for an <svg root element,
// skipping any XML declaration, comments, and whitespace.
func looksLikeSVG(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	// Tolerate a UTF-8 BOM.
	head = bytes.TrimPrefix(head, []byte{0xEF, 0xBB, 0xBF})
	return bytes.Contains(head, []byte("<svg"))
}

// Lossy reports whether the format takes a quality percentage rather than a
// compression level.
func (f Format) Lossy() bool {
	return f == FormatJPEG || f == FormatWebP
}

// CanEncode reports whether Encode can produce the format. SVG is decode-only.
func (f Format) CanEncode() bool {
	switch f {
	case FormatPNG, FormatJPEG, FormatGIF, FormatWebP, FormatBMP:
		return true
	default:
		return false
	}
}

// MIME returns the media type for the format.
func (f Format) MIME() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatJPEG:
		return "image/jpeg"
	case FormatGIF:
		return "image/gif"
	case FormatWebP:
		return "image/webp"
	case FormatBMP:
		return "image/bmp"
	case FormatSVG:
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}

// ParseFormat maps a user-supplied format name to a Format.
func ParseFormat(name string) (Format, bool) {
	switch name {
	case "png":
		return FormatPNG, true
	case "jpeg", "jpg":
		return FormatJPEG, true
	case "gif":
		return FormatGIF, true
	case "webp":
		return FormatWebP, true
	case "bmp":
		return FormatBMP, true
	case "svg":
		return FormatSVG, true
	default:
		return FormatUnknown, false
	}
}
