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
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/bmp"
)

// Sentinel errors for the codec boundary. Callers classify job failures
// with errors.Is against these.
var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrDecode            = errors.New("decode failed")
	ErrEncode            = errors.New("encode failed")
)

// Format identifies a supported image format.
type Format int

const (
	JPEG Format = iota
	PNG
	GIF
	BMP
	WebP
)

func (f Format) String() string {
	switch f {
	case JPEG:
		return "JPEG"
	case PNG:
		return "PNG"
	case GIF:
		return "GIF"
	case BMP:
		return "BMP"
	case WebP:
		return "WebP"
	default:
		return "unknown"
	}
}

// HasQuality reports whether the format exposes a lossy quality parameter.
// WebP counts because it is re-encoded through the JPEG path.
func (f Format) HasQuality() bool {
	return f == JPEG || f == WebP
}

// CompressionLevel is the size/effort axis for formats without a quality
// parameter (PNG). Levels are ordered from least to most compression.
type CompressionLevel int

const (
	CompressionFast CompressionLevel = iota
	CompressionDefault
	CompressionSmallest
)

func (c CompressionLevel) String() string {
	switch c {
	case CompressionFast:
		return "fast"
	case CompressionSmallest:
		return "smallest"
	default:
		return "default"
	}
}

// CompressionLevels returns the scan order for the PNG compression axis,
// lowest effort first.
func CompressionLevels() []CompressionLevel {
	return []CompressionLevel{CompressionFast, CompressionDefault, CompressionSmallest}
}

func (c CompressionLevel) pngLevel() png.CompressionLevel {
	switch c {
	case CompressionFast:
		return png.BestSpeed
	case CompressionSmallest:
		return png.BestCompression
	default:
		return png.DefaultCompression
	}
}

// EncodeOptions carries the per-attempt encoder settings. Quality applies
// to JPEG and WebP, Compression to PNG; GIF and BMP ignore both.
type EncodeOptions struct {
	Quality     int
	Compression CompressionLevel
}

// Detect sniffs the image format from the leading bytes of data.
func Detect(data []byte) (Format, error) {
	mime := mimetype.Detect(data)
	switch {
	case mime.Is("image/jpeg"):
		return JPEG, nil
	case mime.Is("image/png"):
		return PNG, nil
	case mime.Is("image/gif"):
		return GIF, nil
	case mime.Is("image/bmp"):
		return BMP, nil
	case mime.Is("image/webp"):
		return WebP, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mime.String())
	}
}

// Adapter provides the decode, encode and resample primitives the engine
// drives. It is stateless and safe for concurrent use across jobs.
type Adapter struct{}

// NewAdapter creates a new codec adapter.
func NewAdapter() *Adapter {
	return &Adapter{}
}

// Decode decodes raw image bytes into a pixel buffer and its detected
// format. WebP goes through its own decoder; everything else through the
// standard library registry.
func (a *Adapter) Decode(data []byte) (image.Image, Format, error) {
	format, err := Detect(data)
	if err != nil {
		return nil, 0, err
	}

	var img image.Image
	switch format {
	case WebP:
		img, err = webp.Decode(bytes.NewReader(data))
	case BMP:
		img, err = bmp.Decode(bytes.NewReader(data))
	default:
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %v", ErrDecode, format, err)
	}

	return img, format, nil
}

// Encode encodes a pixel buffer in the given format. WebP output is
// produced by the JPEG encoder; only WebP decoding is native.
func (a *Adapter) Encode(img image.Image, format Format, opts EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case JPEG, WebP:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: opts.Quality})
	case PNG:
		encoder := png.Encoder{CompressionLevel: opts.Compression.pngLevel()}
		err = encoder.Encode(&buf, img)
	case GIF:
		err = gif.Encode(&buf, img, &gif.Options{NumColors: 256})
	case BMP:
		err = bmp.Encode(&buf, img)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEncode, format, err)
	}

	return buf.Bytes(), nil
}

// Resample produces a new pixel buffer at the requested dimensions using
// Lanczos resampling.
func (a *Adapter) Resample(img image.Image, width, height int) image.Image {
	return imaging.Resize(img, width, height, imaging.Lanczos)
}
