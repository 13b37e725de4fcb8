package engine

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors for caller/config mistakes, reported before any encode
// work happens.
var (
	ErrInvalidDimensions = errors.New("invalid dimensions")
	ErrInvalidScale      = errors.New("invalid scale factor")
)

// Dimensions is an image size in pixels.
type Dimensions struct {
	Width  int
	Height int
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// ResolveDimensions computes the final target dimensions from the
// original size, an optional request, and the aspect-ratio policy.
//
// With no request the original dimensions come back unchanged. With
// maintainRatio false the request is honored exactly, even if it
// distorts. With maintainRatio true the image is fit within the
// requested box: the smaller of the two axis scales is applied to both
// axes, so neither exceeds the request.
func ResolveDimensions(original Dimensions, requested *Dimensions, maintainRatio bool) (Dimensions, error) {
	if original.Width <= 0 || original.Height <= 0 {
		return Dimensions{}, fmt.Errorf("%w: degenerate original %s", ErrInvalidDimensions, original)
	}
	if requested == nil {
		return original, nil
	}
	if requested.Width <= 0 || requested.Height <= 0 {
		return Dimensions{}, fmt.Errorf("%w: requested %s", ErrInvalidDimensions, *requested)
	}
	if !maintainRatio {
		return *requested, nil
	}

	scale := math.Min(
		float64(requested.Width)/float64(original.Width),
		float64(requested.Height)/float64(original.Height),
	)

	return Dimensions{
		Width:  atLeastOne(math.Round(float64(original.Width) * scale)),
		Height: atLeastOne(math.Round(float64(original.Height) * scale)),
	}, nil
}

func atLeastOne(v float64) int {
	if v < 1 {
		return 1
	}
	return int(v)
}
