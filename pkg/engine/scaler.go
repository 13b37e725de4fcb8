package engine

import (
	"fmt"
	"image"
	"math"
)

// ScaleDimensions applies a uniform scale factor to both axes. The engine
// only ever shrinks, so factors above 1.0 are rejected alongside
// non-positive ones.
func ScaleDimensions(d Dimensions, factor float64) (Dimensions, error) {
	if factor <= 0 || factor > 1 {
		return Dimensions{}, fmt.Errorf("%w: %g", ErrInvalidScale, factor)
	}
	return Dimensions{
		Width:  atLeastOne(math.Round(float64(d.Width) * factor)),
		Height: atLeastOne(math.Round(float64(d.Height) * factor)),
	}, nil
}

// scale resamples img to the given factor of base. The policy lives here;
// the resampling math belongs to the codec adapter.
func (e *Engine) scale(img image.Image, base Dimensions, factor float64) (image.Image, Dimensions, error) {
	dims, err := ScaleDimensions(base, factor)
	if err != nil {
		return nil, Dimensions{}, err
	}
	return e.codec.Resample(img, dims.Width, dims.Height), dims, nil
}
