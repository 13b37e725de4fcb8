package engine

import (
	"errors"
	"math"
	"testing"
)

func TestResolveDimensions(t *testing.T) {
	tests := []struct {
		name          string
		original      Dimensions
		requested     *Dimensions
		maintainRatio bool
		want          Dimensions
	}{
		{
			name:     "no request returns original",
			original: Dimensions{4000, 3000},
			want:     Dimensions{4000, 3000},
		},
		{
			name:      "exact request without ratio may distort",
			original:  Dimensions{4000, 3000},
			requested: &Dimensions{800, 800},
			want:      Dimensions{800, 800},
		},
		{
			name:          "fit within box preserving ratio",
			original:      Dimensions{4000, 3000},
			requested:     &Dimensions{200, 200},
			maintainRatio: true,
			want:          Dimensions{200, 150},
		},
		{
			name:          "portrait fit",
			original:      Dimensions{3000, 4000},
			requested:     &Dimensions{200, 200},
			maintainRatio: true,
			want:          Dimensions{150, 200},
		},
		{
			name:          "box equal to original is idempotent",
			original:      Dimensions{1920, 1080},
			requested:     &Dimensions{1920, 1080},
			maintainRatio: true,
			want:          Dimensions{1920, 1080},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveDimensions(tt.original, tt.requested, tt.maintainRatio)
			if err != nil {
				t.Fatalf("ResolveDimensions() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveDimensions() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolveDimensionsErrors(t *testing.T) {
	tests := []struct {
		name      string
		original  Dimensions
		requested *Dimensions
	}{
		{"zero width request", Dimensions{100, 100}, &Dimensions{0, 50}},
		{"negative height request", Dimensions{100, 100}, &Dimensions{50, -1}},
		{"degenerate original", Dimensions{0, 0}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveDimensions(tt.original, tt.requested, true)
			if !errors.Is(err, ErrInvalidDimensions) {
				t.Errorf("expected ErrInvalidDimensions, got %v", err)
			}
		})
	}
}

// With maintain-ratio, the resolved aspect ratio never deviates from the
// original by more than one pixel of rounding on either axis.
func TestResolveDimensionsRatioTolerance(t *testing.T) {
	originals := []Dimensions{
		{4000, 3000}, {3456, 2304}, {1920, 1080}, {640, 481}, {1023, 767},
	}
	boxes := []Dimensions{
		{200, 200}, {333, 333}, {1024, 768}, {150, 97},
	}

	for _, orig := range originals {
		for _, box := range boxes {
			got, err := ResolveDimensions(orig, &box, true)
			if err != nil {
				t.Fatalf("ResolveDimensions(%s, %s) error: %v", orig, box, err)
			}
			if got.Width > box.Width || got.Height > box.Height {
				t.Errorf("ResolveDimensions(%s, %s) = %s exceeds the box", orig, box, got)
			}

			ratio := float64(orig.Width) / float64(orig.Height)
			// Width implied by the resolved height at the original ratio
			// must be within one pixel of the resolved width.
			implied := float64(got.Height) * ratio
			if math.Abs(implied-float64(got.Width)) > 1.0 {
				t.Errorf("ResolveDimensions(%s, %s) = %s deviates from ratio %.4f by more than one pixel",
					orig, box, got, ratio)
			}
		}
	}
}
