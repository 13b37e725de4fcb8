package engine

import (
	"image"
	"testing"

	"shrinkray/pkg/codec"
)

// stubCodec produces deterministic "encodes" whose byte length is
// computed from the pixel count and encoder settings, so search behavior
// can be asserted without a real codec.
type stubCodec struct {
	encodes int
	minSize int64
	sizeFor func(w, h int, format codec.Format, opts codec.EncodeOptions) int
}

func (s *stubCodec) Encode(img image.Image, format codec.Format, opts codec.EncodeOptions) ([]byte, error) {
	s.encodes++
	b := img.Bounds()
	n := s.sizeFor(b.Dx(), b.Dy(), format, opts)
	if s.minSize == 0 || int64(n) < s.minSize {
		s.minSize = int64(n)
	}
	return make([]byte, n), nil
}

func (s *stubCodec) Resample(img image.Image, width, height int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

func testImage(w, h int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func TestQualitySearchReturnsFirstFit(t *testing.T) {
	stub := &stubCodec{
		sizeFor: func(w, h int, f codec.Format, opts codec.EncodeOptions) int {
			return opts.Quality * 100
		},
	}
	e := New(stub, DefaultConfig())

	cand, err := e.qualitySearch(testImage(100, 100), codec.JPEG, 6000, 1.0, Dimensions{100, 100})
	if err != nil {
		t.Fatalf("qualitySearch() error: %v", err)
	}

	if cand.Quality != 60 {
		t.Errorf("expected first fit at quality 60, got %d", cand.Quality)
	}
	if cand.Size != 6000 {
		t.Errorf("expected size 6000, got %d", cand.Size)
	}
	// 95, 90, 85, 80, 75, 70, 65, 60 — the scan stops at the first fit.
	if stub.encodes != 8 {
		t.Errorf("expected 8 encodes, got %d", stub.encodes)
	}
}

func TestQualitySearchBestEffortWhenNothingFits(t *testing.T) {
	stub := &stubCodec{
		sizeFor: func(w, h int, f codec.Format, opts codec.EncodeOptions) int {
			return opts.Quality * 100
		},
	}
	e := New(stub, DefaultConfig())

	cand, err := e.qualitySearch(testImage(100, 100), codec.JPEG, 500, 1.0, Dimensions{100, 100})
	if err != nil {
		t.Fatalf("qualitySearch() error: %v", err)
	}

	if cand == nil {
		t.Fatal("expected a best-effort candidate, got nil")
	}
	if cand.Quality != 20 {
		t.Errorf("expected smallest candidate at quality 20, got %d", cand.Quality)
	}
	if cand.Size != 2000 {
		t.Errorf("expected size 2000, got %d", cand.Size)
	}
	if stub.encodes != 16 {
		t.Errorf("expected the full 16-step scan, got %d encodes", stub.encodes)
	}
}

func TestQualitySearchScansPNGCompressionAxis(t *testing.T) {
	sizes := map[codec.CompressionLevel]int{
		codec.CompressionFast:     300,
		codec.CompressionDefault:  200,
		codec.CompressionSmallest: 100,
	}
	stub := &stubCodec{
		sizeFor: func(w, h int, f codec.Format, opts codec.EncodeOptions) int {
			return sizes[opts.Compression]
		},
	}
	e := New(stub, DefaultConfig())

	cand, err := e.qualitySearch(testImage(50, 50), codec.PNG, 150, 1.0, Dimensions{50, 50})
	if err != nil {
		t.Fatalf("qualitySearch() error: %v", err)
	}

	if cand.Size != 100 {
		t.Errorf("expected the smallest-compression candidate (100 bytes), got %d", cand.Size)
	}
	if cand.Quality != 0 {
		t.Errorf("PNG candidates carry no quality value, got %d", cand.Quality)
	}
	if stub.encodes != 3 {
		t.Errorf("expected 3 encodes along the compression axis, got %d", stub.encodes)
	}
}

func TestQualitySearchSingleAttemptForGIF(t *testing.T) {
	stub := &stubCodec{
		sizeFor: func(w, h int, f codec.Format, opts codec.EncodeOptions) int {
			return 4242
		},
	}
	e := New(stub, DefaultConfig())

	cand, err := e.qualitySearch(testImage(50, 50), codec.GIF, 1, 1.0, Dimensions{50, 50})
	if err != nil {
		t.Fatalf("qualitySearch() error: %v", err)
	}

	if stub.encodes != 1 {
		t.Errorf("GIF has no adjustable axis, expected 1 encode, got %d", stub.encodes)
	}
	if cand.Size != 4242 {
		t.Errorf("expected candidate size 4242, got %d", cand.Size)
	}
}

func TestSearchStateKeepsBestCandidates(t *testing.T) {
	var s searchState
	target := int64(100)

	s.record(&Candidate{Size: 500, Quality: 50}, target)
	if s.underTarget != nil {
		t.Fatal("500 bytes should not satisfy a 100-byte target")
	}
	if s.overall == nil || s.overall.Size != 500 {
		t.Fatal("overall should track the only attempt")
	}

	s.record(&Candidate{Size: 300, Quality: 30}, target)
	if s.overall.Size != 300 {
		t.Errorf("overall should shrink to 300, got %d", s.overall.Size)
	}

	s.record(&Candidate{Size: 90, Quality: 80}, target)
	if s.underTarget == nil || s.underTarget.Size != 90 {
		t.Fatal("a fitting candidate should set underTarget")
	}

	// A later, smaller-but-worse candidate must not displace it.
	s.record(&Candidate{Size: 40, Quality: 20}, target)
	if s.underTarget.Quality != 80 {
		t.Errorf("underTarget was downgraded: quality %d", s.underTarget.Quality)
	}
	if s.overall.Size != 40 {
		t.Errorf("overall should still track the smallest, got %d", s.overall.Size)
	}
}
