package engine

import (
	"fmt"
	"image"

	"shrinkray/pkg/codec"
)

// qualitySearch finds the best encoder setting for a fixed pixel buffer
// whose output fits within target bytes.
//
// For quality formats this is a linear scan from QualityMax down to
// QualityMin: the size-vs-quality curve of real codecs is not strictly
// monotonic, so a binary search could skip a valid match, and the linear
// scan is bounded anyway. The first (highest) quality that fits wins.
// PNG scans its compression-level axis the same way; GIF and BMP have no
// adjustable axis and get a single attempt.
//
// When nothing fits, the smallest candidate scanned comes back as the
// best effort at this scale. The returned candidate is never nil on a
// nil error.
func (e *Engine) qualitySearch(img image.Image, format codec.Format, target int64, scale float64, dims Dimensions) (*Candidate, error) {
	switch {
	case format.HasQuality():
		return e.scanQuality(img, format, target, scale, dims)
	case format == codec.PNG:
		return e.scanCompression(img, target, scale, dims)
	default:
		return e.singleAttempt(img, format, scale, dims)
	}
}

func (e *Engine) scanQuality(img image.Image, format codec.Format, target int64, scale float64, dims Dimensions) (*Candidate, error) {
	var best *Candidate
	for q := e.cfg.QualityMax; q >= e.cfg.QualityMin; q -= e.cfg.QualityStep {
		data, err := e.codec.Encode(img, format, codec.EncodeOptions{Quality: q})
		if err != nil {
			return nil, fmt.Errorf("encode %s at quality %d: %w", format, q, err)
		}

		cand := &Candidate{
			Data:       data,
			Size:       int64(len(data)),
			Quality:    q,
			Scale:      scale,
			Dimensions: dims,
		}
		e.tracef("testing quality %d at scale %.0f%%: %d KB", q, scale*100, cand.Size/1024)

		if cand.Size <= target {
			return cand, nil
		}
		if best == nil || cand.Size < best.Size {
			best = cand
		}
	}
	return best, nil
}

func (e *Engine) scanCompression(img image.Image, target int64, scale float64, dims Dimensions) (*Candidate, error) {
	var best *Candidate
	for _, level := range codec.CompressionLevels() {
		data, err := e.codec.Encode(img, codec.PNG, codec.EncodeOptions{Compression: level})
		if err != nil {
			return nil, fmt.Errorf("encode PNG at compression %s: %w", level, err)
		}

		cand := &Candidate{
			Data:       data,
			Size:       int64(len(data)),
			Scale:      scale,
			Dimensions: dims,
		}
		e.tracef("testing compression %s at scale %.0f%%: %d KB", level, scale*100, cand.Size/1024)

		if cand.Size <= target {
			return cand, nil
		}
		if best == nil || cand.Size < best.Size {
			best = cand
		}
	}
	return best, nil
}

func (e *Engine) singleAttempt(img image.Image, format codec.Format, scale float64, dims Dimensions) (*Candidate, error) {
	data, err := e.codec.Encode(img, format, codec.EncodeOptions{})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	e.tracef("testing %s at scale %.0f%%: %d KB", format, scale*100, int64(len(data))/1024)

	return &Candidate{
		Data:       data,
		Size:       int64(len(data)),
		Scale:      scale,
		Dimensions: dims,
	}, nil
}
