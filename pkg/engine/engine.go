package engine

import (
	"fmt"
	"image"

	"shrinkray/pkg/codec"
)

// Codec is the imaging primitive boundary the engine drives. The real
// implementation is codec.Adapter; tests substitute deterministic stubs.
type Codec interface {
	Encode(img image.Image, format codec.Format, opts codec.EncodeOptions) ([]byte, error)
	Resample(img image.Image, width, height int) image.Image
}

// Config holds the engine tunables. The defaults are a reasonable
// starting point, not invariants; callers may tighten or widen the
// search.
type Config struct {
	// QualityMax..QualityMin is the quality scan range, walked from high
	// to low in QualityStep decrements.
	QualityMax  int
	QualityMin  int
	QualityStep int

	// DefaultQuality is used for the single encode in dimension-only mode.
	DefaultQuality int

	// ScaleDecrement multiplies the scale factor on each descent
	// iteration.
	ScaleDecrement float64

	// MinScale is the floor below which the descent stops; header
	// overhead dominates at extreme downscales and further shrinking
	// stops paying off.
	MinScale float64

	// MaxScaleSteps caps the number of descent iterations.
	MaxScaleSteps int

	// Trace, when set, receives per-attempt progress lines.
	Trace func(format string, args ...any)
}

// DefaultConfig returns the default search parameters.
func DefaultConfig() Config {
	return Config{
		QualityMax:     95,
		QualityMin:     20,
		QualityStep:    5,
		DefaultQuality: 90,
		ScaleDecrement: 0.9,
		MinScale:       0.10,
		MaxScaleSteps:  10,
	}
}

// Job is one unit of work: a decoded image plus the constraints to meet.
// The engine consumes the job; nothing in it is shared across jobs.
type Job struct {
	SourcePath    string
	Image         image.Image
	Format        codec.Format
	TargetBytes   int64 // 0 means no size target
	Requested     *Dimensions
	MaintainRatio bool
}

// Method names the strategy that produced a result.
type Method string

const (
	MethodDimensionOnly Method = "dimension-only"
	MethodQualityOnly   Method = "quality-only"
	MethodScaleQuality  Method = "scale+quality"
)

// Candidate is the outcome of a single encode attempt.
type Candidate struct {
	Data       []byte
	Size       int64
	Quality    int // 0 for formats without a quality axis
	Scale      float64
	Dimensions Dimensions
}

// Result is the final outcome for one job. MetTarget is false when the
// byte budget was unreachable and Data holds the best effort instead.
type Result struct {
	Data       []byte
	Size       int64
	Dimensions Dimensions
	Quality    int
	Scale      float64
	MetTarget  bool
	Method     Method
}

// searchState tracks the best candidates across one job's iterations.
// It lives on the stack of Process and is never shared, which keeps jobs
// freely parallelizable.
type searchState struct {
	underTarget *Candidate
	overall     *Candidate
	iterations  int
}

// record folds one attempt into the state. underTarget, once set, is the
// terminal answer (the engine stops at the first scale that fits), so it
// is never downgraded. overall always tracks the smallest encode seen.
func (s *searchState) record(c *Candidate, target int64) {
	if c == nil {
		return
	}
	if s.overall == nil || c.Size < s.overall.Size {
		s.overall = c
	}
	if c.Size <= target && s.underTarget == nil {
		s.underTarget = c
	}
}

// Engine is the size-targeting convergence engine. One Engine may serve
// many jobs concurrently; all per-job state is local to Process.
type Engine struct {
	codec Codec
	cfg   Config
}

// New creates an engine on top of the given codec primitives.
func New(c Codec, cfg Config) *Engine {
	return &Engine{codec: c, cfg: cfg}
}

func (e *Engine) tracef(format string, args ...any) {
	if e.cfg.Trace != nil {
		e.cfg.Trace(format, args...)
	}
}

// Process runs the convergence search for one job.
//
// Phase 0 resolves target dimensions and resamples once if they differ
// from the original; without a size target that working image is encoded
// once at the default quality and returned. Phase 1 runs the quality
// search at full resolution; meeting the target here is the preferred
// outcome since it keeps every pixel. Phase 2 walks the scale factor
// down by ScaleDecrement per iteration, re-running the quality search at
// each step, until the target is met, the iteration cap is reached, or
// the scale floor is hit. An unreachable target is not an error: the
// smallest encode seen comes back with MetTarget false.
func (e *Engine) Process(job Job) (*Result, error) {
	if job.Image == nil {
		return nil, fmt.Errorf("%w: job has no decoded image", codec.ErrDecode)
	}

	bounds := job.Image.Bounds()
	original := Dimensions{Width: bounds.Dx(), Height: bounds.Dy()}

	dims, err := ResolveDimensions(original, job.Requested, job.MaintainRatio)
	if err != nil {
		return nil, err
	}

	working := job.Image
	if dims != original {
		working = e.codec.Resample(working, dims.Width, dims.Height)
	}

	if job.TargetBytes <= 0 {
		return e.encodeOnce(working, job.Format, dims)
	}

	state := searchState{}

	// Phase 1: quality-only descent at full resolution.
	cand, err := e.qualitySearch(working, job.Format, job.TargetBytes, 1.0, dims)
	if err != nil {
		return nil, err
	}
	state.record(cand, job.TargetBytes)
	if state.underTarget != nil {
		return resultFrom(state.underTarget, true, MethodQualityOnly), nil
	}

	// Phase 2: scale descent.
	factor := 1.0
	for step := 0; step < e.cfg.MaxScaleSteps; step++ {
		factor *= e.cfg.ScaleDecrement
		if factor < e.cfg.MinScale {
			break
		}

		scaled, sdims, err := e.scale(working, dims, factor)
		if err != nil {
			return nil, err
		}

		cand, err := e.qualitySearch(scaled, job.Format, job.TargetBytes, factor, sdims)
		if err != nil {
			return nil, err
		}
		state.record(cand, job.TargetBytes)
		state.iterations++

		if state.underTarget != nil {
			// First success at a scale wins; shrinking further only
			// degrades quality.
			return resultFrom(state.underTarget, true, MethodScaleQuality), nil
		}
	}

	best := state.overall
	method := MethodScaleQuality
	if best.Scale == 1.0 {
		method = MethodQualityOnly
	}
	return resultFrom(best, false, method), nil
}

// encodeOnce handles dimension-only mode: a single encode at the default
// settings.
func (e *Engine) encodeOnce(img image.Image, format codec.Format, dims Dimensions) (*Result, error) {
	opts := codec.EncodeOptions{
		Quality:     e.cfg.DefaultQuality,
		Compression: codec.CompressionSmallest,
	}
	data, err := e.codec.Encode(img, format, opts)
	if err != nil {
		return nil, err
	}

	quality := 0
	if format.HasQuality() {
		quality = e.cfg.DefaultQuality
	}
	return &Result{
		Data:       data,
		Size:       int64(len(data)),
		Dimensions: dims,
		Quality:    quality,
		Scale:      1.0,
		MetTarget:  true,
		Method:     MethodDimensionOnly,
	}, nil
}

func resultFrom(c *Candidate, metTarget bool, method Method) *Result {
	return &Result{
		Data:       c.Data,
		Size:       c.Size,
		Dimensions: c.Dimensions,
		Quality:    c.Quality,
		Scale:      c.Scale,
		MetTarget:  metTarget,
		Method:     method,
	}
}
