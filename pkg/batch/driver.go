package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"shrinkray/internal/worker"
	"shrinkray/pkg/codec"
	"shrinkray/pkg/engine"
	"shrinkray/pkg/progress"
)

// Options contains batch processing settings.
type Options struct {
	InputPath     string
	OutputDir     string // empty means a resized/ subdirectory per input
	TargetBytes   int64  // 0 means no size target
	Width         int
	Height        int
	MaintainRatio bool
	Parallel      bool
	WorkerCount   int // 0 means one per CPU
	Verbose       bool
	Engine        engine.Config
}

// FileResult is the per-file outcome of a batch run.
type FileResult struct {
	InputPath    string
	OutputPath   string
	OriginalSize int64
	FinalSize    int64
	Dimensions   engine.Dimensions
	Quality      int
	Scale        float64
	MetTarget    bool
	Method       engine.Method
	Err          error
}

// Summary aggregates a batch run.
type Summary struct {
	Total         int
	Succeeded     int
	Failed        int
	TargetUnmet   int
	OriginalBytes uint64
	FinalBytes    uint64
	Elapsed       time.Duration
	Results       []FileResult
}

// Driver enumerates input files, runs the convergence engine on each and
// writes the outputs. Jobs are fully independent, so parallel mode is a
// straight fan-out over the worker pool.
type Driver struct {
	opts   Options
	codec  *codec.Adapter
	engine *engine.Engine
}

// New creates a batch driver.
func New(opts Options) *Driver {
	cfg := opts.Engine
	if cfg.QualityStep == 0 {
		cfg = engine.DefaultConfig()
	}
	if opts.Verbose {
		cfg.Trace = func(format string, args ...any) {
			fmt.Printf("  "+format+"\n", args...)
		}
	}

	adapter := codec.NewAdapter()
	return &Driver{
		opts:   opts,
		codec:  adapter,
		engine: engine.New(adapter, cfg),
	}
}

// Run processes the whole batch and prints the summary report.
func (d *Driver) Run() (*Summary, error) {
	start := time.Now()

	files, err := CollectImages(d.opts.InputPath)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no image files found at %s", d.opts.InputPath)
	}

	fmt.Printf("Found %d image(s) to process\n", len(files))

	results := make([]FileResult, len(files))
	if d.opts.Parallel && len(files) > 1 {
		d.runParallel(files, results)
	} else {
		d.runSequential(files, results)
	}

	summary := d.summarize(results)
	summary.Elapsed = time.Since(start)
	d.report(summary)

	return summary, nil
}

func (d *Driver) runSequential(files []string, results []FileResult) {
	bar := progress.NewBar(len(files), "Processing")
	for i, path := range files {
		results[i] = d.processFile(path)
		bar.Update(i + 1)
	}
	bar.Finish()
}

func (d *Driver) runParallel(files []string, results []FileResult) {
	pool := worker.NewPoolWithProgress(d.opts.WorkerCount, len(files))
	pool.Start()

	go func() {
		for i, path := range files {
			pool.Submit(&fileJob{driver: d, path: path, slot: &results[i]})
		}
	}()

	for range files {
		<-pool.Results()
	}
	pool.Stop()
}

// fileJob adapts one input file to the worker pool. Each job writes into
// its own result slot, so no synchronization is needed.
type fileJob struct {
	driver *Driver
	path   string
	slot   *FileResult
}

func (j *fileJob) ID() string {
	return filepath.Base(j.path)
}

func (j *fileJob) Process(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		j.slot.InputPath = j.path
		j.slot.Err = err
		return err
	}
	*j.slot = j.driver.processFile(j.path)
	return j.slot.Err
}

// processFile runs the full pipeline for one input. Every failure is
// job-scoped: the error lands in the result and the batch moves on.
func (d *Driver) processFile(path string) FileResult {
	result := FileResult{InputPath: path}

	stat, err := os.Stat(path)
	if err != nil {
		result.Err = fmt.Errorf("stat input: %w", err)
		return result
	}
	result.OriginalSize = stat.Size()

	data, err := os.ReadFile(path)
	if err != nil {
		result.Err = fmt.Errorf("read input: %w", err)
		return result
	}

	img, format, err := d.codec.Decode(data)
	if err != nil {
		result.Err = err
		return result
	}

	job := engine.Job{
		SourcePath:    path,
		Image:         img,
		Format:        format,
		TargetBytes:   d.opts.TargetBytes,
		Requested:     d.requestedDimensions(),
		MaintainRatio: d.opts.MaintainRatio,
	}

	res, err := d.engine.Process(job)
	if err != nil {
		result.Err = err
		return result
	}

	outPath, err := outputPath(path, d.opts.OutputDir)
	if err != nil {
		result.Err = err
		return result
	}

	if err := os.WriteFile(outPath, res.Data, 0o644); err != nil {
		result.Err = fmt.Errorf("write output: %w", err)
		return result
	}

	result.OutputPath = outPath
	result.FinalSize = res.Size
	result.Dimensions = res.Dimensions
	result.Quality = res.Quality
	result.Scale = res.Scale
	result.MetTarget = res.MetTarget
	result.Method = res.Method
	return result
}

func (d *Driver) requestedDimensions() *engine.Dimensions {
	if d.opts.Width <= 0 && d.opts.Height <= 0 {
		return nil
	}
	return &engine.Dimensions{Width: d.opts.Width, Height: d.opts.Height}
}

func (d *Driver) summarize(results []FileResult) *Summary {
	summary := &Summary{
		Total:   len(results),
		Results: results,
	}

	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
			continue
		}
		summary.Succeeded++
		summary.OriginalBytes += uint64(r.OriginalSize)
		summary.FinalBytes += uint64(r.FinalSize)
		if !r.MetTarget {
			summary.TargetUnmet++
		}
	}

	return summary
}

// report prints the batch summary in the same shape for single files and
// directories.
func (d *Driver) report(s *Summary) {
	fmt.Printf("\nProcessing Summary\n")
	fmt.Printf("================================================================\n")
	fmt.Printf("Succeeded:     %d\n", s.Succeeded)
	fmt.Printf("Failed:        %d\n", s.Failed)

	if s.Succeeded > 0 && s.OriginalBytes > s.FinalBytes {
		saved := s.OriginalBytes - s.FinalBytes
		fmt.Printf("Total saved:   %s (%.1f%% reduction)\n",
			humanize.Bytes(saved),
			float64(saved)/float64(s.OriginalBytes)*100)
	}
	if s.TargetUnmet > 0 {
		fmt.Printf("Target unmet:  %d file(s) kept as best effort\n", s.TargetUnmet)
	}
	fmt.Printf("Processing:    %v\n", s.Elapsed.Round(time.Millisecond))
	fmt.Printf("================================================================\n")

	if d.opts.Verbose {
		fmt.Printf("\nDetailed Results:\n")
		for _, r := range s.Results {
			if r.Err != nil {
				fmt.Printf("  ✗ %s - %s: %v\n", filepath.Base(r.InputPath), errorKind(r.Err), r.Err)
				continue
			}

			note := ""
			if !r.MetTarget {
				note = " [target not met]"
			}
			fmt.Printf("  ✓ %s → %s (%s → %s) %s %s%s\n",
				filepath.Base(r.InputPath), filepath.Base(r.OutputPath),
				humanize.Bytes(uint64(r.OriginalSize)), humanize.Bytes(uint64(r.FinalSize)),
				r.Dimensions, r.Method, note)
		}
	} else if s.Failed > 0 {
		for _, r := range s.Results {
			if r.Err != nil {
				fmt.Printf("  ✗ %s - %s\n", filepath.Base(r.InputPath), errorKind(r.Err))
			}
		}
	}
}

// errorKind maps a job error to its taxonomy bucket for reporting.
func errorKind(err error) string {
	switch {
	case errors.Is(err, codec.ErrUnsupportedFormat):
		return "unsupported format"
	case errors.Is(err, codec.ErrDecode):
		return "decode error"
	case errors.Is(err, codec.ErrEncode):
		return "encode error"
	case errors.Is(err, engine.ErrInvalidDimensions):
		return "invalid dimensions"
	case errors.Is(err, engine.ErrInvalidScale):
		return "invalid scale"
	default:
		return "error"
	}
}
