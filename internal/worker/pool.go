package worker

import (
	"context"
	"runtime"
	"sync"

	"shrinkray/pkg/progress"
)

// Job is a unit of work the pool can process. Each job owns its inputs
// and outputs exclusively; the pool never shares state between jobs.
type Job interface {
	Process(ctx context.Context) error
	ID() string
}

// Result is the outcome of processing one job.
type Result struct {
	JobID string
	Error error
}

// Pool fans jobs out over a fixed set of worker goroutines.
type Pool struct {
	workerCount int
	jobs        chan Job
	results     chan Result
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	tracker     *progress.Tracker
}

// NewPool creates a pool with workerCount workers. Zero or negative
// means one worker per CPU.
func NewPool(workerCount int) *Pool {
	return newPool(workerCount, nil)
}

// NewPoolWithProgress creates a pool that reports batch progress for
// totalJobs jobs.
func NewPoolWithProgress(workerCount, totalJobs int) *Pool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	return newPool(workerCount, progress.NewTracker(workerCount, totalJobs))
}

func newPool(workerCount int, tracker *progress.Tracker) *Pool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workerCount: workerCount,
		jobs:        make(chan Job, workerCount*2),
		results:     make(chan Result, workerCount*2),
		ctx:         ctx,
		cancel:      cancel,
		tracker:     tracker,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop drains remaining jobs and shuts the pool down.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
	close(p.results)
	p.cancel()

	if p.tracker != nil {
		p.tracker.Finish()
	}
}

// Submit queues a job. If the pool is already shutting down the job is
// reported as failed instead of blocking forever.
func (p *Pool) Submit(job Job) {
	select {
	case p.jobs <- job:
	case <-p.ctx.Done():
		p.results <- Result{JobID: job.ID(), Error: p.ctx.Err()}
	}
}

// Results returns the channel of job outcomes.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// WorkerCount returns the number of workers.
func (p *Pool) WorkerCount() int {
	return p.workerCount
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case job, ok := <-p.jobs:
			if !ok {
				return
			}

			if p.tracker != nil {
				p.tracker.Update(id, job.ID(), false)
			}

			err := job.Process(p.ctx)

			if p.tracker != nil {
				p.tracker.Update(id, job.ID(), true)
			}

			p.results <- Result{JobID: job.ID(), Error: err}

		case <-p.ctx.Done():
			return
		}
	}
}
