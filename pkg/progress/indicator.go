package progress

import (
	"fmt"
	"sync"
	"time"
)

// Tracker reports batch progress across multiple workers. Display is
// rate-limited so a fast batch does not flood the terminal.
type Tracker struct {
	mu          sync.Mutex
	current     map[int]string
	totalJobs   int
	completed   int
	startTime   time.Time
	lastDisplay time.Time
	displayRate time.Duration
}

// NewTracker creates a tracker for workerCount workers and totalJobs
// jobs.
func NewTracker(workerCount, totalJobs int) *Tracker {
	return &Tracker{
		current:     make(map[int]string, workerCount),
		totalJobs:   totalJobs,
		startTime:   time.Now(),
		displayRate: 500 * time.Millisecond,
	}
}

// Update records that a worker started or finished a job.
func (t *Tracker) Update(workerID int, jobName string, completed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if completed {
		t.completed++
		delete(t.current, workerID)
	} else {
		t.current[workerID] = jobName
	}

	if time.Since(t.lastDisplay) >= t.displayRate {
		t.display()
		t.lastDisplay = time.Now()
	}
}

func (t *Tracker) display() {
	elapsed := time.Since(t.startTime)
	percentage := float64(t.completed) / float64(t.totalJobs) * 100

	var eta time.Duration
	if t.completed > 0 {
		avg := elapsed / time.Duration(t.completed)
		eta = avg * time.Duration(t.totalJobs-t.completed)
	}

	fmt.Printf("\033[2K\rProcessing: %d/%d (%.1f%%) | elapsed %v | eta %v",
		t.completed, t.totalJobs, percentage,
		elapsed.Round(time.Second), eta.Round(time.Second))
}

// Finish clears the progress line and prints the final timing.
func (t *Tracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.startTime)
	fmt.Printf("\033[2K\rProcessed %d image(s) in %v\n",
		t.completed, elapsed.Round(time.Millisecond))
}

// Bar is a simple single-line progress bar for sequential processing.
type Bar struct {
	total   int
	current int
	label   string
	width   int
}

// NewBar creates a progress bar for total steps.
func NewBar(total int, label string) *Bar {
	return &Bar{
		total: total,
		label: label,
		width: 40,
	}
}

// Update advances the bar to the given position.
func (b *Bar) Update(current int) {
	b.current = current
	b.display()
}

func (b *Bar) display() {
	percentage := float64(b.current) / float64(b.total) * 100
	filled := int(float64(b.width) * float64(b.current) / float64(b.total))

	bar := ""
	for i := 0; i < b.width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}

	fmt.Printf("\r%s [%s] %d/%d (%.1f%%)",
		b.label, bar, b.current, b.total, percentage)
}

// Finish completes the bar.
func (b *Bar) Finish() {
	b.Update(b.total)
	fmt.Println(" DONE")
}
