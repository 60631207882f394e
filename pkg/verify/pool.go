// Package verify runs a battery of testable ISA and toolchain properties —
// flag laws, stack/call round trips, character round trips — across a
// worker pool: a buffered task channel, a fixed set of goroutines draining
// it, and atomic counters a progress reporter polls on a ticker.
package verify

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vm8/toolkit/pkg/report"
)

// Task is one independent property check. A non-nil error fails it.
type Task struct {
	Name string
	Run  func() error
}

// WorkerPool runs Tasks concurrently and collects failures as Diagnostics.
type WorkerPool struct {
	NumWorkers int
	checked    atomic.Int64
	failed     atomic.Int64
}

// NewWorkerPool creates a pool with the given worker count; 0 or negative
// uses runtime.NumCPU().
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{NumWorkers: numWorkers}
}

// Stats returns the number of tasks checked and failed so far.
func (wp *WorkerPool) Stats() (checked, failed int64) {
	return wp.checked.Load(), wp.failed.Load()
}

// RunTasks distributes tasks across workers and returns the collected
// diagnostics, one per failed task. When verbose, a status line is printed
// every two seconds while tasks are still in flight.
func (wp *WorkerPool) RunTasks(tasks []Task, verbose bool) *report.Diagnostics {
	diags := report.NewDiagnostics()
	total := int64(len(tasks))

	ch := make(chan Task, len(tasks))
	for _, t := range tasks {
		ch <- t
	}
	close(ch)

	done := make(chan struct{})
	if verbose {
		go func() {
			ticker := time.NewTicker(2 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					checked, failed := wp.Stats()
					fmt.Printf("  %d/%d checked | %d failed\n", checked, total, failed)
				}
			}
		}()
	}

	var wg sync.WaitGroup
	for i := 0; i < wp.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range ch {
				if err := task.Run(); err != nil {
					wp.failed.Add(1)
					diags.Add(report.Diagnostic{
						File:     task.Name,
						Severity: "error",
						Message:  err.Error(),
					})
				}
				wp.checked.Add(1)
			}
		}()
	}
	wg.Wait()
	close(done)

	return diags
}
