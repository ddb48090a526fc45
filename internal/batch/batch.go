// Package batch runs dependency analysis over many independent entry
// points concurrently, worker-pool style, and collects the resulting File
// Record trees (or per-entry errors) in the same order as the entries.
//
// A buffered job channel feeds a fixed worker pool sized to
// runtime.NumCPU, with an optional progress callback fed by atomic
// counters and cooperative cancellation via ctx.Done(). Each
// Cartographer.AnalyzeFile call already walks its own transitive closure
// single-threaded (the Resolver/Grapher own their own concurrency-safety
// via internal locking), so batch parallelizes across entries rather than
// across files within one entry.
package batch

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/modwalk/cartographer/internal/cartographer"
	"github.com/modwalk/cartographer/internal/entry"
	"github.com/modwalk/cartographer/internal/model"
)

// Result is the outcome of analyzing one Entry.
type Result struct {
	Entry entry.Entry
	Root  *model.FileRecord
	Err   error
}

// Progress reports a snapshot of (entries completed, entries total) after
// each entry finishes, for CLI progress reporting. May be nil.
type Progress func(done, total int)

// Analyze analyzes every entry concurrently against c, using up to
// runtime.NumCPU workers, and returns one Result per entry in the same
// order as entries (not completion order). A cancelled ctx causes
// in-flight and not-yet-started entries to report ctx.Err(); already
// completed entries keep their real results.
func Analyze(ctx context.Context, c *cartographer.Cartographer, entries []entry.Entry, progress Progress) []Result {
	results := make([]Result, len(entries))

	jobs := make(chan int, len(entries))
	for i := range entries {
		jobs <- i
	}
	close(jobs)

	var done atomic.Int64
	total := len(entries)

	workers := runtime.NumCPU()
	if workers > total {
		workers = total
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				e := entries[i]
				if err := ctx.Err(); err != nil {
					results[i] = Result{Entry: e, Err: err}
				} else {
					root, err := c.AnalyzeFile(ctx, e.Path)
					results[i] = Result{Entry: e, Root: root, Err: err}
				}
				n := done.Add(1)
				if progress != nil {
					progress(int(n), total)
				}
			}
		}()
	}
	wg.Wait()

	return results
}
