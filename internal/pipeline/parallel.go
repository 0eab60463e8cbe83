package pipeline

import (
	"context"
	"sync"

	"github.com/inodb/vibe-filter/internal/cohort"
	"github.com/inodb/vibe-filter/internal/filter"
)

// workItem is a sample queued for filtering.
type workItem struct {
	Seq    int
	Sample cohort.Sample
}

// workResult holds the outcome of filtering one sample.
type workResult struct {
	Seq     int
	Sample  cohort.Sample
	Matcher filter.Matcher
	Hits    []filter.Hit
	Stats   filter.Stats
	Err     error
}

// parallelFilter processes work items using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use orderedCollect to consume results in sequence-number order.
func parallelFilter(ctx context.Context, items <-chan workItem, workers int, fn func(context.Context, cohort.Sample) workResult) <-chan workResult {
	if workers <= 0 {
		workers = 1
	}

	results := make(chan workResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				res := fn(ctx, item.Sample)
				res.Seq = item.Seq
				res.Sample = item.Sample
				results <- res
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// orderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func orderedCollect(results <-chan workResult, fn func(workResult) error) error {
	pending := make(map[int]workResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
