// Package pipeline runs the per-sample filtering loop over a cohort.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/inodb/vibe-filter/internal/cohort"
	"github.com/inodb/vibe-filter/internal/filter"
)

// MatcherFunc returns the matcher to apply to a sample's VCF.
type MatcherFunc func(s cohort.Sample) (filter.Matcher, error)

// HitWriter receives hits in samples-file order.
type HitWriter interface {
	Write(h filter.Hit) error
}

// HitStore receives each sample's hits as one batch.
type HitStore interface {
	WriteHits(hits []filter.Hit) error
}

// Summary counts per-run outcomes.
type Summary struct {
	Samples       int // samples listed
	Processed     int // samples whose VCF was filtered
	MissingVCF    int // samples skipped because the VCF does not exist
	UnknownPanels int // samples skipped because no panel is assigned
	Failed        int // samples skipped for other errors
	Hits          int // hits written
}

// Runner filters every sample of a cohort. Problems with a single sample are
// reported and the sample is skipped; only write failures and cancellation
// stop the run.
type Runner struct {
	matcherFor MatcherFunc
	writer     HitWriter
	store      HitStore
	workers    int
	report     io.Writer
	logger     *zap.Logger
}

// NewRunner creates a runner writing hits to w.
func NewRunner(matcherFor MatcherFunc, w HitWriter) *Runner {
	return &Runner{
		matcherFor: matcherFor,
		writer:     w,
		workers:    1,
		report:     os.Stdout,
		logger:     zap.NewNop(),
	}
}

// SetWorkers sets how many samples are filtered concurrently.
func (r *Runner) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	r.workers = n
}

// SetStore adds a store receiving every sample's hits.
func (r *Runner) SetStore(s HitStore) {
	r.store = s
}

// SetReport sets where skipped-sample diagnostics are printed.
func (r *Runner) SetReport(w io.Writer) {
	r.report = w
}

// SetLogger sets the logger for progress and warning messages.
func (r *Runner) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Run filters the samples in order.
func (r *Runner) Run(ctx context.Context, samples []cohort.Sample) (Summary, error) {
	summary := Summary{Samples: len(samples)}

	items := make(chan workItem)
	go func() {
		defer close(items)
		for i, s := range samples {
			select {
			case items <- workItem{Seq: i, Sample: s}:
			case <-ctx.Done():
				return
			}
		}
	}()

	results := parallelFilter(ctx, items, r.workers, r.filterSample)

	err := orderedCollect(results, func(res workResult) error {
		return r.collect(ctx, res, &summary)
	})
	if err != nil {
		return summary, err
	}
	return summary, ctx.Err()
}

// filterSample runs one sample's VCF through its matcher, buffering the hits.
func (r *Runner) filterSample(ctx context.Context, s cohort.Sample) workResult {
	m, err := r.matcherFor(s)
	if err != nil {
		return workResult{Err: &matcherError{err: err}}
	}

	f := filter.New(m)
	f.SetLogger(r.logger.With(zap.String("sample", s.ID)))

	res := workResult{Matcher: m}
	res.Stats, res.Err = f.RunFile(ctx, s.ID, s.VCFPath, func(h filter.Hit) error {
		res.Hits = append(res.Hits, h)
		return nil
	})
	return res
}

// collect writes or reports one sample's result.
func (r *Runner) collect(ctx context.Context, res workResult, summary *Summary) error {
	s := res.Sample
	var me *matcherError
	switch {
	case res.Err == nil:
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(res.Err, cohort.ErrNoPanels):
		summary.UnknownPanels++
		fmt.Fprintf(r.report, "%s - panels unknown\n", s.ID)
		r.logger.Warn("no panels assigned, skipping sample", zap.String("sample", s.ID))
		return nil
	case errors.As(res.Err, &me):
		summary.Failed++
		r.logger.Warn("cannot resolve genes, skipping sample",
			zap.String("sample", s.ID), zap.Error(me.err))
		return nil
	case errors.Is(res.Err, os.ErrNotExist):
		summary.MissingVCF++
		fmt.Fprintf(r.report, "File %s not found\n", s.VCFPath)
		r.logger.Warn("VCF not found, skipping sample",
			zap.String("sample", s.ID), zap.String("path", s.VCFPath))
		return nil
	default:
		summary.Failed++
		r.logger.Warn("failed to filter sample, skipping",
			zap.String("sample", s.ID), zap.String("path", s.VCFPath), zap.Error(res.Err))
		return nil
	}

	if c, ok := res.Matcher.(filter.Committer); ok {
		res.Hits = c.Commit(res.Hits)
	}
	for _, h := range res.Hits {
		if err := r.writer.Write(h); err != nil {
			return fmt.Errorf("write hit: %w", err)
		}
	}
	if r.store != nil {
		if err := r.store.WriteHits(res.Hits); err != nil {
			return fmt.Errorf("store hits for %s: %w", s.ID, err)
		}
	}

	summary.Processed++
	summary.Hits += len(res.Hits)
	r.logger.Info("filtered sample",
		zap.String("sample", s.ID),
		zap.Int("records", res.Stats.Records),
		zap.Int("passed", res.Stats.Passed),
		zap.Int("skipped", res.Stats.Rejected),
		zap.Int("hits", len(res.Hits)))
	return nil
}

// matcherError marks a failure to build a sample's matcher, as opposed to a
// failure reading its VCF.
type matcherError struct {
	err error
}

func (e *matcherError) Error() string { return e.err.Error() }

func (e *matcherError) Unwrap() error { return e.err }
