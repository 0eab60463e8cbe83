// Package filter streams sample VCFs and keeps the records that pass call
// quality gates and match a scoring stage.
package filter

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vibe-filter/internal/spliceai"
	"github.com/inodb/vibe-filter/internal/vcf"
)

// DefaultMinDepth is the minimum read depth (DP) of a reported call.
const DefaultMinDepth = 6

// Hit is a sample VCF record selected for output.
type Hit struct {
	Sample      string
	Record      *vcf.Record
	Gene        string
	Consequence string          // consequence term, consequence mode only
	Reference   *spliceai.Entry // matched reference variant, SpliceAI mode only
}

// Fields returns the output columns of the hit: the sample ID and the full
// VCF line, followed by the reference record in SpliceAI mode or by the
// gene and consequence term in consequence mode.
func (h Hit) Fields() []string {
	if h.Reference != nil {
		return []string{h.Sample, h.Record.Line, h.Reference.Line}
	}
	return []string{h.Sample, h.Record.Line, h.Gene, h.Consequence}
}

// Key returns the (sample, variant) key of the hit.
func (h Hit) Key() EmittedKey {
	r := h.Record
	return EmittedKey{Sample: h.Sample, Chrom: r.Chrom, Pos: r.Pos, Ref: r.Ref, Alt: r.Alt}
}

// Matcher decides which hits a quality-passing record produces.
// A returned error rejects the record only.
type Matcher interface {
	Match(sample string, rec *vcf.Record) ([]Hit, error)
}

// Committer is implemented by matchers whose hits only count as emitted once
// the caller has written them. Commit returns the hits that are still new.
type Committer interface {
	Commit(hits []Hit) []Hit
}

// Stats counts what happened to the records of one sample.
type Stats struct {
	Records  int // data lines read
	Passed   int // records passing FILTER and genotype gates
	Rejected int // records skipped for malformed content
	Emitted  int // hits written
}

// Filter applies quality gates and a Matcher to sample VCF records.
type Filter struct {
	matcher Matcher
	logger  *zap.Logger
}

// New creates a filter using the given matcher.
func New(m Matcher) *Filter {
	return &Filter{
		matcher: m,
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger for per-record diagnostics.
func (f *Filter) SetLogger(l *zap.Logger) {
	f.logger = l
}

// RunFile opens the VCF at path and filters it. A missing file yields an
// error wrapping os.ErrNotExist.
func (f *Filter) RunFile(ctx context.Context, sample, path string, emit func(Hit) error) (Stats, error) {
	p, err := vcf.NewParser(path)
	if err != nil {
		return Stats{}, err
	}
	defer p.Close()
	return f.Run(ctx, sample, p, emit)
}

// Run streams every record of p and calls emit for each hit.
func (f *Filter) Run(ctx context.Context, sample string, p *vcf.Parser, emit func(Hit) error) (Stats, error) {
	var stats Stats
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		rec, err := p.Next()
		if err != nil {
			var pe *vcf.ParseError
			if errors.As(err, &pe) {
				stats.Rejected++
				f.logger.Debug("skipping malformed record",
					zap.String("sample", sample),
					zap.Int("line", pe.Line),
					zap.String("reason", pe.Message))
				continue
			}
			return stats, fmt.Errorf("read %s: %w", sample, err)
		}
		if rec == nil {
			return stats, nil
		}
		stats.Records++

		if !rec.Passed() || rec.FirstSample() == "" || rec.IsHomRef() {
			continue
		}
		stats.Passed++

		hits, err := f.matcher.Match(sample, rec)
		if err != nil {
			stats.Rejected++
			f.logger.Debug("skipping record",
				zap.String("sample", sample),
				zap.Int("line", p.LineNumber()),
				zap.Error(err))
			continue
		}
		for _, h := range hits {
			if err := emit(h); err != nil {
				return stats, fmt.Errorf("emit hit: %w", err)
			}
			stats.Emitted++
		}
	}
}

// hasDepth reports whether the record's DP reaches minDepth.
func hasDepth(rec *vcf.Record, minDepth int) (bool, error) {
	dp, err := rec.Depth()
	if err != nil {
		return false, err
	}
	return dp >= minDepth, nil
}
