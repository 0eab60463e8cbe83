// Package spliceai builds an in-memory index of SpliceAI-scored variants
// falling in genes of interest.
package spliceai

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-filter/internal/panel"
	"github.com/inodb/vibe-filter/internal/vcf"
)

// DefaultThreshold is the minimum max delta score for a variant to be kept.
const DefaultThreshold = 0.2

// SpliceAI INFO layout: ALLELE|SYMBOL|DS_AG|DS_AL|DS_DG|DS_DL|DP_AG|DP_AL|DP_DG|DP_DL
const (
	infoGene       = 1
	infoFirstScore = 2
	infoLastScore  = 5
)

// checkEvery is how many reference lines are read between context checks.
const checkEvery = 1 << 12

// Entry is a reference variant that passed the gene and score filters.
type Entry struct {
	Line     string  // raw reference record
	Gene     string  // annotated gene symbol
	MaxScore float64 // maximum of the four delta scores
}

// Index maps normalized variant keys to reference entries.
// It is read-only once Build returns.
type Index struct {
	entries map[string]*Entry
}

// Lookup returns the entry stored under key.
func (idx *Index) Lookup(key string) (*Entry, bool) {
	e, ok := idx.entries[key]
	return e, ok
}

// Len returns the number of indexed variants.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Options controls index construction.
type Options struct {
	Threshold float64
	Logger    *zap.Logger
}

// DefaultOptions returns options using DefaultThreshold.
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold}
}

// Build streams the reference files in order and indexes every variant whose
// gene is in genes and whose max delta score reaches the threshold.
// A key seen again in a later line or file replaces the earlier entry.
func Build(ctx context.Context, genes panel.GeneSet, opts Options, paths ...string) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	idx := &Index{entries: make(map[string]*Entry)}
	for _, path := range paths {
		stats, err := idx.load(ctx, path, genes, opts.Threshold)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded SpliceAI reference",
			zap.String("path", path),
			zap.Int("records", stats.records),
			zap.Int("kept", stats.kept),
			zap.Int("skipped", stats.malformed))
	}
	return idx, nil
}

type loadStats struct {
	records   int
	kept      int
	malformed int
}

func (idx *Index) load(ctx context.Context, path string, genes panel.GeneSet, threshold float64) (loadStats, error) {
	var stats loadStats

	p, err := vcf.NewParser(path)
	if err != nil {
		return stats, fmt.Errorf("open SpliceAI reference: %w", err)
	}
	defer p.Close()

	for {
		if stats.records%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}

		rec, err := p.Next()
		if err != nil {
			var pe *vcf.ParseError
			if errors.As(err, &pe) {
				stats.malformed++
				continue
			}
			return stats, fmt.Errorf("read SpliceAI reference %s: %w", path, err)
		}
		if rec == nil {
			return stats, nil
		}
		stats.records++

		info := strings.Split(rec.Info, "|")
		if len(info) <= infoLastScore {
			stats.malformed++
			continue
		}
		gene := info[infoGene]
		if !genes.Has(gene) {
			continue
		}

		score, err := MaxDeltaScore(info[infoFirstScore : infoLastScore+1])
		if err != nil {
			stats.malformed++
			continue
		}
		if score < threshold {
			continue
		}

		idx.entries[rec.Key()] = &Entry{Line: rec.Line, Gene: gene, MaxScore: score}
		stats.kept++
	}
}

// MaxDeltaScore returns the largest of the given delta scores, starting from
// a baseline of 0.
func MaxDeltaScore(scores []string) (float64, error) {
	best := 0.0
	for _, s := range scores {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid delta score %q: %w", s, err)
		}
		if v > best {
			best = v
		}
	}
	return best, nil
}
