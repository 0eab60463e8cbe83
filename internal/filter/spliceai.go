package filter

import (
	"github.com/inodb/vibe-filter/internal/spliceai"
	"github.com/inodb/vibe-filter/internal/vcf"
)

// SpliceAIMatcher keeps records present in a SpliceAI reference index.
type SpliceAIMatcher struct {
	index    *spliceai.Index
	minDepth int
}

// NewSpliceAIMatcher creates a matcher over idx requiring DP >= minDepth.
func NewSpliceAIMatcher(idx *spliceai.Index, minDepth int) *SpliceAIMatcher {
	return &SpliceAIMatcher{index: idx, minDepth: minDepth}
}

// Match implements Matcher.
func (m *SpliceAIMatcher) Match(sample string, rec *vcf.Record) ([]Hit, error) {
	entry, ok := m.index.Lookup(rec.Key())
	if !ok {
		return nil, nil
	}
	ok, err := hasDepth(rec, m.minDepth)
	if err != nil || !ok {
		return nil, err
	}
	return []Hit{{
		Sample:    sample,
		Record:    rec,
		Gene:      entry.Gene,
		Reference: entry,
	}}, nil
}
