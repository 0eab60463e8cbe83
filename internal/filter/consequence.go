package filter

import (
	"strings"
	"sync"

	"github.com/inodb/vibe-filter/internal/panel"
	"github.com/inodb/vibe-filter/internal/vcf"
)

// csqtPrefix introduces the consequence annotation within INFO.
const csqtPrefix = "CSQT="

// DefaultConsequences are the consequence terms reported by default.
// Terms are matched as substrings, so "frameshift" also covers
// "frameshift_variant".
var DefaultConsequences = []string{
	"stop_gained",
	"splice_acceptor",
	"splice_donor",
	"frameshift",
	"missense",
	"splice_region",
}

// ConsequenceMatcher keeps records whose CSQT annotation names a gene of
// interest together with a consequence term of interest.
type ConsequenceMatcher struct {
	genes    []string // sorted gene symbols
	tokens   []string // genes wrapped as "|gene|", parallel to genes
	terms    []string
	minDepth int
	tracker  *Tracker

	mu      sync.Mutex
	pending map[EmittedKey]struct{} // matched but not yet committed
}

// NewConsequenceMatcher creates a matcher for one sample's gene set.
// The tracker may be shared across samples and matchers; keys are recorded
// in it by Commit.
func NewConsequenceMatcher(genes panel.GeneSet, terms []string, minDepth int, tracker *Tracker) *ConsequenceMatcher {
	var sorted, tokens []string
	for _, g := range genes.Sorted() {
		if g == "" {
			continue
		}
		sorted = append(sorted, g)
		tokens = append(tokens, "|"+g+"|")
	}
	return &ConsequenceMatcher{
		genes:    sorted,
		tokens:   tokens,
		terms:    terms,
		minDepth: minDepth,
		tracker:  tracker,
		pending:  make(map[EmittedKey]struct{}),
	}
}

// Match implements Matcher. A record produces at most one hit: every
// (block, term, gene) combination shares the same emitted key.
func (m *ConsequenceMatcher) Match(sample string, rec *vcf.Record) ([]Hit, error) {
	csqt, ok := rec.InfoField(csqtPrefix)
	if !ok {
		return nil, nil
	}

	gene, term, ok := m.find(csqt)
	if !ok {
		return nil, nil
	}

	ok, err := hasDepth(rec, m.minDepth)
	if err != nil || !ok {
		return nil, err
	}

	hit := Hit{
		Sample:      sample,
		Record:      rec,
		Gene:        gene,
		Consequence: term,
	}
	key := hit.Key()

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pending[key]; ok || m.tracker.Seen(key) {
		return nil, nil
	}
	m.pending[key] = struct{}{}
	return []Hit{hit}, nil
}

// Commit records the keys of hits that were written and returns the hits
// whose keys had not been recorded yet. Keys of hits that are never
// committed, for example from a sample that failed part way, stay free.
func (m *ConsequenceMatcher) Commit(hits []Hit) []Hit {
	m.mu.Lock()
	defer m.mu.Unlock()

	var kept []Hit
	for _, h := range hits {
		key := h.Key()
		delete(m.pending, key)
		if m.tracker.Mark(key) {
			kept = append(kept, h)
		}
	}
	return kept
}

// find returns the first gene and term matching a CSQT block, scanning
// blocks in order, then terms in configured order, then genes sorted.
func (m *ConsequenceMatcher) find(csqt string) (gene, term string, ok bool) {
	for _, block := range strings.Split(csqt, ",") {
		for _, t := range m.terms {
			if !strings.Contains(block, t) {
				continue
			}
			for i, tok := range m.tokens {
				if strings.Contains(block, tok) {
					return m.genes[i], t, true
				}
			}
		}
	}
	return "", "", false
}
