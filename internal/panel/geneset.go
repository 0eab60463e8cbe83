// Package panel builds gene sets from PanelApp-style panel files and plain gene lists.
package panel

import "sort"

// GeneSet is a set of gene symbols.
type GeneSet map[string]struct{}

// NewGeneSet creates a set holding the given genes.
func NewGeneSet(genes ...string) GeneSet {
	s := make(GeneSet, len(genes))
	for _, g := range genes {
		s.Add(g)
	}
	return s
}

// Add inserts a gene symbol.
func (s GeneSet) Add(gene string) {
	s[gene] = struct{}{}
}

// Has reports whether gene is in the set.
func (s GeneSet) Has(gene string) bool {
	_, ok := s[gene]
	return ok
}

// Union adds every gene of other to s.
func (s GeneSet) Union(other GeneSet) {
	for g := range other {
		s[g] = struct{}{}
	}
}

// Len returns the number of genes.
func (s GeneSet) Len() int {
	return len(s)
}

// Sorted returns the genes in lexical order.
func (s GeneSet) Sorted() []string {
	genes := make([]string, 0, len(s))
	for g := range s {
		genes = append(genes, g)
	}
	sort.Strings(genes)
	return genes
}
