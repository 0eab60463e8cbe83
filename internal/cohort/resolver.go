package cohort

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/inodb/vibe-filter/internal/panel"
	"github.com/inodb/vibe-filter/internal/textio"
)

// ErrNoPanels is returned when a participant has no panel assignment.
var ErrNoPanels = errors.New("panels unknown")

// Assignments maps a participant ID to its panel file paths in file order.
type Assignments map[string][]string

// LoadAssignments reads a tab-delimited "participant_id<TAB>panel_path" file.
// Repeated IDs accumulate panels.
func LoadAssignments(path string) (Assignments, error) {
	r, err := textio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open panels file: %w", err)
	}
	defer r.Close()

	a := make(Assignments)
	for {
		line, err := r.Next()
		if err == io.EOF {
			return a, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read panels file %s: %w", path, err)
		}
		fields := strings.Split(strings.TrimSpace(line), "\t")
		if len(fields) < 2 {
			continue
		}
		a[fields[0]] = append(a[fields[0]], fields[1])
	}
}

// Resolver computes the gene set of interest for each participant: the union
// of the participant's panels and a supplementary gene list shared by all.
type Resolver struct {
	assignments   Assignments
	supplementary panel.GeneSet
	opts          panel.Options

	mu     sync.Mutex
	panels map[string]panel.GeneSet // parsed panels by path
}

// NewResolver creates a resolver. Panel files are parsed with opts on first
// use and reused for later participants sharing the same panel.
func NewResolver(assignments Assignments, supplementary panel.GeneSet, opts panel.Options) *Resolver {
	if supplementary == nil {
		supplementary = make(panel.GeneSet)
	}
	return &Resolver{
		assignments:   assignments,
		supplementary: supplementary,
		opts:          opts,
		panels:        make(map[string]panel.GeneSet),
	}
}

// Resolve returns a fresh gene set for the participant.
// Returns ErrNoPanels if the participant has no assigned panels.
func (r *Resolver) Resolve(participantID string) (panel.GeneSet, error) {
	paths, ok := r.assignments[participantID]
	if !ok || len(paths) == 0 {
		return nil, fmt.Errorf("%s: %w", participantID, ErrNoPanels)
	}

	genes := make(panel.GeneSet)
	for _, path := range paths {
		p, err := r.panel(path)
		if err != nil {
			return nil, err
		}
		genes.Union(p)
	}
	genes.Union(r.supplementary)
	return genes, nil
}

func (r *Resolver) panel(path string) (panel.GeneSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.panels[path]; ok {
		return p, nil
	}
	p, err := panel.Load(r.opts, path)
	if err != nil {
		return nil, err
	}
	r.panels[path] = p
	return p, nil
}
