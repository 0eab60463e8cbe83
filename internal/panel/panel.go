package panel

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-filter/internal/textio"
)

// Panel file columns.
const (
	colEntityType  = 1
	colGeneSymbol  = 2
	colConfidence  = 3
	colInheritance = 7
)

// DefaultMinColumns is the number of columns a complete panel row carries.
// Shorter rows come from truncated upstream exports and are skipped.
const DefaultMinColumns = 14

// ExpertReviewGreen is the confidence label of high-evidence panel genes.
const ExpertReviewGreen = "Expert Review Green"

// DefaultModes are the accepted inheritance mode prefixes.
var DefaultModes = []string{"MONOALLELIC", "BOTH", "BIALLELIC"}

// Options controls which panel rows are admitted into a GeneSet.
type Options struct {
	MinColumns int      // rows with fewer tab-separated fields are skipped
	Confidence string   // required substring of the confidence label; empty admits all
	Modes      []string // accepted inheritance mode prefixes
	Logger     *zap.Logger
}

// DefaultOptions returns options admitting genes of every default mode at any confidence.
func DefaultOptions() Options {
	return Options{
		MinColumns: DefaultMinColumns,
		Modes:      DefaultModes,
	}
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Load reads the given panel files and returns the union of admitted genes.
func Load(opts Options, paths ...string) (GeneSet, error) {
	genes := make(GeneSet)
	for _, path := range paths {
		r, err := textio.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open panel file: %w", err)
		}
		err = Parse(r, opts, genes)
		r.Close()
		if err != nil {
			return nil, fmt.Errorf("parse panel %s: %w", path, err)
		}
	}
	return genes, nil
}

// Parse adds the admitted genes of one panel stream to genes.
// Rows that do not qualify are skipped without error.
func Parse(r *textio.Reader, opts Options, genes GeneSet) error {
	var admitted, skipped int
	for {
		line, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		gene, ok := admit(strings.Split(strings.TrimSpace(line), "\t"), opts)
		if !ok {
			skipped++
			continue
		}
		genes.Add(gene)
		admitted++
	}

	opts.logger().Debug("panel parsed",
		zap.Int("admitted", admitted),
		zap.Int("skipped", skipped))
	return nil
}

// admit returns the gene symbol of a panel row if the row qualifies.
func admit(fields []string, opts Options) (string, bool) {
	if len(fields) < opts.MinColumns || len(fields) <= colInheritance {
		return "", false
	}
	if fields[colEntityType] != "gene" {
		return "", false
	}
	gene := strings.TrimSpace(fields[colGeneSymbol])
	if gene == "" {
		return "", false
	}
	if opts.Confidence != "" && !strings.Contains(fields[colConfidence], opts.Confidence) {
		return "", false
	}
	for _, mode := range opts.Modes {
		if strings.HasPrefix(fields[colInheritance], mode) {
			return gene, true
		}
	}
	return "", false
}

// LoadGeneList reads a gene list file: the first tab-separated field of
// each non-blank line is a gene symbol.
func LoadGeneList(path string) (GeneSet, error) {
	r, err := textio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gene list: %w", err)
	}
	defer r.Close()

	genes := make(GeneSet)
	for {
		line, err := r.Next()
		if err == io.EOF {
			return genes, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read gene list %s: %w", path, err)
		}
		gene, _, _ := strings.Cut(strings.TrimSpace(line), "\t")
		if gene != "" {
			genes.Add(gene)
		}
	}
}
