// Package cohort reads the per-run sample manifest and resolves the genes of
// interest for each participant.
package cohort

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-filter/internal/textio"
)

// headerPrefix marks an optional header row in samples files.
const headerPrefix = "Participant"

// Sample is one participant and the location of their VCF.
type Sample struct {
	ID      string
	VCFPath string
}

// LoadSamples reads a tab-delimited "participant_id<TAB>vcf_path" file.
// A header row starting with "Participant" and blank lines are skipped;
// rows with fewer than two columns are logged and skipped.
func LoadSamples(path string, logger *zap.Logger) ([]Sample, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	r, err := textio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open samples file: %w", err)
	}
	defer r.Close()

	var samples []Sample
	for {
		line, err := r.Next()
		if err == io.EOF {
			return samples, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read samples file %s: %w", path, err)
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, headerPrefix) {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			logger.Warn("skipping samples row without a VCF path",
				zap.String("path", path),
				zap.Int("line", r.LineNumber()))
			continue
		}
		samples = append(samples, Sample{ID: fields[0], VCFPath: fields[1]})
	}
}
