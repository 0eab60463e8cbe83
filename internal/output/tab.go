// Package output provides hit output formatters.
package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/inodb/vibe-filter/internal/filter"
)

// Output file suffixes appended to the samples file path.
const (
	SpliceAISuffix    = "_variants_out_SpliceAI.txt"
	ConsequenceSuffix = "_variants_out1.txt"
)

// DefaultPath returns the output path for a samples file: the samples path
// with suffix appended.
func DefaultPath(samplesPath, suffix string) string {
	return samplesPath + suffix
}

// TabWriter writes hits as tab-delimited lines without a header.
type TabWriter struct {
	w     *bufio.Writer
	count int
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{w: bufio.NewWriter(w)}
}

// Write writes a single hit.
func (tw *TabWriter) Write(h filter.Hit) error {
	if _, err := tw.w.WriteString(strings.Join(h.Fields(), "\t") + "\n"); err != nil {
		return err
	}
	tw.count++
	return nil
}

// Count returns the number of hits written.
func (tw *TabWriter) Count() int {
	return tw.count
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
