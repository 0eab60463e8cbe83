// Package vcf provides VCF file parsing functionality.
package vcf

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-filter/internal/textio"
)

// minColumns is the number of fixed columns up to and including INFO.
const minColumns = 8

// Parser reads records from a VCF stream.
// Header lines (starting with '#') are skipped.
type Parser struct {
	reader *textio.Reader
}

// NewParser opens a VCF file for parsing.
// Supports both plain VCF and gzipped VCF (.vcf.gz) files.
func NewParser(path string) (*Parser, error) {
	r, err := textio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}
	return &Parser{reader: r}, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader) (*Parser, error) {
	tr, err := textio.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open vcf stream: %w", err)
	}
	return &Parser{reader: tr}, nil
}

// Next reads the next record.
// Returns nil, nil when there are no more records. A malformed line yields a
// *ParseError; the parser stays usable and the following call moves on.
func (p *Parser) Next() (*Record, error) {
	for {
		line, err := p.reader.Next()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read variant line: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		return p.parseLine(line)
	}
}

// parseLine parses a single VCF data line into a Record.
func (p *Parser) parseLine(line string) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < minColumns {
		return nil, &ParseError{
			Line:    p.reader.LineNumber(),
			Message: fmt.Sprintf("expected at least %d columns, found %d", minColumns, len(fields)),
		}
	}

	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, &ParseError{
			Line:    p.reader.LineNumber(),
			Message: fmt.Sprintf("invalid position: %s", fields[1]),
		}
	}

	rec := &Record{
		Line:   line,
		Chrom:  fields[0],
		Pos:    pos,
		ID:     fields[2],
		Ref:    fields[3],
		Alt:    fields[4],
		Filter: fields[6],
		Info:   fields[7],
	}

	// Capture FORMAT + sample columns if present
	if len(fields) > 8 {
		rec.Format = fields[8]
		rec.Samples = fields[9:]
	}

	return rec, nil
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.reader.LineNumber()
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	return p.reader.Close()
}

// ParseError represents an error during VCF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}
