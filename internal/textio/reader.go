// Package textio provides line-oriented reading of plain or gzipped text files.
package textio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Reader reads lines from a text stream that may be gzip-compressed.
type Reader struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
}

// Open opens the file at path for line reading.
// Gzip input is detected from its magic bytes, not the file extension.
func Open(path string) (*Reader, error) {
	if path == "-" {
		return NewReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	r, err := NewReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	r.file = file
	return r, nil
}

// NewReader wraps an io.Reader, transparently decompressing gzip streams.
func NewReader(src io.Reader) (*Reader, error) {
	br := bufio.NewReaderSize(src, 1<<16)
	r := &Reader{reader: br}

	// Check for gzip magic number (0x1f, 0x8b)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read header bytes: %w", err)
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		r.gzipReader, err = gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		r.reader = bufio.NewReaderSize(r.gzipReader, 1<<16)
	}

	return r, nil
}

// Next returns the next line without its trailing line terminator.
// Returns io.EOF when there are no more lines.
func (r *Reader) Next() (string, error) {
	line, err := r.reader.ReadString('\n')
	if err != nil {
		if err != io.EOF {
			return "", fmt.Errorf("read line %d: %w", r.lineNumber+1, err)
		}
		if line == "" {
			return "", io.EOF
		}
	}
	r.lineNumber++
	return strings.TrimRight(line, "\r\n"), nil
}

// LineNumber returns the number of the line most recently returned by Next.
func (r *Reader) LineNumber() int {
	return r.lineNumber
}

// Close releases the decompressor and the underlying file, if any.
func (r *Reader) Close() error {
	if r.gzipReader != nil {
		r.gzipReader.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
