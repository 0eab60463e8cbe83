// Package vcf provides VCF file parsing functionality.
package vcf

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is a single VCF data line. Columns are kept as raw strings so the
// original line can be written back out unchanged.
type Record struct {
	Line    string   // Full data line, surrounding whitespace trimmed
	Chrom   string   // Chromosome name as written (e.g., "13", "chr13")
	Pos     int64    // 1-based genomic position
	ID      string   // Variant identifier (e.g., rs ID)
	Ref     string   // Reference allele
	Alt     string   // Alternate allele(s), comma-separated if multi-allelic
	Filter  string   // Filter status (PASS or filter names)
	Info    string   // Raw INFO column
	Format  string   // Raw FORMAT column, empty if absent
	Samples []string // Genotype columns after FORMAT
}

// Key returns the normalized variant key "chr{chrom}-{pos}-{ref}-{alt}".
func (r *Record) Key() string {
	return VariantKey(r.Chrom, r.Pos, r.Ref, r.Alt)
}

// VariantKey formats a variant coordinate as "chr{chrom}-{pos}-{ref}-{alt}".
// "13" and "chr13" produce the same key.
func VariantKey(chrom string, pos int64, ref, alt string) string {
	return "chr" + strings.TrimPrefix(chrom, "chr") + "-" + strconv.FormatInt(pos, 10) + "-" + ref + "-" + alt
}

// Passed reports whether the FILTER column is exactly PASS.
func (r *Record) Passed() bool {
	return r.Filter == "PASS"
}

// FirstSample returns the first genotype column, or "" if there is none.
func (r *Record) FirstSample() string {
	if len(r.Samples) == 0 {
		return ""
	}
	return r.Samples[0]
}

// IsHomRef reports whether the first sample's genotype starts with 0/0.
func (r *Record) IsHomRef() bool {
	return strings.HasPrefix(r.FirstSample(), "0/0")
}

// InfoField returns the value of the first ';'-separated INFO entry that
// starts with prefix, with the prefix removed.
func (r *Record) InfoField(prefix string) (string, bool) {
	for _, kv := range strings.Split(r.Info, ";") {
		if strings.HasPrefix(kv, prefix) {
			return kv[len(prefix):], true
		}
	}
	return "", false
}

// FormatMap maps a FORMAT field name to its index within a genotype column.
type FormatMap map[string]int

// ParseFormat builds a FormatMap from a colon-separated FORMAT column.
func ParseFormat(format string) FormatMap {
	fields := strings.Split(format, ":")
	m := make(FormatMap, len(fields))
	for i, f := range fields {
		m[f] = i
	}
	return m
}

// Value returns the named field from a colon-separated genotype column.
func (m FormatMap) Value(sample, field string) (string, bool) {
	idx, ok := m[field]
	if !ok {
		return "", false
	}
	values := strings.Split(sample, ":")
	if idx >= len(values) {
		return "", false
	}
	return values[idx], true
}

// Depth returns the DP value of the first sample, resolved through the
// record's FORMAT column.
func (r *Record) Depth() (int, error) {
	if r.Format == "" {
		return 0, fmt.Errorf("no FORMAT column")
	}
	raw, ok := ParseFormat(r.Format).Value(r.FirstSample(), "DP")
	if !ok {
		return 0, fmt.Errorf("no DP value in %q", r.FirstSample())
	}
	dp, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid DP %q: %w", raw, err)
	}
	return dp, nil
}
