package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-filter/internal/filter"
)

// Hit modes stored in the mode column.
const (
	ModeSpliceAI    = "spliceai"
	ModeConsequence = "consequence"
)

// HitRow is a stored hit.
type HitRow struct {
	Sample        string
	Mode          string
	Chrom         string
	Pos           int64
	Ref           string
	Alt           string
	Gene          string
	Consequence   sql.NullString
	MaxScore      sql.NullFloat64
	Depth         sql.NullInt32
	VCFLine       string
	ReferenceLine sql.NullString
}

// WriteHits batch-inserts hits using the Appender API.
func (s *Store) WriteHits(hits []filter.Hit) error {
	if len(hits) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "filtered_variants")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, h := range hits {
		r := h.Record
		mode := ModeConsequence
		var consequence, maxScore, refLine any
		if h.Reference != nil {
			mode = ModeSpliceAI
			maxScore = h.Reference.MaxScore
			refLine = h.Reference.Line
		} else {
			consequence = h.Consequence
		}
		var depth any
		if dp, err := r.Depth(); err == nil {
			depth = int32(dp)
		}

		if err := appender.AppendRow(
			h.Sample, mode, r.Chrom, r.Pos, r.Ref, r.Alt, h.Gene,
			consequence, maxScore, depth, r.Line, refLine,
		); err != nil {
			return fmt.Errorf("append hit: %w", err)
		}
	}

	return appender.Flush()
}

// HitCount returns the number of stored hits.
func (s *Store) HitCount() (int64, error) {
	var count int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM filtered_variants").Scan(&count); err != nil {
		return 0, fmt.Errorf("count hits: %w", err)
	}
	return count, nil
}

// HitsBySample returns the stored hits of a participant in position order.
func (s *Store) HitsBySample(sample string) ([]HitRow, error) {
	rows, err := s.db.Query(`SELECT
		sample, mode, chrom, pos, ref, alt, gene,
		consequence, max_score, depth, vcf_line, reference_line
		FROM filtered_variants
		WHERE sample=?
		ORDER BY chrom, pos, ref, alt`, sample)
	if err != nil {
		return nil, fmt.Errorf("query hits: %w", err)
	}
	defer rows.Close()

	var result []HitRow
	for rows.Next() {
		var h HitRow
		if err := rows.Scan(
			&h.Sample, &h.Mode, &h.Chrom, &h.Pos, &h.Ref, &h.Alt, &h.Gene,
			&h.Consequence, &h.MaxScore, &h.Depth, &h.VCFLine, &h.ReferenceLine,
		); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		result = append(result, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hits: %w", err)
	}
	return result, nil
}

// ClearMode removes the stored hits of one mode, so a rerun replaces them.
func (s *Store) ClearMode(mode string) error {
	if _, err := s.db.Exec("DELETE FROM filtered_variants WHERE mode=?", mode); err != nil {
		return fmt.Errorf("clear %s hits: %w", mode, err)
	}
	return nil
}
