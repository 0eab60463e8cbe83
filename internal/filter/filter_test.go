package filter

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-filter/internal/panel"
	"github.com/inodb/vibe-filter/internal/spliceai"
	"github.com/inodb/vibe-filter/internal/vcf"
)

const vcfHeader = "##fileformat=VCFv4.2\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tP1\n"

func vcfLine(cols ...string) string {
	return strings.Join(cols, "\t")
}

func parserFor(t *testing.T, lines ...string) *vcf.Parser {
	t.Helper()
	p, err := vcf.NewParserFromReader(strings.NewReader(vcfHeader + strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	return p
}

func buildIndex(t *testing.T, genes panel.GeneSet, lines ...string) *spliceai.Index {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spliceai.vcf")
	content := "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" + strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	idx, err := spliceai.Build(context.Background(), genes, spliceai.DefaultOptions(), path)
	require.NoError(t, err)
	return idx
}

func collect(t *testing.T, f *Filter, sample string, p *vcf.Parser) ([]Hit, Stats) {
	t.Helper()
	var hits []Hit
	stats, err := f.Run(context.Background(), sample, p, func(h Hit) error {
		hits = append(hits, h)
		return nil
	})
	require.NoError(t, err)
	return hits, stats
}

const brca2Ref = "13\t32900000\t.\tA\tG\t.\t.\tSpliceAI=G|BRCA2|0.1|0.05|0.3|0.0|-3|12|-3|40"

func TestSpliceAIMatcher_Example(t *testing.T) {
	idx := buildIndex(t, panel.NewGeneSet("BRCA2"), brca2Ref)
	f := New(NewSpliceAIMatcher(idx, DefaultMinDepth))

	emitted := vcfLine("13", "32900000", ".", "A", "G", ".", "PASS", "GENE=BRCA2", "GT:DP", "0/1:10")
	p := parserFor(t,
		emitted,
		vcfLine("13", "32900000", ".", "A", "G", ".", "PASS", "GENE=BRCA2", "GT:DP", "0/0:10"),
	)

	hits, stats := collect(t, f, "P1", p)
	require.Len(t, hits, 1)
	assert.Equal(t, 2, stats.Records)
	assert.Equal(t, 1, stats.Passed, "hom-ref call never passes")

	fields := hits[0].Fields()
	assert.Equal(t, []string{"P1", emitted, brca2Ref}, fields)
	assert.True(t, strings.HasPrefix(strings.Join(fields, "\t"), "P1\t13\t32900000"))
	assert.Equal(t, 0.3, hits[0].Reference.MaxScore)
	assert.Equal(t, "BRCA2", hits[0].Gene)
}

func TestSpliceAIMatcher_ChrPrefixedSample(t *testing.T) {
	idx := buildIndex(t, panel.NewGeneSet("BRCA2"), brca2Ref)
	f := New(NewSpliceAIMatcher(idx, DefaultMinDepth))

	p := parserFor(t, vcfLine("chr13", "32900000", ".", "A", "G", ".", "PASS", ".", "GT:AD:DP", "0/1:4,6:10"))

	hits, _ := collect(t, f, "P1", p)
	assert.Len(t, hits, 1)
}

func TestFilter_QualityGates(t *testing.T) {
	idx := buildIndex(t, panel.NewGeneSet("BRCA2"), brca2Ref)
	f := New(NewSpliceAIMatcher(idx, DefaultMinDepth))

	tests := []struct {
		name string
		line string
		want int
	}{
		{"pass het", vcfLine("13", "32900000", ".", "A", "G", ".", "PASS", ".", "GT:DP", "0/1:10"), 1},
		{"pass hom alt", vcfLine("13", "32900000", ".", "A", "G", ".", "PASS", ".", "GT:DP", "1/1:10"), 1},
		{"low quality filter", vcfLine("13", "32900000", ".", "A", "G", ".", "LowQual", ".", "GT:DP", "0/1:10"), 0},
		{"pass with suffix", vcfLine("13", "32900000", ".", "A", "G", ".", "PASS;x", ".", "GT:DP", "0/1:10"), 0},
		{"hom ref", vcfLine("13", "32900000", ".", "A", "G", ".", "PASS", ".", "GT:DP", "0/0:10"), 0},
		{"no sample column", vcfLine("13", "32900000", ".", "A", "G", ".", "PASS", "."), 0},
		{"depth six", vcfLine("13", "32900000", ".", "A", "G", ".", "PASS", ".", "GT:DP", "0/1:6"), 1},
		{"depth five", vcfLine("13", "32900000", ".", "A", "G", ".", "PASS", ".", "GT:DP", "0/1:5"), 0},
		{"depth missing", vcfLine("13", "32900000", ".", "A", "G", ".", "PASS", ".", "GT:GQ", "0/1:99"), 0},
		{"not in index", vcfLine("13", "32900001", ".", "A", "G", ".", "PASS", ".", "GT:DP", "0/1:10"), 0},
		{"other allele", vcfLine("13", "32900000", ".", "A", "T", ".", "PASS", ".", "GT:DP", "0/1:10"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, _ := collect(t, f, "P1", parserFor(t, tt.line))
			assert.Len(t, hits, tt.want)
		})
	}
}

func TestFilter_MalformedRecordsDoNotAbort(t *testing.T) {
	idx := buildIndex(t, panel.NewGeneSet("BRCA2"), brca2Ref)
	f := New(NewSpliceAIMatcher(idx, DefaultMinDepth))

	p := parserFor(t,
		"13\tnot-a-position\t.\tA\tG\t.\tPASS\t.\tGT:DP\t0/1:10",
		vcfLine("13", "32900000", ".", "A", "G", ".", "PASS", ".", "GT:DP", "0/1:abc"),
		vcfLine("13", "32900000", ".", "A", "G", ".", "PASS", ".", "GT:DP", "0/1:10"),
	)

	hits, stats := collect(t, f, "P1", p)
	assert.Len(t, hits, 1)
	assert.Equal(t, 2, stats.Rejected)
	assert.Equal(t, 1, stats.Emitted)
}

func TestFilter_RunFileMissing(t *testing.T) {
	f := New(NewSpliceAIMatcher(buildIndex(t, panel.NewGeneSet("BRCA2")), DefaultMinDepth))

	_, err := f.RunFile(context.Background(), "P1", filepath.Join(t.TempDir(), "p1.vcf.gz"), func(Hit) error { return nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func csqtLine(info, sample string) string {
	return vcfLine("1", "207496000", ".", "C", "T", ".", "PASS", info, "GT:AD:DP", sample)
}

func TestConsequenceMatcher_ExactGeneToken(t *testing.T) {
	tests := []struct {
		name  string
		genes []string
		info  string
		want  int
	}{
		{"exact gene", []string{"CR1"}, "DP=10;CSQT=1|CR1|ENST0001|missense_variant", 1},
		{"longer gene name", []string{"CR1"}, "DP=10;CSQT=1|CR1L|ENST0002|missense_variant", 0},
		{"gene in second block", []string{"CR1"}, "CSQT=1|CR1L|ENST0002|missense_variant,1|CR1|ENST0001|stop_gained", 1},
		{"uninteresting consequence", []string{"CR1"}, "CSQT=1|CR1|ENST0001|synonymous_variant", 0},
		{"gene and term in different blocks", []string{"CR1"}, "CSQT=1|CR1|ENST0001|synonymous_variant,1|CR1L|ENST0002|missense_variant", 0},
		{"no CSQT", []string{"CR1"}, "CSQ=1|CR1|ENST0001|missense_variant", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewConsequenceMatcher(panel.NewGeneSet(tt.genes...), DefaultConsequences, DefaultMinDepth, NewTracker())
			hits, _ := collect(t, New(m), "P1", parserFor(t, csqtLine(tt.info, "0/1:2,8:10")))
			assert.Len(t, hits, tt.want)
		})
	}
}

func TestConsequenceMatcher_DedupAcrossCombinations(t *testing.T) {
	tracker := NewTracker()
	m := NewConsequenceMatcher(panel.NewGeneSet("CR1", "CR2"), DefaultConsequences, DefaultMinDepth, tracker)

	line := csqtLine("CSQT=1|CR1|ENST0001|missense_variant&splice_region_variant,1|CR2|ENST0003|stop_gained", "0/1:2,8:10")
	p := parserFor(t, line, line)

	hits, stats := collect(t, New(m), "P1", p)
	require.Len(t, hits, 1)
	assert.Equal(t, 2, stats.Passed)
	assert.Equal(t, []string{"P1", line, "CR1", "missense"}, hits[0].Fields())
	assert.Zero(t, tracker.Len(), "keys are recorded on commit")

	assert.Len(t, m.Commit(hits), 1)
	assert.Equal(t, 1, tracker.Len())
	assert.True(t, tracker.Seen(EmittedKey{Sample: "P1", Chrom: "1", Pos: 207496000, Ref: "C", Alt: "T"}))

	hits, _ = collect(t, New(m), "P1", parserFor(t, line))
	assert.Empty(t, hits, "committed keys are not emitted again")

	// Same variant for another participant is a separate key.
	hits, _ = collect(t, New(m), "P2", parserFor(t, line))
	assert.Len(t, m.Commit(hits), 1)
	assert.Equal(t, 2, tracker.Len())
}

func TestConsequenceMatcher_UncommittedHitsStayFree(t *testing.T) {
	tracker := NewTracker()
	line := csqtLine("CSQT=1|CR1|ENST0001|missense_variant", "0/1:2,8:10")

	// A sample that fails part way never commits its hits.
	failed := NewConsequenceMatcher(panel.NewGeneSet("CR1"), DefaultConsequences, DefaultMinDepth, tracker)
	hits, _ := collect(t, New(failed), "P1", parserFor(t, line))
	require.Len(t, hits, 1)

	retry := NewConsequenceMatcher(panel.NewGeneSet("CR1"), DefaultConsequences, DefaultMinDepth, tracker)
	hits, _ = collect(t, New(retry), "P1", parserFor(t, line))
	require.Len(t, hits, 1)
	assert.Len(t, retry.Commit(hits), 1)

}

func TestConsequenceMatcher_CommitDropsConcurrentDuplicates(t *testing.T) {
	tracker := NewTracker()
	line := csqtLine("CSQT=1|CR1|ENST0001|missense_variant", "0/1:2,8:10")

	first := NewConsequenceMatcher(panel.NewGeneSet("CR1"), DefaultConsequences, DefaultMinDepth, tracker)
	second := NewConsequenceMatcher(panel.NewGeneSet("CR1"), DefaultConsequences, DefaultMinDepth, tracker)
	a, _ := collect(t, New(first), "P1", parserFor(t, line))
	b, _ := collect(t, New(second), "P1", parserFor(t, line))
	require.Len(t, a, 1)
	require.Len(t, b, 1)

	assert.Len(t, first.Commit(a), 1)
	assert.Empty(t, second.Commit(b))
	assert.Equal(t, 1, tracker.Len())
}

func TestConsequenceMatcher_FirstCSQTEntry(t *testing.T) {
	m := NewConsequenceMatcher(panel.NewGeneSet("CR1", "NF1"), DefaultConsequences, DefaultMinDepth, NewTracker())
	line := csqtLine("CSQT=1|CR1|ENST0001|missense_variant;CSQT=1|NF1|ENST0002|stop_gained", "0/1:2,8:10")

	hits, _ := collect(t, New(m), "P1", parserFor(t, line))
	require.Len(t, hits, 1)
	assert.Equal(t, "CR1", hits[0].Gene)
	assert.Equal(t, "missense", hits[0].Consequence)

	m = NewConsequenceMatcher(panel.NewGeneSet("NF1"), DefaultConsequences, DefaultMinDepth, NewTracker())
	hits, _ = collect(t, New(m), "P1", parserFor(t, line))
	assert.Empty(t, hits, "later CSQT entries are ignored")
}

func TestConsequenceMatcher_EmptyGeneIgnored(t *testing.T) {
	m := NewConsequenceMatcher(panel.NewGeneSet("", "CR1"), DefaultConsequences, DefaultMinDepth, NewTracker())
	line := csqtLine("CSQT=1|UNRELATED||missense_variant", "0/1:2,8:10")

	hits, _ := collect(t, New(m), "P1", parserFor(t, line))
	assert.Empty(t, hits)
}

func TestConsequenceMatcher_TermOrder(t *testing.T) {
	m := NewConsequenceMatcher(panel.NewGeneSet("NF1"), DefaultConsequences, DefaultMinDepth, NewTracker())
	line := csqtLine("CSQT=1|NF1|ENST0001|splice_region_variant&stop_gained", "0/1:2,8:10")

	hits, _ := collect(t, New(m), "P1", parserFor(t, line))
	require.Len(t, hits, 1)
	assert.Equal(t, "stop_gained", hits[0].Consequence)
}

func TestConsequenceMatcher_Depth(t *testing.T) {
	tests := []struct {
		name   string
		format string
		sample string
		want   int
	}{
		{"depth six", "GT:AD:DP", "0/1:2,4:6", 1},
		{"depth five", "GT:AD:DP", "0/1:2,3:5", 0},
		{"DP resolved from FORMAT", "GT:AD:GQ:DP", "0/1:2,8:3:10", 1},
		{"GQ in fourth column is not depth", "GT:AD:DP:GQ", "0/1:2,3:5:99", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewConsequenceMatcher(panel.NewGeneSet("CR1"), DefaultConsequences, DefaultMinDepth, NewTracker())
			line := vcfLine("1", "100", ".", "C", "T", ".", "PASS", "CSQT=1|CR1|ENST0001|frameshift_variant", tt.format, tt.sample)
			hits, _ := collect(t, New(m), "P1", parserFor(t, line))
			assert.Len(t, hits, tt.want)
		})
	}
}

func TestTracker_Mark(t *testing.T) {
	tr := NewTracker()
	k := EmittedKey{Sample: "P1", Chrom: "1", Pos: 1, Ref: "A", Alt: "C"}

	assert.False(t, tr.Seen(k))
	assert.True(t, tr.Mark(k))
	assert.False(t, tr.Mark(k))
	assert.True(t, tr.Seen(k))
	assert.Equal(t, 1, tr.Len())
}
