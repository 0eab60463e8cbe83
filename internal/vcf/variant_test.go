package vcf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariantKey(t *testing.T) {
	tests := []struct {
		name  string
		chrom string
		want  string
	}{
		{"bare chromosome", "13", "chr13-32900000-A-G"},
		{"prefixed chromosome", "chr13", "chr13-32900000-A-G"},
		{"sex chromosome", "X", "chrX-32900000-A-G"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VariantKey(tt.chrom, 32900000, "A", "G"))
		})
	}
}

func TestRecord_IsHomRef(t *testing.T) {
	tests := []struct {
		name    string
		samples []string
		want    bool
	}{
		{"hom ref", []string{"0/0:10"}, true},
		{"het", []string{"0/1:10"}, false},
		{"phased hom ref", []string{"0|0:10"}, false},
		{"no sample", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Record{Samples: tt.samples}
			assert.Equal(t, tt.want, r.IsHomRef())
		})
	}
}

func TestRecord_InfoField(t *testing.T) {
	r := &Record{Info: "DP=20;CSQT=1|A|x,1|B|y;CSQT=2|C|z"}

	v, ok := r.InfoField("CSQT=")
	require.True(t, ok)
	assert.Equal(t, "1|A|x,1|B|y", v)

	_, ok = r.InfoField("CSQ=")
	assert.False(t, ok)
}

func TestParseFormat(t *testing.T) {
	m := ParseFormat("GT:AD:DP:GQ")
	assert.Equal(t, FormatMap{"GT": 0, "AD": 1, "DP": 2, "GQ": 3}, m)

	v, ok := m.Value("0/1:3,7:10:99", "DP")
	require.True(t, ok)
	assert.Equal(t, "10", v)

	_, ok = m.Value("0/1:3,7", "DP")
	assert.False(t, ok, "truncated genotype column")

	_, ok = m.Value("0/1:3,7:10:99", "PL")
	assert.False(t, ok)
}

func TestRecord_Depth(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		sample  string
		want    int
		wantErr bool
	}{
		{"DP second", "GT:DP", "0/1:10", 10, false},
		{"DP fourth", "GT:AD:GQ:DP", "0/1:3,7:99:6", 6, false},
		{"DP first", "DP:GT", "25:1/1", 25, false},
		{"missing DP", "GT:AD", "0/1:3,7", 0, true},
		{"non-numeric DP", "GT:DP", "0/1:.", 0, true},
		{"no format", "", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Record{Format: tt.format, Samples: []string{tt.sample}}
			got, err := r.Depth()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
