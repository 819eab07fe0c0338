package report

import (
	"strings"
	"testing"

	"github.com/biocore/asmqc/encoding/fasta"
	"github.com/biocore/asmqc/misassembly"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAssemblyResult(t *testing.T) {
	result := misassembly.NewAssemblyResult()
	result.TotalAlignedBases = 900
	result.UnalignedBases = 100
	result.MisassembledContigs = []misassembly.MisassembledContig{{Name: "c1", Length: 500}}
	result.MisassemblyCounts[misassembly.Inversion] = 1

	var buf strings.Builder
	require.NoError(t, WriteAssemblyResult(&buf, "asm1", result))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "#ASSEMBLY\t"))
	assert.Contains(t, out, "asm1\t900\t100\t0")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 2)
}

func TestWriteContigEvents(t *testing.T) {
	contigs := []misassembly.ContigReport{
		{
			Name:    "c1",
			Length:  1000,
			Verdict: misassembly.VerdictMulti,
			Events: []misassembly.PairEvent{
				{Kind: misassembly.Relocation, Inconsistency: 2000},
			},
		},
	}
	var buf strings.Builder
	require.NoError(t, WriteContigEvents(&buf, contigs))

	out := buf.String()
	assert.Contains(t, out, "c1\tlen=1000\tverdict=MULTI\tn_events=1")
	assert.Contains(t, out, "RELOCATION")
	assert.Contains(t, out, "REAL")
}

func TestWriteFilteredCoords(t *testing.T) {
	contigs := []misassembly.ContigReport{
		{
			Name: "c1",
			Aligns: []misassembly.Alignment{
				{RefName: "R", RefStart: 1, RefEnd: 500, CtgName: "c1", CtgStart: 1, CtgEnd: 500, Identity: 99.5},
			},
		},
	}
	var buf strings.Builder
	require.NoError(t, WriteFilteredCoords(&buf, contigs))

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3) // two header lines + one record
	assert.Contains(t, lines[2], "1 500 | 1 500 | 500 500 | 99.5000 | R\tc1")
}

func TestWriteMisassemblyInfoSkipsCleanContigs(t *testing.T) {
	contigs := []misassembly.ContigReport{
		{Name: "clean", Length: 500, Events: []misassembly.PairEvent{{Kind: misassembly.ScaffoldGap, Fake: true}}},
		{Name: "dirty", Length: 800, Events: []misassembly.PairEvent{{Kind: misassembly.Inversion}}},
	}
	var buf strings.Builder
	require.NoError(t, WriteMisassemblyInfo(&buf, contigs))

	out := buf.String()
	assert.NotContains(t, out, "clean")
	assert.Contains(t, out, "dirty\tlen=800\tINVERSION=1")
}

func TestAlignmentsByReference(t *testing.T) {
	contigs := []misassembly.ContigReport{
		{
			Name:    "c1",
			Verdict: misassembly.VerdictUnique,
			Aligns: []misassembly.Alignment{
				{RefName: "chr2", RefStart: 500, RefEnd: 600, CtgName: "c1", CtgStart: 1, CtgEnd: 100, Identity: 99},
			},
		},
		{
			Name:    "c2",
			Verdict: misassembly.VerdictAmbiguous,
			Aligns: []misassembly.Alignment{
				{RefName: "chr1", RefStart: 1, RefEnd: 100, CtgName: "c2", CtgStart: 1, CtgEnd: 100, Identity: 98},
			},
		},
	}

	byRef := AlignmentsByReference(contigs)
	require.Len(t, byRef, 2)
	require.Len(t, byRef["chr2"], 1)
	assert.Equal(t, "c1", byRef["chr2"][0].CtgName)
	assert.True(t, byRef["chr1"][0].Ambiguous)

	var buf strings.Builder
	require.NoError(t, WriteAlignmentsByReference(&buf, byRef))
	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "chr1\tc2")
	assert.Contains(t, lines[0], "ambiguous")
	assert.Contains(t, lines[1], "chr2\tc1")
}

func TestWriteMisassembledContigsFasta(t *testing.T) {
	f, err := fasta.New(strings.NewReader(">c1\n" + strings.Repeat("ACGT", 20) + "\n>c2\nTTTT\n"))
	require.NoError(t, err)

	result := misassembly.NewAssemblyResult()
	result.MisassembledContigs = []misassembly.MisassembledContig{{Name: "c1", Length: 80}}

	var buf strings.Builder
	require.NoError(t, WriteMisassembledContigsFasta(&buf, f, result))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, ">c1\n"))
	assert.NotContains(t, out, ">c2")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// 80 bases wrapped at 70 -> header + 2 sequence lines.
	require.Len(t, lines, 3)
	assert.Len(t, lines[1], 70)
	assert.Len(t, lines[2], 10)
}
