package misassembly

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/biocore/asmqc/encoding/fasta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coordsLine(rs, re, cs, ce, rlen, clen int64, idy float64, refName, ctgName string) string {
	return fmt.Sprintf("%d %d | %d %d | %d %d | %.4f | %s\t%s", rs, re, cs, ce, rlen, clen, idy, refName, ctgName)
}

func coordsStream(lines ...string) io.Reader {
	var b strings.Builder
	b.WriteString("/path/to/ref /path/to/contigs\nNUCMER\n")
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
	return strings.NewReader(b.String())
}

func oneContigFasta(t *testing.T, name, seq string) fasta.Fasta {
	t.Helper()
	f, err := fasta.New(strings.NewReader(">" + name + "\n" + seq + "\n"))
	require.NoError(t, err)
	return f
}

func TestAnalyzeE1UniqueAlignment(t *testing.T) {
	cfg := DefaultConfig()
	refs := ReferenceIndex{"R": &ReferenceEntry{Name: "R", Length: 1000, Group: "g"}}
	input := AssemblyInput{
		Name:    "asm",
		Contigs: oneContigFasta(t, "C1", strings.Repeat("A", 500)),
		Coords:  []io.Reader{coordsStream(coordsLine(100, 599, 1, 500, 500, 500, 100.0, "R", "C1"))},
	}

	out, err := Analyze(context.Background(), input, refs, cfg)
	require.NoError(t, err)

	assert.EqualValues(t, 500, out.Result.TotalAlignedBases)
	assert.Zero(t, out.Result.UnalignedBases)
	assert.Zero(t, out.Result.PartiallyUnalignedContigs)
	assert.Empty(t, out.Result.MisassembledContigs)
}

func TestAnalyzeE2Inversion(t *testing.T) {
	cfg := DefaultConfig()
	refs := ReferenceIndex{"R": &ReferenceEntry{Name: "R", Length: 1000, Group: "g"}}
	input := AssemblyInput{
		Name:    "asm",
		Contigs: oneContigFasta(t, "C2", strings.Repeat("A", 800)),
		Coords: []io.Reader{coordsStream(
			coordsLine(1, 400, 1, 400, 400, 400, 99.0, "R", "C2"),
			coordsLine(401, 800, 800, 401, 400, 400, 99.0, "R", "C2"),
		)},
	}

	out, err := Analyze(context.Background(), input, refs, cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, out.Result.MisassemblyCounts[Inversion])
	require.Len(t, out.Result.MisassembledContigs, 1)
	assert.Equal(t, "C2", out.Result.MisassembledContigs[0].Name)
}

func TestAnalyzeE3ScaffoldGap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScaffoldsMode = true
	refs := ReferenceIndex{"R": &ReferenceEntry{Name: "R", Length: 1200, Group: "g"}}
	seq := strings.Repeat("A", 500) + strings.Repeat("N", 200) + strings.Repeat("A", 500)
	input := AssemblyInput{
		Name:    "asm",
		Contigs: oneContigFasta(t, "C3", seq),
		Coords: []io.Reader{coordsStream(
			coordsLine(1, 500, 1, 500, 500, 500, 99.0, "R", "C3"),
			coordsLine(601, 1100, 701, 1200, 500, 500, 99.0, "R", "C3"),
		)},
	}

	out, err := Analyze(context.Background(), input, refs, cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, out.Result.MisassemblyCounts[ScaffoldGap])
	assert.Empty(t, out.Result.MisassembledContigs)
}

func TestAnalyzeE4InterspeciesTranslocation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CombinedReferenceMode = true
	refs := ReferenceIndex{
		"A": &ReferenceEntry{Name: "A", Length: 1000, Group: "speciesA"},
		"B": &ReferenceEntry{Name: "B", Length: 1000, Group: "speciesB"},
	}
	input := AssemblyInput{
		Name:    "asm",
		Contigs: oneContigFasta(t, "C4", strings.Repeat("A", 600)),
		Coords: []io.Reader{coordsStream(
			coordsLine(1, 300, 1, 300, 300, 300, 99.0, "A", "C4"),
			coordsLine(1, 300, 301, 600, 300, 300, 99.0, "B", "C4"),
		)},
	}

	out, err := Analyze(context.Background(), input, refs, cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, out.Result.MisassemblyCounts[InterspeciesTranslocation])
	assert.Equal(t, 1, out.Result.InterTranslocationMatrix["speciesA"]["speciesB"])
	assert.Equal(t, 1, out.Result.InterTranslocationMatrix["speciesB"]["speciesA"])
}

func TestAnalyzeE5AmbiguousPolicyNone(t *testing.T) {
	cfg := DefaultConfig()
	refs := ReferenceIndex{"R": &ReferenceEntry{Name: "R", Length: 2000, Group: "g"}}
	input := AssemblyInput{
		Name:    "asm",
		Contigs: oneContigFasta(t, "C5", strings.Repeat("A", 400)),
		Coords: []io.Reader{coordsStream(
			coordsLine(1, 400, 1, 400, 400, 400, 99.0, "R", "C5"),
			coordsLine(1000, 1400, 1, 400, 400, 400, 99.0, "R", "C5"),
		)},
	}

	out, err := Analyze(context.Background(), input, refs, cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, out.Result.AmbiguousContigs)
	assert.EqualValues(t, -400, out.Result.AmbiguousExtraBases)
	assert.Zero(t, out.Result.TotalAlignedBases)
}

func TestAnalyzeE6LocalMisassemblyFromSmallOverlap(t *testing.T) {
	cfg := DefaultConfig()
	refs := ReferenceIndex{"R": &ReferenceEntry{Name: "R", Length: 1300, Group: "g"}}
	input := AssemblyInput{
		Name:    "asm",
		Contigs: oneContigFasta(t, "C6", strings.Repeat("A", 1000)),
		Coords: []io.Reader{coordsStream(
			coordsLine(1, 500, 1, 500, 500, 500, 99.0, "R", "C6"),
			coordsLine(700, 1200, 480, 980, 501, 501, 99.0, "R", "C6"),
		)},
	}

	out, err := Analyze(context.Background(), input, refs, cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, out.Result.MisassemblyCounts[Local])
	assert.EqualValues(t, 21, out.Result.InterContigOverlap)
	assert.Empty(t, out.Result.MisassembledContigs)
}

func TestAnalyzeNoAlignmentsDegenerate(t *testing.T) {
	cfg := DefaultConfig()
	refs := ReferenceIndex{"R": &ReferenceEntry{Name: "R", Length: 1000, Group: "g"}}
	input := AssemblyInput{
		Name:    "asm",
		Contigs: oneContigFasta(t, "C1", strings.Repeat("A", 300)),
		Coords:  []io.Reader{coordsStream()},
	}

	out, err := Analyze(context.Background(), input, refs, cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, out.Result.UnalignedContigs)
	assert.EqualValues(t, 300, out.Result.UnalignedBases)
	assert.Zero(t, out.Result.TotalAlignedBases)
}

func TestAnalyzeUnalignedContigNotInAlignments(t *testing.T) {
	cfg := DefaultConfig()
	refs := ReferenceIndex{"R": &ReferenceEntry{Name: "R", Length: 1000, Group: "g"}}
	f, err := fasta.New(strings.NewReader(">C1\n" + strings.Repeat("A", 500) + "\n>C2\n" + strings.Repeat("A", 300) + "\n"))
	require.NoError(t, err)
	input := AssemblyInput{
		Name:    "asm",
		Contigs: f,
		Coords:  []io.Reader{coordsStream(coordsLine(100, 599, 1, 500, 500, 500, 100.0, "R", "C1"))},
	}

	out, err := Analyze(context.Background(), input, refs, cfg)
	require.NoError(t, err)

	assert.EqualValues(t, 500, out.Result.TotalAlignedBases)
	assert.Equal(t, 1, out.Result.UnalignedContigs)
	assert.EqualValues(t, 300, out.Result.UnalignedBases)
}
