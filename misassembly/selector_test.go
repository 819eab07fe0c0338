package misassembly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorUnalignedWhenNoAlignments(t *testing.T) {
	sel := NewSelector(DefaultConfig())
	result := NewAssemblyResult()

	got := sel.Select(1000, nil, result)

	assert.Equal(t, VerdictUnaligned, got.Verdict)
}

func TestSelectorUniqueSingleDominantAlignment(t *testing.T) {
	sel := NewSelector(DefaultConfig())
	result := NewAssemblyResult()

	aligns := []Alignment{
		{RefName: "chr1", RefStart: 1, RefEnd: 1000, CtgName: "c1", CtgStart: 1, CtgEnd: 1000, Identity: 99},
	}

	sel2 := sel.Select(1000, aligns, result)

	require.Equal(t, VerdictUnique, sel2.Verdict)
	require.Len(t, sel2.Alignments, 1)
	assert.Equal(t, int64(1), sel2.Alignments[0].RefStart)
}

func TestSelectorAmbiguousPolicyNoneKeepsNothing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AmbiguityPolicy = PolicyNone
	sel := NewSelector(cfg)
	result := NewAssemblyResult()

	aligns := []Alignment{
		{RefName: "chr1", RefStart: 1, RefEnd: 1000, CtgName: "c1", CtgStart: 1, CtgEnd: 1000, Identity: 99},
		{RefName: "chr2", RefStart: 5000, RefEnd: 6000, CtgName: "c1", CtgStart: 1, CtgEnd: 1000, Identity: 99},
	}

	got := sel.Select(1000, aligns, result)

	assert.Equal(t, VerdictAmbiguous, got.Verdict)
	assert.Empty(t, got.Alignments)
	assert.Equal(t, 1, result.AmbiguousContigs)
	assert.EqualValues(t, -1000, result.AmbiguousExtraBases)
}

func TestSelectorAmbiguousPolicyOneKeepsFirst(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AmbiguityPolicy = PolicyOne
	sel := NewSelector(cfg)
	result := NewAssemblyResult()

	aligns := []Alignment{
		{RefName: "chr1", RefStart: 1, RefEnd: 1000, CtgName: "c1", CtgStart: 1, CtgEnd: 1000, Identity: 99},
		{RefName: "chr2", RefStart: 5000, RefEnd: 6000, CtgName: "c1", CtgStart: 1, CtgEnd: 1000, Identity: 99},
	}

	got := sel.Select(1000, aligns, result)

	assert.Equal(t, VerdictAmbiguous, got.Verdict)
	require.Len(t, got.Alignments, 1)
}

func TestSelectorAmbiguousPolicyAllKeepsEveryMember(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AmbiguityPolicy = PolicyAll
	sel := NewSelector(cfg)
	result := NewAssemblyResult()

	aligns := []Alignment{
		{RefName: "chr1", RefStart: 1, RefEnd: 1000, CtgName: "c1", CtgStart: 1, CtgEnd: 1000, Identity: 99},
		{RefName: "chr2", RefStart: 5000, RefEnd: 6000, CtgName: "c1", CtgStart: 1, CtgEnd: 1000, Identity: 99},
	}

	got := sel.Select(1000, aligns, result)

	assert.Equal(t, VerdictAmbiguous, got.Verdict)
	assert.Len(t, got.Alignments, 2)
	assert.EqualValues(t, 1000, result.AmbiguousExtraBases)
}

func TestSelectorMultiWhenFamilyDoesNotCoverContig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxUnaligned = 1
	sel := NewSelector(cfg)
	result := NewAssemblyResult()

	aligns := []Alignment{
		{RefName: "chr1", RefStart: 1, RefEnd: 400, CtgName: "c1", CtgStart: 1, CtgEnd: 400, Identity: 99},
		{RefName: "chr1", RefStart: 2000, RefEnd: 2400, CtgName: "c1", CtgStart: 401, CtgEnd: 800, Identity: 99},
	}

	got := sel.Select(1000, aligns, result)

	require.Equal(t, VerdictMulti, got.Verdict)
	require.Len(t, got.Alignments, 2)
	// multi alignments are returned sorted by reference end.
	assert.Equal(t, int64(400), got.Alignments[0].RefEnd)
	assert.Equal(t, int64(2400), got.Alignments[1].RefEnd)
}
