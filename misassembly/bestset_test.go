package misassembly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noPenalty(prev, next Alignment) PairPenalty { return PairPenalty{} }

func TestBestSetEmptyInput(t *testing.T) {
	assert.Nil(t, BestSet(nil, 1000, DefaultConfig(), noPenalty))
}

func TestBestSetSingleAlignmentChosen(t *testing.T) {
	aligns := []Alignment{
		{RefName: "chr1", RefStart: 1, RefEnd: 500, CtgName: "c1", CtgStart: 1, CtgEnd: 500, Identity: 99},
	}

	got := BestSet(aligns, 500, DefaultConfig(), noPenalty)

	require.Len(t, got, 1)
	assert.Equal(t, aligns[0], got[0])
}

func TestBestSetPrefersNonOverlappingPairOverSingleton(t *testing.T) {
	aligns := []Alignment{
		{RefName: "chr1", RefStart: 1, RefEnd: 500, CtgName: "c1", CtgStart: 1, CtgEnd: 500, Identity: 99},
		{RefName: "chr1", RefStart: 1000, RefEnd: 1500, CtgName: "c1", CtgStart: 501, CtgEnd: 1000, Identity: 99},
	}
	sortByCtgEnd(aligns)

	got := BestSet(aligns, 1000, DefaultConfig(), noPenalty)

	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].CtgStart)
	assert.Equal(t, int64(501), got[1].CtgStart)
}

func TestBestSetPenaltyCanRejectSecondAlignment(t *testing.T) {
	aligns := []Alignment{
		{RefName: "chr1", RefStart: 1, RefEnd: 500, CtgName: "c1", CtgStart: 1, CtgEnd: 500, Identity: 99},
		{RefName: "chr1", RefStart: 1000, RefEnd: 1005, CtgName: "c1", CtgStart: 501, CtgEnd: 506, Identity: 99},
	}
	sortByCtgEnd(aligns)

	// A huge penalty on every pair makes adding the tiny second alignment
	// not worth its own length.
	hugePenalty := func(prev, next Alignment) PairPenalty { return PairPenalty{Extensive: true} }
	cfg := DefaultConfig()
	cfg.ExtensiveMisassemblyThreshold = 100000

	got := BestSet(aligns, 506, cfg, hugePenalty)

	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].CtgStart)
}

func TestPairPenaltyBuckets(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, int64(0), PairPenalty{}.Penalty(1000, cfg))
	assert.Equal(t, int64(5), PairPenalty{ScaffoldGap: true}.Penalty(1000, cfg))
	assert.True(t, PairPenalty{Local: true}.Penalty(1000, cfg) >= 2)
	assert.True(t, PairPenalty{Extensive: true}.Penalty(1000, cfg) >= 50)
}
