package misassembly

import (
	"testing"

	"github.com/biocore/asmqc/encoding/snps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoverageWalkRegionCovered(t *testing.T) {
	cfg := DefaultConfig()
	w := NewCoverageWalker(cfg)

	aligns := []Alignment{
		{RefName: "chr1", RefStart: 1, RefEnd: 500, CtgName: "c1", CtgStart: 1, CtgEnd: 500, Identity: 100},
		{RefName: "chr1", RefStart: 601, RefEnd: 1100, CtgName: "c1", CtgStart: 601, CtgEnd: 1100, Identity: 100},
	}

	res := w.Walk("chr1", 1100, aligns, nil)
	assert.EqualValues(t, 1000, res.RegionCovered)
	require.Len(t, res.Gaps, 1)
	assert.EqualValues(t, 100, res.Gaps[0].Size)
	assert.True(t, res.Gaps[0].Internal)
}

func TestCoverageWalkExternalGap(t *testing.T) {
	cfg := DefaultConfig()
	w := NewCoverageWalker(cfg)

	aligns := []Alignment{
		{RefName: "chr1", RefStart: 1, RefEnd: 300, CtgName: "c1", CtgStart: 1, CtgEnd: 300, Identity: 99},
		{RefName: "chr1", RefStart: 400, RefEnd: 700, CtgName: "c2", CtgStart: 1, CtgEnd: 301, Identity: 99},
	}

	res := w.Walk("chr1", 700, aligns, nil)
	require.Len(t, res.Gaps, 1)
	assert.False(t, res.Gaps[0].Internal)
	assert.EqualValues(t, 99, res.Gaps[0].Size)
}

func TestCoverageWalkSNPReconciliation(t *testing.T) {
	cfg := DefaultConfig()
	w := NewCoverageWalker(cfg)

	idx := snps.NewIndex()
	idx.Add(snps.Record{RefName: "chr1", CtgName: "c1", RefPos: 10, CtgPos: 10, RefBase: "A", CtgBase: "T", Kind: snps.Substitution})

	aligns := []Alignment{
		{RefName: "chr1", RefStart: 1, RefEnd: 20, CtgName: "c1", CtgStart: 1, CtgEnd: 20, Identity: 95},
	}

	res := w.Walk("chr1", 20, aligns, idx)
	assert.EqualValues(t, 20, res.RegionCovered)
	assert.EqualValues(t, 1, res.IndelsInfo.Mismatches)
}

func TestCoverageWalkDeletionRunGrouping(t *testing.T) {
	cfg := DefaultConfig()
	w := NewCoverageWalker(cfg)

	idx := snps.NewIndex()
	// Three consecutive deletion SNPs at ref_pos 5, 6, 7, all mapping to the
	// same contig position (the contig never advances during a deletion run).
	for _, refPos := range []int64{5, 6, 7} {
		idx.Add(snps.Record{RefName: "chr1", CtgName: "c1", RefPos: refPos, CtgPos: 4, RefBase: "A", CtgBase: ".", Kind: snps.Deletion})
	}

	aligns := []Alignment{
		{RefName: "chr1", RefStart: 1, RefEnd: 10, CtgName: "c1", CtgStart: 1, CtgEnd: 10, Identity: 90},
	}

	res := w.Walk("chr1", 10, aligns, idx)
	assert.EqualValues(t, 3, res.IndelsInfo.Deletions)
	require.Len(t, res.IndelsInfo.IndelLengths, 1)
	assert.EqualValues(t, 3, res.IndelsInfo.IndelLengths[0])
}

func TestCoverageWalkInsertionRunGrouping(t *testing.T) {
	cfg := DefaultConfig()
	w := NewCoverageWalker(cfg)

	idx := snps.NewIndex()
	// Two consecutive insertion SNPs at the same ref_pos, contig advancing by
	// one each time on the forward strand.
	idx.Add(snps.Record{RefName: "chr1", CtgName: "c1", RefPos: 5, CtgPos: 5, RefBase: ".", CtgBase: "A", Kind: snps.Insertion})
	idx.Add(snps.Record{RefName: "chr1", CtgName: "c1", RefPos: 5, CtgPos: 6, RefBase: ".", CtgBase: "C", Kind: snps.Insertion})

	aligns := []Alignment{
		{RefName: "chr1", RefStart: 1, RefEnd: 10, CtgName: "c1", CtgStart: 1, CtgEnd: 10, Identity: 90},
	}

	res := w.Walk("chr1", 10, aligns, idx)
	assert.EqualValues(t, 2, res.IndelsInfo.Insertions)
	require.Len(t, res.IndelsInfo.IndelLengths, 1)
	assert.EqualValues(t, 2, res.IndelsInfo.IndelLengths[0])
}

func TestCoverageWalkNoSNPIndex(t *testing.T) {
	cfg := DefaultConfig()
	w := NewCoverageWalker(cfg)

	aligns := []Alignment{
		{RefName: "chr1", RefStart: 1, RefEnd: 50, CtgName: "c1", CtgStart: 1, CtgEnd: 50, Identity: 95},
	}

	res := w.Walk("chr1", 50, aligns, nil)
	assert.EqualValues(t, 50, res.RegionCovered)
	assert.Empty(t, res.Gaps)
	assert.Zero(t, res.IndelsInfo.Mismatches)
}
