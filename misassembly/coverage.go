package misassembly

import (
	"sort"

	"github.com/biocore/asmqc/encoding/snps"
)

// Gap is one positive or negative (overlapping) gap recorded between two
// consecutive alignments during the reference coverage walk. Internal is
// true when both sides of the gap belong to the same contig; a gap between
// two different contigs' alignments on the same reference is external.
type Gap struct {
	RefName  string
	Size     int64 // negative for an overlap
	FromCtg  string
	ToCtg    string
	Internal bool
}

// CoverageResult is the per-reference outcome of one coverage walk.
type CoverageResult struct {
	RegionCovered int64
	Gaps          []Gap
	IndelsInfo    IndelsInfo
}

// CoverageWalker replays the SNP-aware reference coverage accounting from
// SPEC_FULL §4.8: for each reference, alignments are walked left to right in
// reference order, gaps and overlaps between consecutive alignments are
// recorded, and SNPs are reconciled against a running contig-position
// estimate so that insertions, deletions, and mismatches can be tallied and
// runs of consecutive indel SNPs collapsed into single indel lengths.
type CoverageWalker struct {
	cfg Config
}

func NewCoverageWalker(cfg Config) *CoverageWalker { return &CoverageWalker{cfg: cfg} }

// Walk processes every alignment against refName, which must already be the
// final (best-set, overlap-resolved) choice for each contig touching this
// reference. aligns need not be pre-sorted; idx may be nil if no SNP data
// was loaded for this assembly.
func (w *CoverageWalker) Walk(refName string, refLen int64, aligns []Alignment, idx *snps.Index) CoverageResult {
	sorted := append([]Alignment(nil), aligns...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RefStart < sorted[j].RefStart })

	var result CoverageResult
	var prevSnp *snps.Record
	var curRun int64

	flushRun := func() {
		if curRun > 0 {
			result.IndelsInfo.IndelLengths = append(result.IndelsInfo.IndelLengths, curRun)
		}
		curRun = 0
		prevSnp = nil
	}

	for i, cur := range sorted {
		start, end := cur.RefStart, cur.RefEnd
		if start > end {
			start, end = end, start
		}
		if start > refLen || end < 1 {
			continue
		}
		if start < 1 {
			start = 1
		}
		if end > refLen {
			end = refLen
		}

		if i+1 < len(sorted) {
			next := sorted[i+1]
			nextStart := next.RefStart
			if next.RefStart > next.RefEnd {
				nextStart = next.RefEnd
			}
			gapSize := nextStart - end - 1
			result.Gaps = append(result.Gaps, Gap{
				RefName:  refName,
				Size:     gapSize,
				FromCtg:  cur.CtgName,
				ToCtg:    next.CtgName,
				Internal: cur.CtgName == next.CtgName,
			})
		}

		result.RegionCovered += end - start + 1

		posStrand := cur.CtgStart < cur.CtgEnd
		estimate := cur.CtgStart

		var bySNPPos map[int64][]snps.Record
		if idx != nil {
			bySNPPos = make(map[int64][]snps.Record)
			for _, s := range idx.At(refName, cur.CtgName) {
				bySNPPos[s.RefPos] = append(bySNPPos[s.RefPos], s)
			}
		}

		for refPos := start; refPos <= end; refPos++ {
			if idx != nil {
				for _, snp := range sortSNPsByCtgPos(bySNPPos[refPos], posStrand) {
					if absI64(estimate-snp.CtgPos) > 2 {
						continue
					}
					switch snp.Kind {
					case snps.Insertion:
						result.IndelsInfo.Insertions++
						if posStrand {
							estimate++
						} else {
							estimate--
						}
					case snps.Deletion:
						result.IndelsInfo.Deletions++
						if posStrand {
							estimate--
						} else {
							estimate++
						}
					case snps.Substitution:
						result.IndelsInfo.Mismatches++
					}

					if snp.Kind == snps.Insertion || snp.Kind == snps.Deletion {
						s := snp
						if prevSnp != nil && sameIndelRun(*prevSnp, s, posStrand) {
							curRun++
						} else {
							flushRun()
							curRun = 1
						}
						cp := s
						prevSnp = &cp
					}
				}
			}
			if posStrand {
				estimate++
			} else {
				estimate--
			}
		}
		flushRun()
	}

	return result
}

// sameIndelRun reports whether cur continues the same consecutive indel run
// as prev: a deletion run advances ref_pos by 1 with ctg_pos unchanged; an
// insertion run holds ref_pos unchanged while ctg_pos advances by 1 in the
// direction of the contig's strand.
func sameIndelRun(prev, cur snps.Record, posStrand bool) bool {
	if prev.Kind != cur.Kind {
		return false
	}
	switch cur.Kind {
	case snps.Deletion:
		return prev.RefPos == cur.RefPos-1 && prev.CtgPos == cur.CtgPos
	case snps.Insertion:
		if posStrand {
			return prev.CtgPos == cur.CtgPos-1 && prev.RefPos == cur.RefPos
		}
		return prev.CtgPos == cur.CtgPos+1 && prev.RefPos == cur.RefPos
	default:
		return false
	}
}

// sortSNPsByCtgPos orders the SNPs found at one reference base the way the
// contig is traversed (ascending contig position on the forward strand,
// descending on the reverse strand), matching the source's per-base SNP
// ordering. The slice is reused across calls, so a copy is sorted in place.
func sortSNPsByCtgPos(at []snps.Record, posStrand bool) []snps.Record {
	if len(at) < 2 {
		return at
	}
	at = append([]snps.Record(nil), at...)
	sort.Slice(at, func(i, j int) bool {
		if posStrand {
			return at[i].CtgPos < at[j].CtgPos
		}
		return at[i].CtgPos > at[j].CtgPos
	})
	return at
}
