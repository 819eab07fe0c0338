package misassembly

import (
	"sort"
	"strings"
)

// Aggregator folds per-contig classifier verdicts into one AssemblyResult,
// the reduction step described in SPEC_FULL §4.7. It holds no state of its
// own beyond the configuration and reference table needed to resolve
// reference groups for the inter-translocation matrix.
type Aggregator struct {
	cfg  Config
	refs ReferenceIndex
}

func NewAggregator(cfg Config, refs ReferenceIndex) *Aggregator {
	return &Aggregator{cfg: cfg, refs: refs}
}

// AddUnaligned records a contig with no usable alignment.
func (a *Aggregator) AddUnaligned(result *AssemblyResult, ctgLen int64) {
	result.UnalignedContigs++
	result.UnalignedBases += ctgLen
}

// AddContig folds one aligned contig's classifier verdict into result.
// ctgSeq is the contig's full sequence, needed to measure non-N significant
// unaligned stretches between aligned pieces.
func (a *Aggregator) AddContig(result *AssemblyResult, ctgName string, ctgLen int64, ctgSeq string, verdict ContigVerdict) {
	alignedLength := verdict.ContigAlignedLength
	var unaligned int64
	if ctgLen > alignedLength {
		unaligned = ctgLen - alignedLength
	}

	result.TotalAlignedBases += alignedLength
	result.InterContigOverlap += verdict.InternalOverlap
	result.SNPCount += verdict.Indels.Mismatches
	result.InsertionCount += verdict.Indels.Insertions
	result.DeletionCount += verdict.Indels.Deletions
	result.IndelLengths = append(result.IndelLengths, verdict.Indels.IndelLengths...)

	// A misassembled contig whose surviving aligned length still falls short
	// of umt * ctg_len is reclassified wholesale: its real misassembly events
	// are discarded from the counts and the misassembled-contig list, though
	// the alignments themselves still count as aligned bases above.
	discardMisassembly := verdict.IsMisassembled &&
		float64(alignedLength) < a.cfg.UnalignedMisassembledThreshold*float64(ctgLen)

	for i, ev := range verdict.Events {
		if ev.Fake {
			result.addMisassembly(ev.Kind)
			continue
		}
		if discardMisassembly {
			continue
		}
		result.addMisassembly(ev.Kind)
		if ev.Kind == InterspeciesTranslocation && i+1 < len(verdict.Aligns) {
			p, q := verdict.Aligns[i], verdict.Aligns[i+1]
			pe, pok := a.refs[p.RefName]
			qe, qok := a.refs[q.RefName]
			if pok && qok {
				result.addInterTranslocation(pe.Group, qe.Group)
				result.addInterTranslocation(qe.Group, pe.Group)
			}
		}
	}

	if verdict.IsMisassembled && !discardMisassembly {
		result.MisassembledContigs = append(result.MisassembledContigs, MisassembledContig{Name: ctgName, Length: ctgLen})
		result.MisassembledBases += ctgLen
	}

	switch {
	case discardMisassembly:
		result.PartiallyUnalignedWithMisassemblyContigs++
		result.UnalignedBases += unaligned
	case unaligned > 0:
		significant := countSignificantGaps(ctgSeq, ctgLen, verdict.Aligns, a.cfg.SignificantPartSize)
		result.UnalignedBases += unaligned
		if significant > 0 {
			result.PartiallyUnalignedWithSignificantParts++
			result.PotentialContigs++
			result.PotentialEvents += significant
		} else {
			result.PartiallyUnalignedContigs++
		}
	}
}

// countSignificantGaps counts the uncovered stretches between aligns (and
// before the first / after the last) whose non-N length reaches minLen,
// matching the source's "potential translocation in meta-mode" trigger.
func countSignificantGaps(ctgSeq string, ctgLen int64, aligns []Alignment, minLen int64) int {
	if len(aligns) == 0 {
		if int64(len(ctgSeq))-int64(strings.Count(ctgSeq, "N")) >= minLen {
			return 1
		}
		return 0
	}
	sorted := append([]Alignment(nil), aligns...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CtgLeft() < sorted[j].CtgLeft() })

	nonNLen := func(lo, hi int64) int64 {
		seg := sliceBetween(ctgSeq, lo, hi)
		if seg == "" {
			return 0
		}
		return int64(len(seg)) - int64(strings.Count(seg, "N"))
	}

	count := 0
	if nonNLen(0, sorted[0].CtgLeft()-1) >= minLen {
		count++
	}
	prevEnd := sorted[0].CtgRight()
	for _, a := range sorted[1:] {
		if a.CtgLeft() > prevEnd+1 && nonNLen(prevEnd, a.CtgLeft()-1) >= minLen {
			count++
		}
		if a.CtgRight() > prevEnd {
			prevEnd = a.CtgRight()
		}
	}
	if nonNLen(prevEnd, ctgLen) >= minLen {
		count++
	}
	return count
}
