package misassembly

import "sort"

// ExcludeInternalOverlaps resolves a contig-side overlap between two
// alignments adjacent in contig order, shifting endpoints according to
// policy. It returns the number of contig bases removed from prev's span
// (needed by the caller to correct its aligned-length accounting); 0 if
// there was no overlap or policy is PolicyAll (which never shifts).
func ExcludeInternalOverlaps(prev, next *Alignment, policy AmbiguityPolicy) int64 {
	if policy == PolicyAll {
		return 0
	}
	contigGap := min64(next.CtgLeft(), next.CtgRight()) - max64(prev.CtgLeft(), prev.CtgRight()) - 1
	if contigGap >= 0 {
		return 0
	}
	prevLen := prev.CtgLen()
	if policy == PolicyOne {
		if prev.CtgLen() >= next.CtgLen() {
			next.ShiftCtgLeft(max64(prev.CtgLeft(), prev.CtgRight()) + 1)
		} else {
			prev.ShiftCtgRight(min64(next.CtgLeft(), next.CtgRight()) - 1)
		}
	} else { // PolicyNone: both copies give up the overlapping region
		newEnd := min64(next.CtgLeft(), next.CtgRight()) - 1
		next.ShiftCtgLeft(max64(prev.CtgLeft(), prev.CtgRight()) + 1)
		prev.ShiftCtgRight(newEnd)
	}
	return prevLen - prev.CtgLen()
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// critical number of alignments above which the solid-alignment pruning
// pass is worth its own cost.
const redundancyPruneThreshold = 200

// PruneRedundant drops alignments whose entire contig interval is covered
// by a "solid" region: a solid alignment is one with a contig sub-interval
// longer than minUniqueLen that no later alignment (in end-sorted order)
// covers, so it is guaranteed to survive the best-set search regardless of
// what else is chosen. This only pays for itself once the candidate set is
// large, so callers should only invoke it when len(aligns) >
// redundancyPruneThreshold. aligns must already be sorted by contig end.
func PruneRedundant(aligns []Alignment, extensivePenalty int64) []Alignment {
	if len(aligns) <= redundancyPruneThreshold {
		return aligns
	}
	minUniqueLen := 2 * extensivePenalty

	solidSet := make(map[int]bool)
	for i, a := range aligns {
		if a.CtgLen() <= minUniqueLen {
			continue
		}
		left, right := a.CtgLeft(), a.CtgRight()
		for j := i + 1; j < len(aligns); j++ {
			b := aligns[j]
			bl, br := b.CtgLeft(), b.CtgRight()
			if br < left || bl > right {
				continue
			}
			// Clip the uncovered interval away from whatever b covers.
			if bl <= left && br >= right {
				left, right = 1, 0 // fully covered; no unique region left
				break
			}
			if bl <= left {
				left = br + 1
			} else if br >= right {
				right = bl - 1
			}
		}
		if right-left+1 > minUniqueLen {
			solidSet[i] = true
		}
	}
	if len(solidSet) == 0 {
		return aligns
	}

	type interval struct{ start, end int64 }
	var solidIntervals []interval
	for i := range aligns {
		if solidSet[i] {
			solidIntervals = append(solidIntervals, interval{aligns[i].CtgLeft(), aligns[i].CtgRight()})
		}
	}
	sort.Slice(solidIntervals, func(i, j int) bool { return solidIntervals[i].start < solidIntervals[j].start })
	merged := solidIntervals[:0]
	for _, iv := range solidIntervals {
		if len(merged) > 0 && iv.start <= merged[len(merged)-1].end+1 {
			if iv.end > merged[len(merged)-1].end {
				merged[len(merged)-1].end = iv.end
			}
			continue
		}
		merged = append(merged, iv)
	}

	coveredBySolid := func(left, right int64) bool {
		for _, iv := range merged {
			if iv.start <= left && right <= iv.end {
				return true
			}
		}
		return false
	}

	kept := make([]Alignment, 0, len(aligns))
	for i, a := range aligns {
		if solidSet[i] {
			kept = append(kept, a)
			continue
		}
		if coveredBySolid(a.CtgLeft(), a.CtgRight()) {
			continue
		}
		kept = append(kept, a)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].CtgRight() < kept[j].CtgRight() })
	return kept
}

// SkipOverlappingRedundant performs the post-best-set "extra skip" pass:
// among >=3 alignments sorted by contig position, drop a middle alignment
// whose overlap with the running adjacent coverage is either a very short
// gap (< oat) or consumes more than a fixed fraction (ort) of its own
// length, as long as the gap to its successor doesn't exceed odgap (in
// which case it's left alone -- the two neighbors are too far apart for the
// middle alignment to be considered redundant).
func SkipOverlappingRedundant(aligns []Alignment, cfg Config) []Alignment {
	if len(aligns) < 3 {
		return aligns
	}
	sorted := append([]Alignment(nil), aligns...)
	sort.Slice(sorted, func(i, j int) bool {
		li, lj := sorted[i].CtgLeft(), sorted[j].CtgLeft()
		if li != lj {
			return li < lj
		}
		return sorted[i].CtgRight() < sorted[j].CtgRight()
	})

	skip := make(map[int]bool)
	prevEnd := sorted[0].CtgRight()
	for i := 1; i < len(sorted)-1; i++ {
		succStart := sorted[i+1].CtgLeft()
		gap := succStart - prevEnd - 1
		if gap > cfg.OverlapDetectingGap {
			prevEnd = sorted[i].CtgRight()
			continue
		}
		var overlap int64
		if d := prevEnd - sorted[i].CtgLeft() + 1; d > 0 {
			overlap += d
		}
		if d := sorted[i].CtgRight() - succStart + 1; d > 0 {
			overlap += d
		}
		if gap < cfg.OverlapAbsoluteThreshold || float64(overlap)/float64(sorted[i].CtgLen()) > cfg.OverlapRelativeThreshold {
			skip[i] = true
		} else {
			prevEnd = sorted[i].CtgRight()
		}
	}
	if len(skip) == 0 {
		return aligns
	}
	kept := make([]Alignment, 0, len(sorted)-len(skip))
	for i, a := range sorted {
		if !skip[i] {
			kept = append(kept, a)
		}
	}
	return kept
}
