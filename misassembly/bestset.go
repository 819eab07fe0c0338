package misassembly

import "sort"

// scoredSet is one frontier state of the best-set search: the alignments
// chosen so far (by index into the candidate slice), the running score, and
// how much of the contig remains uncovered under this choice.
type scoredSet struct {
	score     int64
	indices   []int
	uncovered int64
}

// PairPenalty reports the score.md §4.4 penalty for the pair classification
// produced when appending candidate to a chosen prefix, given the
// classification outcome computed by the caller (the Classifier owns the
// actual rule evaluation; bestset only needs the resulting penalty bucket).
type PairPenalty struct {
	Extensive   bool
	Local       bool // |inconsistency| > MaxIndelLength and not scaffold gap
	ScaffoldGap bool
}

// Penalty computes the score contribution for one adjacent pair, per
// SPEC_FULL §4.4's penalty table.
func (p PairPenalty) Penalty(ctgLen int64, cfg Config) int64 {
	switch {
	case p.Extensive:
		return maxI64(50, minI64(cfg.ExtensiveMisassemblyThreshold/4, int64(float64(ctgLen)*0.05))) - 1
	case p.Local:
		return maxI64(2, minI64(cfg.MaxIndelLength/2, int64(float64(ctgLen)*0.01))) - 1
	case p.ScaffoldGap:
		return 5
	default:
		return 0
	}
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// addedCoveredLength returns how many contig positions candidate newly
// covers given the alignments already chosen (set), mirroring the source's
// __get_added_len: candidate always extends to the right of the current
// coverage by definition of end-sorted order, but may also extend left past
// one or more previously-chosen alignments whose own right edges it
// overlaps.
func addedCoveredLength(aligns []Alignment, set []int, candidateIdx int) int64 {
	candidate := aligns[candidateIdx]
	lastIdx := set[len(set)-2]
	last := aligns[lastIdx]

	addedRight := candidate.CtgRight() - maxI64(candidate.CtgLeft()-1, last.CtgRight())

	var addedLeft int64
	lastStart := last.CtgLeft()
	pos := len(set) - 2
	for candidate.CtgLeft() < lastStart {
		addedLeft += lastStart - candidate.CtgLeft()
		pos--
		if pos < 0 {
			break
		}
		prevStart := lastStart
		last = aligns[set[pos]]
		lastStart = last.CtgLeft()
		if d := minI64(prevStart, last.CtgRight()) - candidate.CtgLeft() + 1; d > 0 {
			addedLeft -= d
		}
	}
	return addedRight + addedLeft
}

// ClassifyPair is supplied by the caller (pipeline.go, backed by the
// Classifier) so bestset.go never has to duplicate the classification rules
// -- it only needs to know which penalty bucket a candidate pair falls
// into.
type ClassifyPair func(prev, next Alignment) PairPenalty

// BestSet runs the pruned DP search from SPEC_FULL §4.4 over aligns (which
// must already be sorted by contig end) and returns the chosen subsequence,
// in the same order as aligns.
func BestSet(aligns []Alignment, ctgLen int64, cfg Config, classify ClassifyPair) []Alignment {
	if len(aligns) == 0 {
		return nil
	}

	frontier := []*scoredSet{{score: 0, indices: nil, uncovered: ctgLen}}
	var maxScore int64
	var best []int

	score := func(prevScore int64, chosen []int, uncovered int64) (int64, int64) {
		if len(chosen) > 1 {
			added := addedCoveredLength(aligns, chosen, chosen[len(chosen)-1])
			uncovered -= added
			s := prevScore + added
			prev := aligns[chosen[len(chosen)-2]]
			next := aligns[chosen[len(chosen)-1]]
			penalty := classify(prev, next).Penalty(ctgLen, cfg)
			return s - penalty, uncovered
		}
		only := aligns[chosen[0]]
		return prevScore + only.CtgLen(), uncovered - only.CtgLen()
	}

	for idx, align := range aligns {
		curMax := int64(0)
		var newSet *scoredSet
		kept := frontier[:0]
		for _, ss := range frontier {
			if ss.score+align.CtgLen() <= curMax {
				kept = append(kept, ss)
				continue
			}
			chosen := append(append([]int(nil), ss.indices...), idx)
			s, uncov := score(ss.score, chosen, ss.uncovered)
			if s+uncov < maxScore {
				continue // pruned: provably can't beat the current best
			}
			kept = append(kept, ss)
			if s > curMax {
				curMax = s
				newSet = &scoredSet{score: s, indices: chosen, uncovered: uncov}
			}
		}
		frontier = kept
		if newSet != nil {
			frontier = append(frontier, newSet)
			if curMax > maxScore {
				maxScore = curMax
				best = newSet.indices
			}
		}
	}

	result := make([]Alignment, len(best))
	for i, idx := range best {
		result[i] = aligns[idx]
	}
	return result
}

// sortByCtgEnd is a small helper used by callers that need aligns in the
// order BestSet requires.
func sortByCtgEnd(aligns []Alignment) {
	sort.Slice(aligns, func(i, j int) bool { return aligns[i].CtgRight() < aligns[j].CtgRight() })
}
