package misassembly

import "github.com/biocore/asmqc/encoding/svbed"

// matchCI reports whether pos falls within sv's reference interval widened
// by maxError on each side.
func matchCI(pos int64, sv svbed.Breakpoint, maxError int64) bool {
	return sv.Start-maxError <= pos && pos <= sv.End+maxError
}

// MatchSV is the pure SV-matcher predicate V: given an adjacent pair (p, q)
// in contig order, a precomputed inconsistency, and the loaded SV table,
// decide whether the discordance is explained by a known structural
// variation. It never mutates its inputs, so re-applying it to the same
// pair always yields the same verdict.
func MatchSV(p, q Alignment, inconsistency int64, sv svbed.StructuralVariations, cfg Config) bool {
	maxError := cfg.SVMaxError
	maxGap := cfg.SVMaxGap

	// Orient so a.RefStart <= b.RefStart, matching the source's "align2.s1 <
	// align1.s1" swap.
	a, b := p, q
	if b.RefStart < a.RefStart {
		a, b = b, a
	}

	if a.RefName != b.RefName {
		for _, t := range sv.Translocations {
			if t[0].RefName == a.RefName && t[1].RefName == b.RefName &&
				matchCI(a.RefEnd, t[0], maxError) && matchCI(b.RefStart, t[1], maxError) {
				return true
			}
			if t[0].RefName == b.RefName && t[1].RefName == a.RefName &&
				matchCI(b.RefEnd, t[0], maxError) && matchCI(a.RefStart, t[1], maxError) {
				return true
			}
		}
		return false
	}

	if (p.Strand() == Forward) != (q.Strand() == Forward) && absI64(inconsistency) < cfg.ScaffoldsGapThreshold {
		for _, inv := range sv.Inversions {
			if a.RefName != inv[0].RefName {
				continue
			}
			if (matchCI(a.RefStart, inv[0], maxError) && matchCI(b.RefStart, inv[1], maxError)) ||
				(matchCI(a.RefEnd, inv[0], maxError) && matchCI(b.RefEnd, inv[1], maxError)) {
				return true
			}
		}
		return false
	}

	for i, rel := range sv.Relocations {
		if rel[0].RefName != a.RefName || !matchCI(a.RefEnd, rel[0], maxError) {
			continue
		}
		if matchCI(b.RefStart, rel[1], maxError) {
			return true
		}
		// Chain forward through consecutive relocations to cover one long
		// deletion split across several SV calls.
		prevEnd := rel[1].End
		for j := i + 1; j < len(sv.Relocations); j++ {
			next := sv.Relocations[j]
			if next[0].RefName != a.RefName || next[0].Start-prevEnd > maxGap {
				break
			}
			if matchCI(b.RefStart, next[1], maxError) {
				return true
			}
			prevEnd = next[1].End
		}
	}
	return false
}

func absI64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
