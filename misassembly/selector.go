package misassembly

import "sort"

// Verdict is the Selector's classification of how a contig relates to the
// reference.
type Verdict int

const (
	VerdictUnaligned Verdict = iota
	VerdictUnique
	VerdictAmbiguous
	VerdictMulti
)

// Selection is the Selector's output for one contig.
type Selection struct {
	Verdict    Verdict
	Alignments []Alignment // meaning depends on Verdict: Unique has exactly
	// one entry; Ambiguous holds the kept set per policy; Multi holds every
	// alignment in the family, sorted by reference end, ready for surgery
	// and the best-set search.
}

// Selector chooses, per contig, which alignments the Classifier should
// interpret.
type Selector struct {
	cfg Config
}

func NewSelector(cfg Config) *Selector { return &Selector{cfg: cfg} }

// Select implements the Selector procedure from SPEC_FULL §4.2. ctgLen is
// the full contig length; aligns is every alignment loaded for this contig
// (order-independent). result receives the ambiguous-contig side effects.
func (s *Selector) Select(ctgLen int64, aligns []Alignment, result *AssemblyResult) Selection {
	if len(aligns) == 0 {
		return Selection{Verdict: VerdictUnaligned}
	}

	sorted := append([]Alignment(nil), aligns...)
	sort.Slice(sorted, func(i, j int) bool {
		si, sj := sorted[i], sorted[j]
		scoreI := float64(si.CtgLen()) * si.Identity
		scoreJ := float64(sj.CtgLen()) * sj.Identity
		if scoreI != scoreJ {
			return scoreI > scoreJ
		}
		return sorted[i].CtgLen() > sorted[j].CtgLen()
	})

	top := sorted[0]
	topLen := top.CtgLen()
	topScore := float64(topLen) * top.Identity

	if float64(topLen) > float64(ctgLen)*s.cfg.Epsilon || ctgLen-topLen < int64(s.cfg.MaxUnaligned) {
		topSet := []Alignment{top}
		rest := sorted[1:]
		i := 0
		for i < len(rest) {
			score := float64(rest[i].CtgLen()) * rest[i].Identity
			if score/topScore <= s.cfg.Epsilon {
				break
			}
			topSet = append(topSet, rest[i])
			i++
		}

		if len(topSet) == 1 {
			return Selection{Verdict: VerdictUnique, Alignments: topSet}
		}
		return s.resolveAmbiguous(topSet, result)
	}

	multi := append([]Alignment(nil), sorted...)
	sort.Slice(multi, func(i, j int) bool { return multi[i].RefEnd < multi[j].RefEnd })
	return Selection{Verdict: VerdictMulti, Alignments: multi}
}

func (s *Selector) resolveAmbiguous(topSet []Alignment, result *AssemblyResult) Selection {
	firstLen := topSet[0].CtgLen()
	switch s.cfg.AmbiguityPolicy {
	case PolicyOne:
		result.RecordAmbiguous(0)
		return Selection{Verdict: VerdictAmbiguous, Alignments: topSet[:1]}
	case PolicyAll:
		var extra int64
		for _, a := range topSet {
			extra += a.CtgLen()
		}
		result.RecordAmbiguous(extra - firstLen)
		return Selection{Verdict: VerdictAmbiguous, Alignments: topSet}
	default: // PolicyNone
		result.RecordAmbiguous(-firstLen)
		return Selection{Verdict: VerdictAmbiguous, Alignments: nil}
	}
}
