package misassembly

import (
	"strings"

	"github.com/biocore/asmqc/encoding/svbed"
)

// PairEvent is what the Classifier emits for one adjacent alignment pair.
type PairEvent struct {
	Kind          Kind
	Fake          bool // SCAFFOLD_GAP, SV-matched, FRAGMENTED, cyclic, and
	// near-boundary indel events are "fake": they explain the discordance
	// without counting as a real misassembly.
	MatchedSV     bool
	Inconsistency int64
	CyclicMoment  bool

	// Populated only for the near-boundary fake-indel branch (rule 5).
	Mismatches int64
	IndelKind  IndelKind
	IndelLen   int64
	HasIndel   bool
}

// IndelsInfo accumulates insertion/deletion/mismatch totals across a
// contig's adjacent pairs.
type IndelsInfo struct {
	Insertions   int64
	Deletions    int64
	Mismatches   int64
	IndelLengths []int64
}

func (info *IndelsInfo) apply(ev PairEvent) {
	info.Mismatches += ev.Mismatches
	if ev.HasIndel {
		info.IndelLengths = append(info.IndelLengths, ev.IndelLen)
		if ev.IndelKind == IndelInsertion {
			info.Insertions += ev.IndelLen
		} else {
			info.Deletions += ev.IndelLen
		}
	}
}

// ContigVerdict is the Classifier's full output for one contig's chosen
// alignment subsequence.
type ContigVerdict struct {
	Events              []PairEvent
	Aligns              []Alignment // post endpoint-shift-surgery form
	AlignedSegments     []int64     // cur_aligned_length at each misassembly boundary, plus the final segment
	Indels              IndelsInfo
	InternalOverlap     int64
	IsMisassembled      bool
	ContigAlignedLength int64
}

// Classifier walks a contig's chosen alignments in contig order and
// classifies every adjacent pair.
type Classifier struct {
	cfg  Config
	refs ReferenceIndex
	sv   svbed.StructuralVariations
}

func NewClassifier(cfg Config, refs ReferenceIndex, sv svbed.StructuralVariations) *Classifier {
	return &Classifier{cfg: cfg, refs: refs, sv: sv}
}

// pairGeometry computes the contig/reference gap, cyclic adjustment, and
// inconsistency for one adjacent pair, per SPEC_FULL §4.5.
type pairGeometry struct {
	contigGap       int64
	refGap          int64
	cyclicMoment    bool
	inconsistency   int64
	internalOverlap int64
	strand1, strand2 bool
}

func distanceBetweenAlignments(p, q Alignment, strand1, strand2 bool, cyclicRefLen int64, haveCyclic bool, smgap int64) (int64, bool) {
	var distance int64
	if strand1 || strand2 {
		distance = q.RefStart - p.RefEnd - 1
	} else {
		distance = p.RefStart - q.RefEnd - 1
	}
	cyclicMoment := false
	if haveCyclic {
		cyclicDistance := distance
		if p.RefEnd < q.RefEnd && (cyclicRefLen-q.RefEnd+p.RefStart-1) < smgap {
			if strand1 {
				cyclicDistance -= cyclicRefLen
			} else {
				cyclicDistance += cyclicRefLen
			}
		} else if p.RefEnd >= q.RefEnd && (cyclicRefLen-p.RefEnd+q.RefStart-1) < smgap {
			if strand1 {
				cyclicDistance += cyclicRefLen
			} else {
				cyclicDistance -= cyclicRefLen
			}
		}
		if absI64(cyclicDistance) < absI64(distance) {
			distance = cyclicDistance
			cyclicMoment = true
		}
	}
	return distance, cyclicMoment
}

func geometry(p, q Alignment, cyclicRefLen int64, haveCyclic bool, smgap int64) pairGeometry {
	contigGap := min64(q.CtgLeft(), q.CtgRight()) - max64(p.CtgLeft(), p.CtgRight()) - 1
	strand1 := p.Strand() == Forward
	strand2 := q.Strand() == Forward
	refGap, cyclicMoment := distanceBetweenAlignments(p, q, strand1, strand2, cyclicRefLen, haveCyclic, smgap)

	var overlap int64
	if contigGap < 0 {
		if refGap >= 0 {
			overlap = -contigGap
		} else if -refGap < -contigGap {
			overlap = refGap - contigGap
		}
	}

	return pairGeometry{
		contigGap:       contigGap,
		refGap:          refGap,
		cyclicMoment:    cyclicMoment,
		inconsistency:   refGap - contigGap,
		internalOverlap: overlap,
		strand1:         strand1,
		strand2:         strand2,
	}
}

func countNotNsBetween(contigSeq string, p, q Alignment) int64 {
	lo := max64(p.CtgLeft(), p.CtgRight())
	hi := min64(q.CtgLeft(), q.CtgRight()) - 1
	gap := sliceBetween(contigSeq, lo, hi)
	return int64(len(gap)) - int64(strings.Count(gap, "N"))
}

func isGapFilledNs(contigSeq string, p, q Alignment, nsBreakThreshold int64) bool {
	lo := max64(p.CtgLeft(), p.CtgRight())
	hi := min64(q.CtgLeft(), q.CtgRight()) - 1
	gap := sliceBetween(contigSeq, lo, hi)
	if int64(len(gap)) < nsBreakThreshold {
		return false
	}
	return float64(strings.Count(gap, "N"))/float64(len(gap)) > 0.95
}

// sliceBetween returns contigSeq[lo:hi] in the same 0-based-exclusive sense
// as the source's contig_seq[a.e2:b.s2-1] once lo/hi have already had the
// "-1" applied by the caller; out-of-range requests return "".
func sliceBetween(contigSeq string, lo, hi int64) string {
	if lo < 0 {
		lo = 0
	}
	if hi > int64(len(contigSeq)) {
		hi = int64(len(contigSeq))
	}
	if lo >= hi {
		return ""
	}
	return contigSeq[lo:hi]
}

// classifyPair evaluates the five ordered rules from SPEC_FULL §4.5 for one
// adjacent pair and returns the resulting event; its Kind and MatchedSV tell
// the caller whether an SV match or extensive misassembly occurred. The
// fragmented-reference branch overwrites the second strand with the first
// (an intentional, spec-preserved quirk -- see DESIGN.md) on local copies
// only; p and q are not modified.
func (c *Classifier) classifyPair(p, q *Alignment, contigSeq string, cyclicRefLen int64, haveCyclic bool) PairEvent {
	g := geometry(*p, *q, cyclicRefLen, haveCyclic, c.cfg.ScaffoldsGapThreshold)
	inconsistency := g.inconsistency

	if c.cfg.ScaffoldsMode && p.RefName == q.RefName &&
		absI64(inconsistency) <= c.cfg.ScaffoldsGapThreshold &&
		isGapFilledNs(contigSeq, *p, *q, c.cfg.NsBreakThreshold) &&
		g.strand1 == g.strand2 {
		return PairEvent{Kind: ScaffoldGap, Fake: true, Inconsistency: inconsistency, CyclicMoment: g.cyclicMoment}
	}

	isTranslocation := false
	strand1, strand2 := g.strand1, g.strand2
	if p.RefName != q.RefName {
		switch {
		case c.cfg.CombinedReferenceMode && !c.refs.SameGroup(p.RefName, q.RefName):
			isTranslocation = true
		case c.cfg.FragmentedReferenceMode:
			dp := refEndDistance(c.refs, *p)
			dq := refEndDistance(c.refs, *q)
			if dp <= c.cfg.MaxIndelLength && dq <= c.cfg.MaxIndelLength {
				inconsistency = dp + dq
				strand2 = strand1
			} else {
				isTranslocation = true
			}
		default:
			isTranslocation = true
		}
	}

	if c.sv.Count() > 0 {
		if MatchSV(*p, *q, inconsistency, c.sv, c.cfg) {
			return PairEvent{Kind: SVMatch, Fake: true, MatchedSV: true, Inconsistency: inconsistency, CyclicMoment: g.cyclicMoment}
		}
	}

	extensive := false
	switch {
	case p.RefName != q.RefName && !isTranslocation:
		extensive = false
	case p.RefName != q.RefName || absI64(inconsistency) > c.cfg.ScaffoldsGapThreshold || strand1 != strand2:
		extensive = true
	}

	if extensive {
		if p.RefName != q.RefName && isTranslocation {
			if c.cfg.CombinedReferenceMode && !c.refs.SameGroup(p.RefName, q.RefName) {
				return PairEvent{Kind: InterspeciesTranslocation, Inconsistency: inconsistency, CyclicMoment: g.cyclicMoment}
			}
			return PairEvent{Kind: Translocation, Inconsistency: inconsistency, CyclicMoment: g.cyclicMoment}
		}
		if absI64(inconsistency) > c.cfg.ScaffoldsGapThreshold {
			return PairEvent{Kind: Relocation, Inconsistency: inconsistency, CyclicMoment: g.cyclicMoment}
		}
		return PairEvent{Kind: Inversion, Inconsistency: inconsistency, CyclicMoment: g.cyclicMoment}
	}

	// Rule 5: near-boundary.
	switch {
	case inconsistency == 0 && g.cyclicMoment:
		return PairEvent{Kind: LinearCyclic, Fake: true, Inconsistency: inconsistency, CyclicMoment: true}
	case c.cfg.FragmentedReferenceMode && p.RefName != q.RefName && !isTranslocation:
		return PairEvent{Kind: Fragmented, Fake: true, Inconsistency: inconsistency, CyclicMoment: g.cyclicMoment}
	case absI64(inconsistency) <= c.cfg.MaxIndelLength && countNotNsBetween(contigSeq, *p, *q) <= c.cfg.MaxIndelLength:
		notNs := countNotNsBetween(contigSeq, *p, *q)
		if inconsistency == 0 {
			return PairEvent{Kind: Indel, Fake: true, Inconsistency: 0, CyclicMoment: g.cyclicMoment, Mismatches: notNs}
		}
		indelLen := absI64(inconsistency)
		kind := IndelInsertion
		if inconsistency > 0 {
			kind = IndelDeletion
		}
		mismatches := maxI64(0, notNs-indelLen)
		return PairEvent{
			Kind: Indel, Fake: true, Inconsistency: inconsistency, CyclicMoment: g.cyclicMoment,
			Mismatches: mismatches, IndelKind: kind, IndelLen: indelLen, HasIndel: true,
		}
	default:
		return PairEvent{Kind: Local, Inconsistency: inconsistency, CyclicMoment: g.cyclicMoment}
	}
}

func refEndDistance(refs ReferenceIndex, a Alignment) int64 {
	entry, ok := refs[a.RefName]
	if !ok {
		return 0
	}
	d1 := absI64(a.RefEnd - entry.Length)
	d2 := absI64(a.RefStart - 1)
	return min64(d1, d2)
}

// ProcessContig walks sortedAligns (already in contig order) and classifies
// every adjacent pair, returning the full verdict for the contig.
// cyclicRefLen is consulted only when haveCyclic is true.
func (c *Classifier) ProcessContig(sortedAligns []Alignment, contigSeq string, cyclicRefLen int64, haveCyclic bool) ContigVerdict {
	aligns := append([]Alignment(nil), sortedAligns...)
	verdict := ContigVerdict{}
	if len(aligns) == 0 {
		return verdict
	}

	curAlignedLength := aligns[0].CtgLen()
	var contigAlignedLength int64

	for i := 0; i < len(aligns)-1; i++ {
		p, q := &aligns[i], &aligns[i+1]
		g := geometry(*p, *q, cyclicRefLen, haveCyclic, c.cfg.ScaffoldsGapThreshold)
		ev := c.classifyPair(p, q, contigSeq, cyclicRefLen, haveCyclic)
		verdict.InternalOverlap += g.internalOverlap

		sameRefOrFakeTranslocation := p.RefName == q.RefName || ev.Kind == Translocation || ev.Kind == InterspeciesTranslocation
		if sameRefOrFakeTranslocation {
			curAlignedLength -= ExcludeInternalOverlaps(p, q, c.cfg.AmbiguityPolicy)
		}

		verdict.Events = append(verdict.Events, ev)
		verdict.Indels.apply(ev)

		switch {
		case ev.MatchedSV:
			// fake: aggregator.go counts it under its SVMatch kind
		case ev.Kind.IsExtensive() && !ev.MatchedSV:
			verdict.IsMisassembled = true
			verdict.AlignedSegments = append(verdict.AlignedSegments, curAlignedLength)
			contigAlignedLength += curAlignedLength
			curAlignedLength = 0
		}

		distanceOnContig := g.contigGap
		var overlapDeduction int64
		if distanceOnContig < 0 {
			overlapDeduction = -distanceOnContig
		}
		curAlignedLength += q.CtgLen() - overlapDeduction
	}

	verdict.AlignedSegments = append(verdict.AlignedSegments, curAlignedLength)
	contigAlignedLength += curAlignedLength
	verdict.ContigAlignedLength = contigAlignedLength
	verdict.Aligns = aligns
	return verdict
}
