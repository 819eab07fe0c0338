// Package misassembly implements the alignment-interpretation engine: given
// a stream of local alignments between assembled contigs and a reference
// genome, it selects a best-covering subset per contig, classifies the
// discordances between adjacent alignments into misassembly categories, and
// aggregates per-assembly statistics.
package misassembly

// Strand is the orientation of an alignment on the contig relative to the
// reference.
type Strand int

const (
	Forward Strand = iota
	Reverse
)

// Alignment is a local alignment between a reference region and a contig
// region. Coordinates are 1-based inclusive, matching the aligner's coords
// stream. Strand is carried implicitly by CtgStart/CtgEnd ordering
// (CtgStart < CtgEnd is Forward) the same way the source data does; Strand()
// reports it explicitly for readability at call sites.
type Alignment struct {
	RefName string
	RefStart, RefEnd int64

	CtgName string
	CtgStart, CtgEnd int64

	Identity float64
}

// RefLen is the reference span of the alignment.
func (a *Alignment) RefLen() int64 { return a.RefEnd - a.RefStart + 1 }

// CtgLen is the contig span of the alignment (strand-independent).
func (a *Alignment) CtgLen() int64 {
	if a.CtgStart <= a.CtgEnd {
		return a.CtgEnd - a.CtgStart + 1
	}
	return a.CtgStart - a.CtgEnd + 1
}

// Strand reports the alignment's orientation.
func (a *Alignment) Strand() Strand {
	if a.CtgStart <= a.CtgEnd {
		return Forward
	}
	return Reverse
}

// CtgLeft and CtgRight are the contig-coordinate endpoints in increasing
// order, regardless of strand.
func (a *Alignment) CtgLeft() int64 {
	if a.CtgStart <= a.CtgEnd {
		return a.CtgStart
	}
	return a.CtgEnd
}

func (a *Alignment) CtgRight() int64 {
	if a.CtgStart <= a.CtgEnd {
		return a.CtgEnd
	}
	return a.CtgStart
}

// ShiftCtgLeft moves the contig-left endpoint (min(CtgStart,CtgEnd)) to
// newLeft, adjusting the corresponding reference endpoint so strand and the
// rlen/clen invariants are preserved. The caller (surgery.go) is responsible
// for keeping newLeft within the alignment's own span.
func (a *Alignment) ShiftCtgLeft(newLeft int64) {
	if a.Strand() == Forward {
		a.RefStart += newLeft - a.CtgStart
		a.CtgStart = newLeft
	} else {
		a.RefEnd -= newLeft - a.CtgEnd
		a.CtgEnd = newLeft
	}
}

// ShiftCtgRight moves the contig-right endpoint (max(CtgStart,CtgEnd)) to
// newRight, adjusting the corresponding reference endpoint so strand and the
// rlen/clen invariants are preserved.
func (a *Alignment) ShiftCtgRight(newRight int64) {
	if a.Strand() == Forward {
		a.RefEnd -= a.CtgEnd - newRight
		a.CtgEnd = newRight
	} else {
		a.RefStart += a.CtgStart - newRight
		a.CtgStart = newRight
	}
}

// ReferenceEntry describes one loaded reference sequence.
type ReferenceEntry struct {
	Name    string
	Length  int64
	Group   string // reference group label for combined/meta-reference runs
	Cyclic  bool
}

// ReferenceIndex maps reference name to its ReferenceEntry.
type ReferenceIndex map[string]*ReferenceEntry

// SameGroup reports whether refA and refB belong to the same reference
// group; unknown references are treated as belonging to no group in common.
func (idx ReferenceIndex) SameGroup(refA, refB string) bool {
	a, aok := idx[refA]
	b, bok := idx[refB]
	if !aok || !bok {
		return false
	}
	return a.Group == b.Group
}

// ContigAlignments maps contig name to its (unordered-at-load) alignments.
type ContigAlignments map[string][]Alignment

// Add appends an alignment under its contig name.
func (c ContigAlignments) Add(a Alignment) {
	c[a.CtgName] = append(c[a.CtgName], a)
}

// Kind is the closed set of misassembly / fake-event classifications a pair
// of adjacent alignments can produce.
type Kind int

const (
	Local Kind = iota
	Relocation
	Translocation
	Inversion
	InterspeciesTranslocation
	ScaffoldGap
	Fragmented
	PotentialContig
	PotentialEvent
	// SVMatch, LinearCyclic, and Indel are "fake" near-boundary/SV labels
	// distinct from LOCAL, matching the classification-totality property:
	// every adjacent pair produces exactly one of these closed-set labels.
	SVMatch
	LinearCyclic
	Indel
)

func (k Kind) String() string {
	switch k {
	case Local:
		return "LOCAL"
	case Relocation:
		return "RELOCATION"
	case Translocation:
		return "TRANSLOCATION"
	case Inversion:
		return "INVERSION"
	case InterspeciesTranslocation:
		return "INTERSPECIES_TRANSLOCATION"
	case ScaffoldGap:
		return "SCAFFOLD_GAP"
	case Fragmented:
		return "FRAGMENTED"
	case PotentialContig:
		return "POTENTIAL_CONTIG"
	case PotentialEvent:
		return "POTENTIAL_EVENT"
	case SVMatch:
		return "SV"
	case LinearCyclic:
		return "LINEAR_CYCLIC"
	case Indel:
		return "INDEL"
	default:
		return "UNKNOWN"
	}
}

// IsExtensive reports whether a kind counts as an "extensive" misassembly
// for the purposes of the global and per-reference-group counters (rules 3
// and 4 of the Classifier; scaffold gap and fragmented are "fake" and never
// extensive).
func (k Kind) IsExtensive() bool {
	switch k {
	case Relocation, Translocation, Inversion, InterspeciesTranslocation:
		return true
	default:
		return false
	}
}

// AmbiguityPolicy controls how the Selector treats a contig whose top
// alignment family has more than one member within epsilon of the best.
type AmbiguityPolicy int

const (
	// PolicyNone discards all members; the contig is counted ambiguous and
	// contributes no aligned bases.
	PolicyNone AmbiguityPolicy = iota
	// PolicyOne keeps only the first member (by the Selector's sort order).
	PolicyOne
	// PolicyAll keeps every member; only the first contributes to aligned
	// length, the rest each add their length to ambiguous extra bases.
	PolicyAll
)

// IndelKind distinguishes an insertion from a deletion in the fake-indel
// near-boundary classification (rule 5 of the Classifier).
type IndelKind int

const (
	IndelInsertion IndelKind = iota
	IndelDeletion
)

// Config bundles every tunable threshold the pipeline needs, all injected
// explicitly at construction time rather than read from package-level
// globals.
type Config struct {
	// Selector
	MaxUnaligned int     // maxun: contig bases short of full length still
	                      // counted as "captured by one alignment family"
	Epsilon      float64 // ratio threshold gathering near-best alignments

	// Classifier / best-set thresholds
	MaxIndelLength                int64
	ExtensiveMisassemblyThreshold int64
	ShortIndelThreshold           int64
	SignificantPartSize           int64
	ScaffoldsGapThreshold         int64 // smgap; defaults to ExtensiveMisassemblyThreshold
	NsBreakThreshold              int64
	UnalignedMisassembledThreshold float64 // umt

	// Extra redundant-alignment skip (surgery.go), applied only when the
	// multi-alignment candidate set has >= 3 members.
	OverlapRelativeThreshold float64 // ort
	OverlapAbsoluteThreshold int64   // oat
	OverlapDetectingGap      int64   // odgap

	// SV matcher
	SVMaxError int64
	// SVMaxGap defaults to ExtensiveMisassemblyThreshold / 4 when zero.
	SVMaxGap int64

	ScaffoldsMode           bool // scaffolds mode: enables SCAFFOLD_GAP rule
	CombinedReferenceMode   bool // multiple reference groups loaded
	FragmentedReferenceMode bool // enables FRAGMENTED cross-reference rule

	AmbiguityPolicy AmbiguityPolicy
}

// DefaultConfig returns the thresholds QUAST ships by default.
func DefaultConfig() Config {
	c := Config{
		MaxUnaligned:                   10,
		Epsilon:                        0.99,
		MaxIndelLength:                 85,
		ExtensiveMisassemblyThreshold:  1000,
		ShortIndelThreshold:            5,
		SignificantPartSize:            20,
		NsBreakThreshold:               10,
		UnalignedMisassembledThreshold: 0.5,
		OverlapRelativeThreshold:       0.9,
		OverlapAbsoluteThreshold:       25,
		OverlapDetectingGap:            1000,
		SVMaxError:                     100,
		AmbiguityPolicy:                PolicyNone,
	}
	c.ScaffoldsGapThreshold = c.ExtensiveMisassemblyThreshold
	c.SVMaxGap = c.ExtensiveMisassemblyThreshold / 4
	return c
}

// UnalignedBucket classifies how much of a contig failed to align.
type UnalignedBucket int

const (
	FullyUnaligned UnalignedBucket = iota
	PartiallyUnaligned
	PartiallyUnalignedWithMisassembly
	PartiallyUnalignedWithSignificantParts
)

// MisassembledContig records a contig that carries at least one real
// misassembly, for the misassembled-contigs FASTA/report.
type MisassembledContig struct {
	Name   string
	Length int64
}

// AssemblyResult accumulates every per-assembly statistic the Aggregator
// produces.
type AssemblyResult struct {
	MisassemblyCounts map[Kind]int

	// InterTranslocationMatrix[a][b] counts INTERSPECIES_TRANSLOCATION
	// events between reference group a and reference group b (both
	// directions recorded, per spec E4).
	InterTranslocationMatrix map[string]map[string]int

	AmbiguousContigs     int
	AmbiguousExtraBases  int64

	UnalignedContigs                          int
	PartiallyUnalignedContigs                 int
	PartiallyUnalignedWithMisassemblyContigs  int
	PartiallyUnalignedWithSignificantParts    int
	UnalignedBases                            int64

	MisassembledContigs []MisassembledContig
	MisassembledBases   int64
	InterContigOverlap  int64

	SNPCount        int64
	InsertionCount  int64
	DeletionCount   int64
	IndelLengths    []int64

	TotalAlignedBases int64
	identitySum       float64
	identityCount     int64

	PotentialContigs int
	PotentialEvents  int
}

// NewAssemblyResult returns a zero-valued, ready-to-accumulate result.
func NewAssemblyResult() *AssemblyResult {
	return &AssemblyResult{
		MisassemblyCounts:         make(map[Kind]int),
		InterTranslocationMatrix:  make(map[string]map[string]int),
	}
}

func (r *AssemblyResult) addMisassembly(k Kind) {
	r.MisassemblyCounts[k]++
}

func (r *AssemblyResult) addInterTranslocation(groupA, groupB string) {
	if r.InterTranslocationMatrix[groupA] == nil {
		r.InterTranslocationMatrix[groupA] = make(map[string]int)
	}
	r.InterTranslocationMatrix[groupA][groupB]++
}

// RecordAmbiguous marks one contig as ambiguous and applies the given signed
// adjustment to the ambiguous-extra-bases total (negative for policy none,
// zero for policy one, positive per extra copy under policy all).
func (r *AssemblyResult) RecordAmbiguous(extraBases int64) {
	r.AmbiguousContigs++
	r.AmbiguousExtraBases += extraBases
}

func (r *AssemblyResult) addIdentity(idy float64) {
	r.identitySum += idy
	r.identityCount++
}

// AverageIdentity returns the mean percent identity across the alignments
// kept for the assembly's contigs (the Selector's and best-set search's
// final choice), or 0 if none were kept.
func (r *AssemblyResult) AverageIdentity() float64 {
	if r.identityCount == 0 {
		return 0
	}
	return r.identitySum / float64(r.identityCount)
}

// Merge folds another AssemblyResult into r, the way a per-contig partial
// result folds into the per-assembly accumulator.
func (r *AssemblyResult) Merge(o *AssemblyResult) {
	for k, v := range o.MisassemblyCounts {
		r.MisassemblyCounts[k] += v
	}
	for a, row := range o.InterTranslocationMatrix {
		if r.InterTranslocationMatrix[a] == nil {
			r.InterTranslocationMatrix[a] = make(map[string]int)
		}
		for b, v := range row {
			r.InterTranslocationMatrix[a][b] += v
		}
	}
	r.AmbiguousContigs += o.AmbiguousContigs
	r.AmbiguousExtraBases += o.AmbiguousExtraBases
	r.UnalignedContigs += o.UnalignedContigs
	r.PartiallyUnalignedContigs += o.PartiallyUnalignedContigs
	r.PartiallyUnalignedWithMisassemblyContigs += o.PartiallyUnalignedWithMisassemblyContigs
	r.PartiallyUnalignedWithSignificantParts += o.PartiallyUnalignedWithSignificantParts
	r.UnalignedBases += o.UnalignedBases
	r.MisassembledContigs = append(r.MisassembledContigs, o.MisassembledContigs...)
	r.MisassembledBases += o.MisassembledBases
	r.InterContigOverlap += o.InterContigOverlap
	r.SNPCount += o.SNPCount
	r.InsertionCount += o.InsertionCount
	r.DeletionCount += o.DeletionCount
	r.IndelLengths = append(r.IndelLengths, o.IndelLengths...)
	r.TotalAlignedBases += o.TotalAlignedBases
	r.identitySum += o.identitySum
	r.identityCount += o.identityCount
	r.PotentialContigs += o.PotentialContigs
	r.PotentialEvents += o.PotentialEvents
}
