package misassembly

import (
	"context"
	"io"

	"github.com/biocore/asmqc/encoding/fasta"
	"github.com/biocore/asmqc/encoding/snps"
	"github.com/biocore/asmqc/encoding/svbed"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// AssemblyInput bundles everything Analyze needs for one assembly: its
// contigs, one or more alignment streams (e.g. one per reference chromosome,
// already produced by the external aligner upstream of this package), and
// the optional collaborator streams.
type AssemblyInput struct {
	Name    string
	Contigs fasta.Fasta

	Coords  []io.Reader
	SNPs    io.Reader // nil if no SNP file was supplied
	SVHints io.Reader // nil if no SV-hints BED was supplied
}

// ContigReport is the per-contig detail the report writers need beyond the
// aggregated AssemblyResult: the final (post-surgery, post-best-set) chosen
// alignments and the events classified between them.
type ContigReport struct {
	Name    string
	Length  int64
	Verdict Verdict
	Events  []PairEvent
	Aligns  []Alignment
}

// AnalyzeResult is Analyze's full output: the per-assembly statistics plus
// enough per-contig detail to drive the event log, filtered coords, and
// alignments-by-reference report writers.
type AnalyzeResult struct {
	Assembly string
	Result   *AssemblyResult
	Contigs  []ContigReport
}

// Analyze runs the full Loader -> Selector -> Classifier -> Aggregator
// pipeline for one assembly, exactly as pileup/snp/pileup.go's top-level
// Pileup function runs one shard's worth of work behind a single call the
// caller can fan out over with traverse.Each. A NoAlignments condition
// (empty or wholly malformed coords stream) is not an error: it yields a
// degenerate result with every contig unaligned, per SPEC_FULL §7.
func Analyze(ctx context.Context, input AssemblyInput, refs ReferenceIndex, cfg Config) (*AnalyzeResult, error) {
	loader := NewLoader()
	contigs := make(ContigAlignments)
	for _, r := range input.Coords {
		if err := loader.LoadAlignments(r, contigs, refs); err != nil {
			return nil, errors.E(err, MalformedRecord.String(), "loading coords for", input.Name)
		}
	}

	if loader.Stats().Accepted == 0 {
		log.Error.Printf("%s: %s: no alignments accepted", input.Name, NoAlignments)
		return degenerateResult(input, cfg)
	}

	var sv svbed.StructuralVariations
	if input.SVHints != nil {
		var err error
		sv, err = loader.LoadStructuralVariations(input.SVHints)
		if err != nil {
			return nil, errors.E(err, MalformedRecord.String(), "loading SV hints for", input.Name)
		}
	}

	var snpIdx *snps.Index
	if input.SNPs != nil {
		snpIdx = snps.NewIndex()
		if err := loader.LoadSNPs(input.SNPs, snpIdx); err != nil {
			return nil, errors.E(err, MalformedRecord.String(), "loading SNPs for", input.Name)
		}
	}

	selector := NewSelector(cfg)
	classifier := NewClassifier(cfg, refs, sv)
	aggregator := NewAggregator(cfg, refs)
	result := NewAssemblyResult()

	var contigReports []ContigReport
	refAligns := make(map[string][]Alignment)

	for _, ctgName := range input.Contigs.SeqNames() {
		if err := ctx.Err(); err != nil {
			return nil, errors.E(err, "analyzing", input.Name)
		}

		ctgLenU, err := input.Contigs.Len(ctgName)
		if err != nil {
			return nil, errors.E(err, IOError.String(), "reading length of", ctgName)
		}
		ctgLen := int64(ctgLenU)

		sel := selector.Select(ctgLen, contigs[ctgName], result)
		if sel.Verdict == VerdictUnaligned {
			aggregator.AddUnaligned(result, ctgLen)
			continue
		}

		ctgSeq, err := input.Contigs.Get(ctgName, 0, ctgLenU)
		if err != nil {
			return nil, errors.E(err, IOError.String(), "reading sequence of", ctgName)
		}

		if sel.Verdict == VerdictAmbiguous {
			if len(sel.Alignments) == 0 {
				continue
			}
			first := sel.Alignments[0]
			result.addIdentity(first.Identity)
			verdict := ContigVerdict{Aligns: []Alignment{first}, ContigAlignedLength: first.CtgLen()}
			aggregator.AddContig(result, ctgName, ctgLen, ctgSeq, verdict)
			refAligns[first.RefName] = append(refAligns[first.RefName], first)
			contigReports = append(contigReports, ContigReport{
				Name: ctgName, Length: ctgLen, Verdict: sel.Verdict, Aligns: []Alignment{first},
			})
			continue
		}

		aligned := sel.Alignments
		if sel.Verdict == VerdictMulti {
			aligned = bestAlignmentSet(aligned, ctgLen, ctgSeq, classifier, cfg)
		}

		cyclicRefLen, haveCyclic := cyclicReference(refs, aligned)
		verdict := classifier.ProcessContig(aligned, ctgSeq, cyclicRefLen, haveCyclic)
		for _, a := range verdict.Aligns {
			result.addIdentity(a.Identity)
			refAligns[a.RefName] = append(refAligns[a.RefName], a)
		}
		aggregator.AddContig(result, ctgName, ctgLen, ctgSeq, verdict)

		contigReports = append(contigReports, ContigReport{
			Name: ctgName, Length: ctgLen, Verdict: sel.Verdict, Events: verdict.Events, Aligns: verdict.Aligns,
		})
	}

	if snpIdx != nil {
		reconcileCoverage(result, refs, refAligns, snpIdx, cfg)
	}

	return &AnalyzeResult{Assembly: input.Name, Result: result, Contigs: contigReports}, nil
}

// bestAlignmentSet runs the VerdictMulti branch of SPEC_FULL §4.4: sort by
// contig end, prune provably-redundant candidates once the set is large
// enough to make that worthwhile, search for the optimal covering
// subsequence, then drop any middle alignment the post-search overlap check
// finds redundant.
func bestAlignmentSet(aligns []Alignment, ctgLen int64, ctgSeq string, classifier *Classifier, cfg Config) []Alignment {
	working := append([]Alignment(nil), aligns...)
	sortByCtgEnd(working)

	if len(working) > redundancyPruneThreshold {
		extensivePenalty := maxI64(50, minI64(cfg.ExtensiveMisassemblyThreshold/4, int64(float64(ctgLen)*0.05))) - 1
		working = PruneRedundant(working, extensivePenalty)
	}

	cyclicRefLen, haveCyclic := cyclicReference(classifier.refs, working)
	classify := func(prev, next Alignment) PairPenalty {
		ev := classifier.classifyPair(&prev, &next, ctgSeq, cyclicRefLen, haveCyclic)
		return PairPenalty{
			Extensive:   ev.Kind.IsExtensive(),
			ScaffoldGap: ev.Kind == ScaffoldGap,
			Local:       absI64(ev.Inconsistency) > cfg.MaxIndelLength && ev.Kind != ScaffoldGap,
		}
	}
	working = BestSet(working, ctgLen, cfg, classify)

	if len(working) >= 3 {
		working = SkipOverlappingRedundant(working, cfg)
	}
	return working
}

// cyclicReference derives the (length, haveCyclic) pair the Classifier needs
// from the first alignment's reference, matching the source's treatment of
// cyclic_ref_lens as keyed by the alignment pair's shared reference.
func cyclicReference(refs ReferenceIndex, aligns []Alignment) (int64, bool) {
	if len(aligns) == 0 {
		return 0, false
	}
	entry, ok := refs[aligns[0].RefName]
	if !ok || !entry.Cyclic {
		return 0, false
	}
	return entry.Length, true
}

// reconcileCoverage replaces the Aggregator's per-contig, N-content-based
// SNP/indel approximation with the exact SNP-reconciled totals from a
// reference-coverage walk, run once per reference over the final chosen
// alignments collected during the per-contig loop. TotalAlignedBases is left
// as the Aggregator set it: both flows derive it from the same chosen
// alignments, and reconciling two independent computations of the same
// number would only risk introducing a disagreement neither source intends.
func reconcileCoverage(result *AssemblyResult, refs ReferenceIndex, refAligns map[string][]Alignment, idx *snps.Index, cfg Config) {
	walker := NewCoverageWalker(cfg)
	result.SNPCount = 0
	result.InsertionCount = 0
	result.DeletionCount = 0
	result.IndelLengths = nil

	for refName, aligns := range refAligns {
		entry, ok := refs[refName]
		if !ok {
			continue
		}
		cov := walker.Walk(refName, entry.Length, aligns, idx)
		result.SNPCount += cov.IndelsInfo.Mismatches
		result.InsertionCount += cov.IndelsInfo.Insertions
		result.DeletionCount += cov.IndelsInfo.Deletions
		result.IndelLengths = append(result.IndelLengths, cov.IndelsInfo.IndelLengths...)
	}
}

// degenerateResult emits the NoAlignments outcome from SPEC_FULL §7: every
// contig counted unaligned, no error returned.
func degenerateResult(input AssemblyInput, cfg Config) (*AnalyzeResult, error) {
	result := NewAssemblyResult()
	aggregator := NewAggregator(cfg, ReferenceIndex{})
	for _, ctgName := range input.Contigs.SeqNames() {
		l, err := input.Contigs.Len(ctgName)
		if err != nil {
			return nil, errors.E(err, IOError.String(), "reading length of", ctgName)
		}
		aggregator.AddUnaligned(result, int64(l))
	}
	return &AnalyzeResult{Assembly: input.Name, Result: result}, nil
}
