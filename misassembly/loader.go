package misassembly

import (
	"io"

	"github.com/biocore/asmqc/encoding/coords"
	"github.com/biocore/asmqc/encoding/snps"
	"github.com/biocore/asmqc/encoding/svbed"
	"github.com/grailbio/base/log"
)

// Loader turns the collaborator streams (coords, SNPs, SV hints, reference
// groups) into the in-memory structures the rest of the pipeline consumes.
type Loader struct {
	stats coords.Stats
}

// NewLoader returns a Loader ready to accumulate from one or more calls to
// LoadAlignments.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadAlignments scans a coords stream and appends every accepted record
// into contigs and refs. refs must already contain an entry for any
// ref_name the stream will reference; alignments naming an unknown
// reference are dropped (IOError, per error-handling design) and logged.
func (l *Loader) LoadAlignments(r io.Reader, contigs ContigAlignments, refs ReferenceIndex) error {
	stats, err := coords.Scan(r, func(rec coords.Record) {
		if _, ok := refs[rec.RefName]; !ok {
			log.Error.Printf("alignment references unknown reference %q, dropping", rec.RefName)
			return
		}
		contigs.Add(Alignment{
			RefName:  rec.RefName,
			RefStart: rec.RefStart,
			RefEnd:   rec.RefEnd,
			CtgName:  rec.CtgName,
			CtgStart: rec.CtgStart,
			CtgEnd:   rec.CtgEnd,
			Identity: rec.Identity,
		})
	})
	if err != nil {
		return err
	}
	l.stats.Accepted += stats.Accepted
	l.stats.Malformed += stats.Malformed
	if l.stats.Accepted > 0 {
		// Running mean across possibly multiple calls (e.g. one per
		// reference chromosome before the per-chromosome deltas were
		// concatenated upstream).
		l.stats.MeanIdentity = (l.stats.MeanIdentity*float64(l.stats.Accepted-stats.Accepted) +
			stats.MeanIdentity*float64(stats.Accepted)) / float64(l.stats.Accepted)
	}
	return nil
}

// Stats reports what LoadAlignments has seen so far; Accepted == 0 signals
// NoAlignments to the caller.
func (l *Loader) Stats() coords.Stats { return l.stats }

// LoadSNPs scans a SNP stream into idx.
func (l *Loader) LoadSNPs(r io.Reader, idx *snps.Index) error {
	return snps.Scan(r, func(rec snps.Record) {
		idx.Add(rec)
	})
}

// LoadStructuralVariations scans an optional SV-hints BED. A missing file is
// not an error at this layer; callers pass nil/empty readers only when a
// hints file was actually supplied.
func (l *Loader) LoadStructuralVariations(r io.Reader) (svbed.StructuralVariations, error) {
	return svbed.Scan(r)
}

// BuildReferenceGroups assigns every sequence name in seqNames to group,
// setting refs[name] to a new entry built from the lengths map and replacing
// any entry already there. This realizes the "one reference group per input FASTA file"
// policy from SPEC_FULL §9.
func BuildReferenceGroups(refs ReferenceIndex, group string, seqNames []string, lengths map[string]int64, cyclic bool) {
	for _, name := range seqNames {
		refs[name] = &ReferenceEntry{
			Name:   name,
			Length: lengths[name],
			Group:  group,
			Cyclic: cyclic,
		}
	}
}
