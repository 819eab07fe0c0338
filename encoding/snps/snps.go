// Package snps parses the tab-delimited SNP stream produced by a
// show-snps-style companion tool running alongside the pairwise aligner
// (columns: ref_pos ref_base ctg_base ctg_pos ... ref_name contig_name).
// Only the columns the analyzer actually consumes are kept; the remaining
// columns are skipped but still counted for the malformed-line check.
package snps

import (
	"bufio"
	"io"
	"sort"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
)

// Kind classifies a SNP event relative to the reference.
type Kind int

const (
	Substitution Kind = iota
	Insertion
	Deletion
)

// Record is one accepted SNP event.
type Record struct {
	RefName, CtgName string
	RefPos, CtgPos   int64
	RefBase, CtgBase string
	Kind             Kind
}

func classify(refBase, ctgBase string) Kind {
	switch {
	case refBase == ".":
		return Insertion
	case ctgBase == ".":
		return Deletion
	default:
		return Substitution
	}
}

// rawRow is the positional layout of one show-snps line: ref_pos, ref_base,
// ctg_base, ctg_pos, then six columns the analyzer never consults (nearby
// mismatch counts, buffered distances, frame/tag fields), then ref_name and
// contig_name. No struct tags are given, so tsv.Reader matches columns by
// position, the same headerless layout `gtfRecord` in
// fusion/parsegencode.go reads.
type rawRow struct {
	RefPos  int64
	RefBase string
	CtgBase string
	CtgPos  int64
	_       string
	_       string
	_       string
	_       string
	_       string
	_       string
	RefName string
	CtgName string
}

// bufferSize matches the teacher's own oversized-line allowance for
// aligner-produced text streams.
const bufferSize = 16 * 1024 * 1024

// Scan reads a SNP stream from r and invokes fn for every accepted record.
// Lines whose first field isn't numeric are skipped (header/comment lines);
// a record identical to the immediately preceding one is deduplicated,
// mirroring the aligner's own habit of repeating the last SNP line.
func Scan(r io.Reader, fn func(Record)) error {
	tr := tsv.NewReader(bufio.NewReaderSize(r, bufferSize))

	var prev Record
	havePrev := false
	for {
		var row rawRow
		if err := tr.Read(&row); err != nil {
			if err == io.EOF {
				return nil
			}
			log.Debug.Printf("skipping malformed SNP line: %v", err)
			continue
		}
		rec := Record{
			RefName: row.RefName,
			CtgName: row.CtgName,
			RefPos:  row.RefPos,
			CtgPos:  row.CtgPos,
			RefBase: row.RefBase,
			CtgBase: row.CtgBase,
			Kind:    classify(row.RefBase, row.CtgBase),
		}
		if havePrev && rec == prev {
			continue
		}
		prev = rec
		havePrev = true
		fn(rec)
	}
}

// Index groups accepted SNP records by (ref_name, contig_name), in arrival
// order. Records are not keyed by ref_pos: several events at one locus are
// all kept, and callers that need per-position lookup group the records
// themselves.
type Index struct {
	byLocus map[string]map[string][]Record
}

func NewIndex() *Index {
	return &Index{byLocus: make(map[string]map[string][]Record)}
}

func (idx *Index) Add(r Record) {
	byCtg, ok := idx.byLocus[r.RefName]
	if !ok {
		byCtg = make(map[string][]Record)
		idx.byLocus[r.RefName] = byCtg
	}
	byCtg[r.CtgName] = append(byCtg[r.CtgName], r)
}

// At returns all SNP records at ref_name/contig_name ordered by insertion.
func (idx *Index) At(refName, ctgName string) []Record {
	byCtg, ok := idx.byLocus[refName]
	if !ok {
		return nil
	}
	return byCtg[ctgName]
}

// ForContig returns every SNP record seen for ref_name/contig_name, sorted by
// RefPos, for use by the reference-coverage walk's SNP cursor.
func (idx *Index) ForContig(refName, ctgName string) []Record {
	recs := append([]Record(nil), idx.At(refName, ctgName)...)
	sort.Slice(recs, func(i, j int) bool { return recs[i].RefPos < recs[j].RefPos })
	return recs
}
