/*
asmcheck runs the misassembly analyzer over one or more assemblies against a
shared reference set and writes the report artifacts named in spec.md §6.

	asmcheck -ref ref1.fasta,ref2.fasta -out results \
	  -assembly asmA:contigsA.fasta:coordsA.coords \
	  -assembly asmB:contigsB.fasta:coordsB.coords:snpsB.tsv:svhintsB.bed
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/biocore/asmqc/encoding/fasta"
	"github.com/biocore/asmqc/misassembly"
	"github.com/biocore/asmqc/report"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/base/vcontext"
	"github.com/klauspost/compress/gzip"
)

var (
	refPaths    = flag.String("ref", "", "Comma-separated reference FASTA paths; each file's sequences form one reference group")
	outPrefix   = flag.String("out", "asmcheck", "Output path prefix")
	parallelism = flag.Int("parallelism", 0, "Maximum number of assemblies analyzed concurrently; 0 = runtime.NumCPU()")
	ambiguity   = flag.String("ambiguity", "none", "Ambiguity policy for near-tied top alignments: none, one, or all")
	scaffolds   = flag.Bool("scaffolds", false, "Enable scaffolds mode (N-gap closing)")
	combined    = flag.Bool("combined-ref", false, "Enable combined/meta-reference mode (cross-group translocations)")
	fragmented  = flag.Bool("fragmented-ref", false, "Enable fragmented-reference cross-contig rule")

	assemblies assemblySpecs
)

func init() {
	flag.Var(&assemblies, "assembly", "name:contigs.fasta:coords[:snps[:svhints]], repeatable")
}

// assemblySpec is one -assembly flag occurrence.
type assemblySpec struct {
	Name, Contigs, Coords, SNPs, SVHints string
}

type assemblySpecs []assemblySpec

func (a *assemblySpecs) String() string {
	parts := make([]string, len(*a))
	for i, s := range *a {
		parts[i] = s.Name
	}
	return strings.Join(parts, ",")
}

func (a *assemblySpecs) Set(s string) error {
	parts := strings.Split(s, ":")
	if len(parts) < 3 {
		return fmt.Errorf("-assembly %q: need at least name:contigs:coords", s)
	}
	spec := assemblySpec{Name: parts[0], Contigs: parts[1], Coords: parts[2]}
	if len(parts) > 3 {
		spec.SNPs = parts[3]
	}
	if len(parts) > 4 {
		spec.SVHints = parts[4]
	}
	*a = append(*a, spec)
	return nil
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s -ref r1.fasta,r2.fasta -assembly name:contigs.fasta:coords.coords [-assembly ...]\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if *refPaths == "" || len(assemblies) == 0 {
		log.Fatalf("-ref and at least one -assembly are required")
	}

	cfg := misassembly.DefaultConfig()
	switch *ambiguity {
	case "one":
		cfg.AmbiguityPolicy = misassembly.PolicyOne
	case "all":
		cfg.AmbiguityPolicy = misassembly.PolicyAll
	default:
		cfg.AmbiguityPolicy = misassembly.PolicyNone
	}
	cfg.ScaffoldsMode = *scaffolds
	cfg.CombinedReferenceMode = *combined
	cfg.FragmentedReferenceMode = *fragmented

	ctx := vcontext.Background()

	refs, err := loadReferences(ctx, strings.Split(*refPaths, ","))
	if err != nil {
		log.Panicf("%v", err)
	}

	workers := *parallelism
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(assemblies) {
		workers = len(assemblies)
	}

	results := make([]*misassembly.AnalyzeResult, len(assemblies))
	contigsFastas := make([]fasta.Fasta, len(assemblies))
	err = traverse.Each(workers, func(i int) error {
		res, contigs, err := analyzeOne(ctx, assemblies[i], refs, cfg)
		if err != nil {
			log.Error.Printf("%s: %v", assemblies[i].Name, err)
			return nil // per-assembly isolation: one failure doesn't abort the pool.
		}
		results[i] = res
		contigsFastas[i] = contigs
		return nil
	})
	if err != nil {
		log.Panicf("internal traverse error: %v", err)
	}

	anySucceeded := false
	for i, res := range results {
		if res == nil {
			continue
		}
		anySucceeded = true
		if writeErr := writeReports(ctx, *outPrefix, res, contigsFastas[i]); writeErr != nil {
			log.Error.Printf("%s: writing reports: %v", assemblies[i].Name, writeErr)
		}
	}

	if !anySucceeded {
		os.Exit(1)
	}
}

// loadReferences builds a ReferenceIndex where every sequence in one FASTA
// file belongs to one reference group, named after the file's base name,
// matching create_meta_summary.py's one-group-per-input-FASTA-file grouping
// (SPEC_FULL §9).
func loadReferences(ctx context.Context, paths []string) (misassembly.ReferenceIndex, error) {
	refs := make(misassembly.ReferenceIndex)
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		r, err := openInput(ctx, path)
		if err != nil {
			return nil, errors.E(err, "opening reference", path)
		}
		f, err := fasta.New(r, fasta.OptClean)
		closeErr := r.Close()
		if err != nil {
			return nil, errors.E(err, "parsing reference", path)
		}
		if closeErr != nil {
			return nil, errors.E(closeErr, "closing reference", path)
		}
		group := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		for _, name := range f.SeqNames() {
			l, err := f.Len(name)
			if err != nil {
				return nil, errors.E(err, "reading length of", name, "in", path)
			}
			refs[name] = &misassembly.ReferenceEntry{Name: name, Length: int64(l), Group: group}
		}
	}
	return refs, nil
}

func analyzeOne(ctx context.Context, spec assemblySpec, refs misassembly.ReferenceIndex, cfg misassembly.Config) (*misassembly.AnalyzeResult, fasta.Fasta, error) {
	contigsReader, err := openInput(ctx, spec.Contigs)
	if err != nil {
		return nil, nil, errors.E(err, misassembly.IOError.String(), "opening contigs for", spec.Name)
	}
	contigs, err := fasta.New(contigsReader, fasta.OptClean)
	closeErr := contigsReader.Close()
	if err != nil {
		return nil, nil, errors.E(err, misassembly.MalformedRecord.String(), "parsing contigs for", spec.Name)
	}
	if closeErr != nil {
		return nil, nil, errors.E(closeErr, "closing contigs for", spec.Name)
	}

	input := misassembly.AssemblyInput{Name: spec.Name, Contigs: contigs}

	for _, coordsPath := range strings.Split(spec.Coords, ",") {
		r, err := openInput(ctx, coordsPath)
		if err != nil {
			return nil, nil, errors.E(err, misassembly.IOError.String(), "opening coords for", spec.Name)
		}
		defer r.Close()
		input.Coords = append(input.Coords, r)
	}

	if spec.SNPs != "" {
		r, err := openInput(ctx, spec.SNPs)
		if err != nil {
			return nil, nil, errors.E(err, misassembly.IOError.String(), "opening SNPs for", spec.Name)
		}
		defer r.Close()
		input.SNPs = r
	}

	if spec.SVHints != "" {
		r, err := openInput(ctx, spec.SVHints)
		if err != nil {
			return nil, nil, errors.E(err, misassembly.IOError.String(), "opening SV hints for", spec.Name)
		}
		defer r.Close()
		input.SVHints = r
	}

	res, err := misassembly.Analyze(ctx, input, refs, cfg)
	if err != nil {
		return nil, nil, err
	}
	return res, contigs, nil
}

// openInput opens path (transparently decompressing .gz), matching
// encoding/coords.ScanPath's own file-opening idiom.
func openInput(ctx context.Context, path string) (readCloser, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	var reader = f.Reader(ctx)
	if fileio.DetermineType(path) == fileio.Gzip {
		gz, err := gzip.NewReader(reader)
		if err != nil {
			_ = f.Close(ctx)
			return nil, err
		}
		return &gzipReadCloser{gz: gz, underlying: f, ctx: ctx}, nil
	}
	return &fileReadCloser{f: f, ctx: ctx, reader: reader}, nil
}

// readCloser mirrors io.ReadCloser without importing it twice under two
// different close conventions: file.File.Close takes a context, gzip.Reader
// doesn't.
type readCloser interface {
	Read(p []byte) (int, error)
	Close() error
}

type fileReadCloser struct {
	f      file.File
	ctx    context.Context
	reader interface{ Read([]byte) (int, error) }
}

func (r *fileReadCloser) Read(p []byte) (int, error) { return r.reader.Read(p) }
func (r *fileReadCloser) Close() error                { return r.f.Close(r.ctx) }

type gzipReadCloser struct {
	gz         *gzip.Reader
	underlying file.File
	ctx        context.Context
}

func (r *gzipReadCloser) Read(p []byte) (int, error) { return r.gz.Read(p) }
func (r *gzipReadCloser) Close() error {
	if err := r.gz.Close(); err != nil {
		_ = r.underlying.Close(r.ctx)
		return err
	}
	return r.underlying.Close(r.ctx)
}

func writeReports(ctx context.Context, prefix string, res *misassembly.AnalyzeResult, contigs fasta.Fasta) (err error) {
	if werr := writeTo(ctx, prefix+"."+res.Assembly+".result.tsv", func(w io.Writer) error {
		return report.WriteAssemblyResult(w, res.Assembly, res.Result)
	}); werr != nil {
		return werr
	}
	if werr := writeTo(ctx, prefix+"."+res.Assembly+".events.txt", func(w io.Writer) error {
		return report.WriteContigEvents(w, res.Contigs)
	}); werr != nil {
		return werr
	}
	if werr := writeTo(ctx, prefix+"."+res.Assembly+".filtered.coords", func(w io.Writer) error {
		return report.WriteFilteredCoords(w, res.Contigs)
	}); werr != nil {
		return werr
	}
	if werr := writeTo(ctx, prefix+"."+res.Assembly+".misassembly_info.txt", func(w io.Writer) error {
		return report.WriteMisassemblyInfo(w, res.Contigs)
	}); werr != nil {
		return werr
	}
	byRef := report.AlignmentsByReference(res.Contigs)
	if werr := writeTo(ctx, prefix+"."+res.Assembly+".alignments_by_ref.tsv", func(w io.Writer) error {
		return report.WriteAlignmentsByReference(w, byRef)
	}); werr != nil {
		return werr
	}
	if contigs != nil && len(res.Result.MisassembledContigs) > 0 {
		if werr := writeTo(ctx, prefix+"."+res.Assembly+".misassembled.fasta", func(w io.Writer) error {
			return report.WriteMisassembledContigsFasta(w, contigs, res.Result)
		}); werr != nil {
			return werr
		}
	}
	return nil
}

// writeTo mirrors pileup/snp/output.go's file.Create/CloseAndReport pattern
// for every report artifact.
func writeTo(ctx context.Context, path string, fn func(io.Writer) error) (err error) {
	dst, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "creating", path)
	}
	defer file.CloseAndReport(ctx, dst, &err)
	return fn(dst.Writer(ctx))
}
