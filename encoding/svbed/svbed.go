// Package svbed parses the optional structural-variant hints BED:
//
//	chrA startA endA chrB startB endB tag
//
// tag contains "INV" or "DEL", or neither; translocation is implied by
// chrA != chrB. Comment lines begin with '#'.
package svbed

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Breakpoint is one side of a structural variation, in 1-based reference
// coordinates.
type Breakpoint struct {
	RefName    string
	Start, End int64
}

// StructuralVariations holds the three kinds of SV the classifier matches
// against, each as a pair of breakpoints.
type StructuralVariations struct {
	Inversions     [][2]Breakpoint
	Relocations    [][2]Breakpoint
	Translocations [][2]Breakpoint
}

// Count returns the total number of loaded SVs across all three kinds.
func (s *StructuralVariations) Count() int {
	return len(s.Inversions) + len(s.Relocations) + len(s.Translocations)
}

// Scan reads an SV-hints BED from r and classifies each row into Scan's
// returned StructuralVariations. Rows with chrA==chrB and a tag containing
// "INV" become an inversion; chrA==chrB and a tag containing "DEL" become a
// relocation; chrA != chrB becomes a translocation; anything else (same
// chromosome, no recognized tag) is silently skipped.
func Scan(r io.Reader) (StructuralVariations, error) {
	var sv StructuralVariations
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 6 {
			continue
		}
		chrA := fields[0]
		startA, err1 := strconv.ParseInt(fields[1], 10, 64)
		endA, err2 := strconv.ParseInt(fields[2], 10, 64)
		chrB := fields[3]
		startB, err3 := strconv.ParseInt(fields[4], 10, 64)
		endB, err4 := strconv.ParseInt(fields[5], 10, 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		tag := ""
		if len(fields) >= 7 {
			tag = fields[6]
		}
		bpA := Breakpoint{RefName: chrA, Start: startA, End: endA}
		bpB := Breakpoint{RefName: chrB, Start: startB, End: endB}
		switch {
		case chrA != chrB:
			sv.Translocations = append(sv.Translocations, [2]Breakpoint{bpA, bpB})
		case strings.Contains(tag, "INV"):
			sv.Inversions = append(sv.Inversions, [2]Breakpoint{bpA, bpB})
		case strings.Contains(tag, "DEL"):
			sv.Relocations = append(sv.Relocations, [2]Breakpoint{bpA, bpB})
		}
	}
	if err := scanner.Err(); err != nil {
		return sv, errors.Wrap(err, "couldn't read SV-hints BED")
	}
	return sv, nil
}

// ScanPath opens path (transparently decompressing .gz) and scans it as an
// SV-hints BED.
func ScanPath(path string) (StructuralVariations, error) {
	ctx := vcontext.Background()
	infile, err := file.Open(ctx, path)
	if err != nil {
		return StructuralVariations{}, errors.Wrapf(err, "opening SV-hints BED %s", path)
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil {
			log.Error.Printf("closing SV-hints BED %s: %v", path, cerr)
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		gz, err := gzip.NewReader(reader)
		if err != nil {
			return StructuralVariations{}, errors.Wrapf(err, "opening gzip SV-hints BED %s", path)
		}
		defer gz.Close()
		reader = gz
	}
	return Scan(reader)
}
