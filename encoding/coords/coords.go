// Package coords parses the fixed-field alignment coordinate stream
// produced by a nucmer-style pairwise aligner (show-coords output): two
// header lines, one alignment per line, 13 whitespace-delimited tokens with
// required pipe characters separating the coordinate groups, and a blank
// line terminating the stream.
//
//   4324128  4496883  |   112426   285180  |   172755   172756  |  99.9900  | gi|48994873|gb|U00096.2|	NODE_333_length_285180_cov_221082
package coords

import (
	"bufio"
	"io"
	"strconv"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Record is one accepted alignment coordinate line.
type Record struct {
	RefStart, RefEnd   int64
	CtgStart, CtgEnd   int64
	RefLen, CtgLen     int64
	Identity           float64
	RefName, CtgName   string
}

// Stats summarizes what was seen while scanning a coords stream.
type Stats struct {
	Accepted     int
	Malformed    int
	MeanIdentity float64
}

func (s *Stats) observe(idy float64) {
	s.Accepted++
	s.MeanIdentity += (idy - s.MeanIdentity) / float64(s.Accepted)
}

const numTokens = 13

// getTokens splits curLine on runs of whitespace, writing up to len(tokens)
// results into tokens and returning how many were found.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

// Scan reads a coords stream from r, skipping the two header lines, and
// invokes fn for every well-formed record. Malformed lines (wrong token
// count, missing pipes, unparseable numbers) are dropped and counted in
// Stats rather than failing the scan; a trailing blank line ends the stream
// without error. Scan never returns a Stats with Accepted == 0 as an error
// itself — callers decide whether an empty result means NoAlignments.
func Scan(r io.Reader, fn func(Record)) (Stats, error) {
	var stats Stats
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 16*1024*1024)

	headerLines := 0
	var tokens [13][]byte
	tokenSlices := tokens[:]
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if headerLines < 2 {
			headerLines++
			continue
		}
		n := getTokens(tokenSlices, line)
		if n != numTokens {
			stats.Malformed++
			continue
		}
		rec, ok := parseRecord(tokenSlices)
		if !ok {
			stats.Malformed++
			continue
		}
		stats.observe(rec.Identity)
		fn(rec)
	}
	if err := scanner.Err(); err != nil {
		return stats, errors.Wrap(err, "couldn't read coords stream")
	}
	return stats, nil
}

func parseRecord(tok [][]byte) (Record, bool) {
	if string(tok[2]) != "|" || string(tok[5]) != "|" || string(tok[8]) != "|" || string(tok[10]) != "|" {
		return Record{}, false
	}
	rs, err1 := strconv.ParseInt(string(tok[0]), 10, 64)
	re, err2 := strconv.ParseInt(string(tok[1]), 10, 64)
	cs, err3 := strconv.ParseInt(string(tok[3]), 10, 64)
	ce, err4 := strconv.ParseInt(string(tok[4]), 10, 64)
	rlen, err5 := strconv.ParseInt(string(tok[6]), 10, 64)
	clen, err6 := strconv.ParseInt(string(tok[7]), 10, 64)
	idy, err7 := strconv.ParseFloat(string(tok[9]), 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil || err6 != nil || err7 != nil {
		return Record{}, false
	}
	if idy < 0 || idy > 100 {
		return Record{}, false
	}
	return Record{
		RefStart: rs, RefEnd: re,
		CtgStart: cs, CtgEnd: ce,
		RefLen: rlen, CtgLen: clen,
		Identity: idy,
		RefName:  string(tok[11]),
		CtgName:  string(tok[12]),
	}, true
}

// ScanPath opens path (transparently decompressing .gz) and scans it as a
// coords stream.
func ScanPath(path string, fn func(Record)) (Stats, error) {
	ctx := vcontext.Background()
	infile, err := file.Open(ctx, path)
	if err != nil {
		return Stats{}, errors.Wrapf(err, "opening coords file %s", path)
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil {
			log.Error.Printf("closing coords file %s: %v", path, cerr)
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		gz, err := gzip.NewReader(reader)
		if err != nil {
			return Stats{}, errors.Wrapf(err, "opening gzip coords file %s", path)
		}
		defer gz.Close()
		reader = gz
	}
	return Scan(reader, fn)
}
