// Reading and writing a3m alignments produced by the MSA search tool.

package msa

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Hit is one aligned record: the database entry header (without the
// leading ">") and the aligned sequence text. SpeciesID is filled in by
// AnnotateSpecies and stays empty when the header does not carry one.
type Hit struct {
	Header    string
	Sequence  string
	SpeciesID string
}

// Name returns the entry identifier, i.e. the header up to the first tab.
func (h *Hit) Name() string {
	name, _, _ := strings.Cut(h.Header, "\t")
	return name
}

// Alignment is a parsed a3m file. Hits[0] is the query record. Hit order
// is the search tool's ranking order and is never re-sorted here.
// UniRefEnd marks the first hit past the UniRef section: the search tool
// concatenates databases and repeats the query header at each boundary.
type Alignment struct {
	Hits      []Hit
	UniRefEnd int
}

// Query returns the query record of the alignment.
func (a *Alignment) Query() Hit {
	return a.Hits[0]
}

// ParseA3M reads header/sequence pairs from an a3m stream. The first
// record must be the query.
func ParseA3M(r io.Reader) (*Alignment, error) {

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	aln := &Alignment{UniRefEnd: -1}
	var cur *Hit

	line_no := 0
	for scanner.Scan() {
		line := scanner.Text()
		line_no++

		if strings.HasPrefix(line, ">") {
			header := strings.TrimPrefix(line, ">")
			if len(aln.Hits) > 0 && aln.UniRefEnd < 0 && header == aln.Hits[0].Header {
				// Repeated query header, the next database section starts here.
				aln.UniRefEnd = len(aln.Hits)
			}
			aln.Hits = append(aln.Hits, Hit{Header: header})
			cur = &aln.Hits[len(aln.Hits)-1]
			continue
		}

		if cur == nil {
			return nil, fmt.Errorf("a3m line %d: sequence without header", line_no)
		}
		cur.Sequence += line
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read a3m: %w", err)
	}

	if len(aln.Hits) == 0 {
		return nil, fmt.Errorf("a3m is empty")
	}
	if aln.Hits[0].Sequence == "" {
		return nil, fmt.Errorf("a3m query record has no sequence")
	}
	if aln.UniRefEnd < 0 {
		aln.UniRefEnd = len(aln.Hits)
	}

	return aln, nil
}

// WriteA3M writes hits in FASTA-like a3m form.
func WriteA3M(w io.Writer, hits []Hit) error {
	bw := bufio.NewWriter(w)
	for _, h := range hits {
		if _, err := fmt.Fprintf(bw, ">%s\n%s\n", h.Header, h.Sequence); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Render returns the alignment text of the given hits, with tabs
// replaced by spaces as required by the inference tool's JSON fields.
func Render(hits []Hit) string {
	var sb strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&sb, ">%s\n%s\n", h.Header, h.Sequence)
	}
	return strings.ReplaceAll(sb.String(), "\t", " ")
}
