package msa

import (
	"fmt"
	"strings"
)

// Split separates an alignment into the hits usable for cross-chain
// pairing (UniRef entries, which carry a stable accession and species)
// and everything else. Both sets keep the tool's ranking order and are
// headed by an anonymized ">query" record.
type Split struct {
	Query      Hit
	Pairing    []Hit
	NonPairing []Hit
}

// SplitPairing partitions the alignment. UniRef100 headers are rewritten
// to the cb|{accession}|{accession}_{taxid} convention so the taxonomy
// extraction applies to them like to any UniProt hit; a UniRef entry
// without a taxid gets cb|{accession}|{accession}/ instead. The repeated
// query record at the database boundary is dropped.
func SplitPairing(aln *Alignment) (*Split, error) {

	query := aln.Query()
	sp := &Split{
		Query: Hit{Header: "query", Sequence: query.Sequence},
	}

	for i, hit := range aln.Hits[1:] {
		name := hit.Name()

		if strings.HasPrefix(name, "UniRef100_") {
			parts := strings.Split(name, "_")
			var header string
			if len(parts) == 3 {
				header = fmt.Sprintf("cb|%s|%s_%s", parts[1], parts[1], parts[2])
			} else {
				header = fmt.Sprintf("cb|%s|%s/", parts[1], parts[1])
			}
			sp.Pairing = append(sp.Pairing, Hit{Header: header, Sequence: hit.Sequence})
			continue
		}

		// The query header repeats where the next database section starts.
		if i+1 == aln.UniRefEnd && hit.Header == query.Header {
			continue
		}

		sp.NonPairing = append(sp.NonPairing, hit)
	}

	if len(sp.Pairing) == 0 && len(sp.NonPairing) == 0 {
		return nil, fmt.Errorf("alignment has no hits beyond the query")
	}

	return sp, nil
}

// PairingHits returns the pairing set including the query record.
func (s *Split) PairingHits() []Hit {
	if len(s.Pairing) == 0 {
		return nil
	}
	return append([]Hit{s.Query}, s.Pairing...)
}

// NonPairingHits returns the non-pairing set including the query record.
func (s *Split) NonPairingHits() []Hit {
	if len(s.NonPairing) == 0 {
		return nil
	}
	return append([]Hit{s.Query}, s.NonPairing...)
}
