package msa

import (
	"strings"
	"testing"
)

func TestSplitPairing(t *testing.T) {

	input := ">query_A\n" +
		"MKVLIT\n" +
		">UniRef100_P0C2L1_9606/\tdesc\n" +
		"MKVL-T\n" +
		">UniRef100_Q9XYZ1\tno taxid\n" +
		"MKV--T\n" +
		">query_A\n" +
		"MKVLIT\n" +
		">envdb_hit\tenvironmental\n" +
		"MK--IT\n"

	aln, err := ParseA3M(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	sp, err := SplitPairing(aln)
	if err != nil {
		t.Fatalf("SplitPairing: %v", err)
	}

	if sp.Query.Header != "query" || sp.Query.Sequence != "MKVLIT" {
		t.Errorf("query record = %+v", sp.Query)
	}

	if len(sp.Pairing) != 2 {
		t.Fatalf("pairing hits = %d, want 2", len(sp.Pairing))
	}
	if sp.Pairing[0].Header != "cb|P0C2L1|P0C2L1_9606/" {
		t.Errorf("pairing[0] header = %q", sp.Pairing[0].Header)
	}
	if sp.Pairing[1].Header != "cb|Q9XYZ1|Q9XYZ1/" {
		t.Errorf("pairing[1] header = %q", sp.Pairing[1].Header)
	}

	// The repeated query record is dropped; the env hit survives verbatim.
	if len(sp.NonPairing) != 1 {
		t.Fatalf("non-pairing hits = %d, want 1", len(sp.NonPairing))
	}
	if sp.NonPairing[0].Header != "envdb_hit\tenvironmental" {
		t.Errorf("non-pairing[0] header = %q", sp.NonPairing[0].Header)
	}

	// Rewritten pairing headers feed the species extraction.
	if got := SpeciesID(sp.Pairing[0].Header); got != "9606" {
		t.Errorf("species of pairing[0] = %q", got)
	}
}

func TestSplitPairingOrderPreserved(t *testing.T) {

	input := ">q\nMKV\n" +
		">UniRef100_AAA111_1/\nMKA\n" +
		">UniRef100_BBB222_2/\nMKB\n" +
		">UniRef100_CCC333_3/\nMKC\n"

	aln, err := ParseA3M(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	sp, err := SplitPairing(aln)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"cb|AAA111|AAA111_1/", "cb|BBB222|BBB222_2/", "cb|CCC333|CCC333_3/"}
	for i, h := range sp.Pairing {
		if h.Header != want[i] {
			t.Errorf("pairing[%d] = %q, want %q", i, h.Header, want[i])
		}
	}
}

func TestSplitPairingNoHits(t *testing.T) {

	aln, err := ParseA3M(strings.NewReader(">query_A\nMKVLIT\n"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := SplitPairing(aln); err == nil {
		t.Error("expected error for alignment without hits")
	}
}

func TestPairingHitsIncludeQuery(t *testing.T) {

	sp := &Split{
		Query:   Hit{Header: "query", Sequence: "MKV"},
		Pairing: []Hit{{Header: "cb|AAA111|AAA111_1", Sequence: "MKA"}},
	}

	hits := sp.PairingHits()
	if len(hits) != 2 || hits[0].Header != "query" {
		t.Errorf("PairingHits = %+v", hits)
	}

	if sp.NonPairingHits() != nil {
		t.Error("empty non-pairing set should return nil")
	}
}
