package descriptor

import (
	"encoding/json"
	"errors"
	"os"
	"path"
	"strings"
	"testing"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()
	fpath := path.Join(t.TempDir(), "fold_input.json")
	if err := os.WriteFile(fpath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return fpath
}

func TestReadFoldInput(t *testing.T) {

	valid := `{
		"name": "test_complex",
		"modelSeeds": [1],
		"sequences": [
			{"protein": {"id": "A", "sequence": "MKVLIT"}},
			{"protein": {"id": ["B", "C"], "sequence": "GGSGGS"}},
			{"rna": {"id": "R", "sequence": "AUGC"}}
		]
	}`

	in, err := ReadFoldInput(writeInput(t, valid))
	if err != nil {
		t.Fatalf("ReadFoldInput: %v", err)
	}

	if in.Name != "test_complex" {
		t.Errorf("name = %q", in.Name)
	}

	prots := in.ProteinChains()
	if len(prots) != 2 {
		t.Fatalf("protein chains = %d, want 2", len(prots))
	}
	if prots[1].ID[0] != "B" || len(prots[1].ID) != 2 {
		t.Errorf("chain ids = %v", prots[1].ID)
	}

	// Non-protein entries survive untouched.
	raw, err := json.Marshal(in.Sequences[2])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"rna"`) {
		t.Error("rna entry was dropped")
	}
}

func TestReadFoldInputErrors(t *testing.T) {

	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "NotJSON",
			content: "not json at all",
		},
		{
			name:    "MissingName",
			content: `{"sequences": [{"protein": {"id": "A", "sequence": "MKV"}}]}`,
		},
		{
			name:    "NoProteinChains",
			content: `{"name": "x", "sequences": [{"rna": {"id": "R"}}]}`,
		},
		{
			name:    "EmptySequence",
			content: `{"name": "x", "sequences": [{"protein": {"id": "A", "sequence": ""}}]}`,
		},
		{
			name:    "MissingID",
			content: `{"name": "x", "sequences": [{"protein": {"sequence": "MKV"}}]}`,
		},
		{
			name:    "DuplicateID",
			content: `{"name": "x", "sequences": [{"protein": {"id": "A", "sequence": "MKV"}}, {"protein": {"id": "A", "sequence": "MKL"}}]}`,
		},
		{
			name:    "DuplicateIDInList",
			content: `{"name": "x", "sequences": [{"protein": {"id": ["A", "A"], "sequence": "MKV"}}]}`,
		},
		{
			name:    "WhitespaceInSequence",
			content: `{"name": "x", "sequences": [{"protein": {"id": "A", "sequence": "MKV LIT"}}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFoldInput(writeInput(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			var ferr *FormatError
			if !errors.As(err, &ferr) {
				t.Errorf("expected FormatError, got %T: %v", err, err)
			}
		})
	}
}

func TestWriteDataPreservesUnknownFields(t *testing.T) {

	input := `{
		"name": "complex2",
		"modelSeeds": [42],
		"bondedAtomPairs": [[["A", 1, "CA"], ["B", 2, "CB"]]],
		"userCCD": "data_mol",
		"sequences": [
			{"protein": {
				"id": "A",
				"sequence": "MKVLIT",
				"modifications": [{"ptmType": "HY3", "ptmPosition": 1}]
			}},
			{"rna": {"id": "R", "sequence": "AUGC"}}
		],
		"dialect": "alphafold3",
		"version": 2
	}`

	in, err := ReadFoldInput(writeInput(t, input))
	if err != nil {
		t.Fatalf("ReadFoldInput: %v", err)
	}

	prot := in.ProteinChains()[0]
	prot.UnpairedMSA = ">query\nMKVLIT\n"
	prot.PairedMSA = ">query\nMKVLIT\n"
	prot.Templates = []json.RawMessage{}

	out_path, err := in.WriteData(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(out_path)
	if err != nil {
		t.Fatal(err)
	}

	// Fields this pipeline does not model must survive the round trip.
	for _, want := range []string{
		`"bondedAtomPairs"`,
		`"userCCD"`,
		`"modifications"`,
		`"ptmType"`,
		`"modelSeeds"`,
		`"dialect"`,
		`"rna"`,
		`"unpairedMsa"`,
	} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("output descriptor lost %s", want)
		}
	}

	// And the output must still parse as a fold input.
	round, err := ReadFoldInput(out_path)
	if err != nil {
		t.Fatalf("output descriptor unreadable: %v", err)
	}
	if round.ProteinChains()[0].UnpairedMSA != ">query\nMKVLIT\n" {
		t.Errorf("unpairedMsa = %q", round.ProteinChains()[0].UnpairedMSA)
	}
}

func TestChainIDRoundTrip(t *testing.T) {

	tests := []struct {
		name string
		in   string
		out  string
	}{
		{"Single", `"A"`, `"A"`},
		{"List", `["A","B"]`, `["A","B"]`},
		{"SingleElementList", `["A"]`, `"A"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ChainID
			if err := json.Unmarshal([]byte(tt.in), &id); err != nil {
				t.Fatal(err)
			}
			out, err := json.Marshal(id)
			if err != nil {
				t.Fatal(err)
			}
			if string(out) != tt.out {
				t.Errorf("marshal = %s, want %s", out, tt.out)
			}
		})
	}
}

func TestWriteFasta(t *testing.T) {

	in := &FoldInput{
		Name: "complex1",
		Sequences: []Chain{
			{Protein: &Protein{ID: ChainID{"A"}, Sequence: "MKVLIT"}},
			{Protein: &Protein{ID: ChainID{"B", "C"}, Sequence: "GGSGGS"}},
		},
	}

	fpath := path.Join(t.TempDir(), "query.fasta")
	n, err := in.WriteFasta(fpath)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("record count = %d, want 2", n)
	}

	raw, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatal(err)
	}
	expected := ">complex1_A\nMKVLIT\n>complex1_B\nGGSGGS\n"
	if string(raw) != expected {
		t.Errorf("fasta = %q, want %q", raw, expected)
	}
}

func TestWriteData(t *testing.T) {

	in := &FoldInput{
		Name: "complex1",
		Sequences: []Chain{
			{Protein: &Protein{
				ID:          ChainID{"A"},
				Sequence:    "MKVLIT",
				UnpairedMSA: ">query\nMKVLIT\n",
				PairedMSA:   ">query\nMKVLIT\n",
				Templates:   []json.RawMessage{},
			}},
		},
	}

	dir := t.TempDir()
	out_path, err := in.WriteData(dir)
	if err != nil {
		t.Fatal(err)
	}

	if path.Base(out_path) != "complex1_data.json" {
		t.Errorf("output name = %s", path.Base(out_path))
	}

	raw, err := os.ReadFile(out_path)
	if err != nil {
		t.Fatal(err)
	}

	var round FoldInput
	if err := json.Unmarshal(raw, &round); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if round.Sequences[0].Protein.UnpairedMSA != ">query\nMKVLIT\n" {
		t.Errorf("unpairedMsa = %q", round.Sequences[0].Protein.UnpairedMSA)
	}
	if !strings.Contains(string(raw), `"templates": []`) {
		t.Error("templates should serialize as an empty list")
	}
}
