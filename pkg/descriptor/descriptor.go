// Fold-input descriptor: the JSON file naming the chains to fold.
// The schema belongs to the downstream inference tool; we only touch the
// fields needed for MSA attachment. Everything else — top-level keys,
// non-protein entries, unmodeled protein fields such as modifications —
// is kept as raw JSON and round-trips untouched.

package descriptor

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"
)

// FormatError reports a malformed or incomplete fold input.
type FormatError struct {
	Path string
	Msg  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("fold input %s: %s", e.Path, e.Msg)
}

// ChainID accepts both the single-string and list forms used by the
// inference tool ("id": "A" vs "id": ["A", "B"]).
type ChainID []string

func (c *ChainID) UnmarshalJSON(b []byte) error {
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		*c = ChainID{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("chain id must be a string or list of strings: %w", err)
	}
	*c = ChainID(many)
	return nil
}

func (c ChainID) MarshalJSON() ([]byte, error) {
	if len(c) == 1 {
		return json.Marshal(c[0])
	}
	return json.Marshal([]string(c))
}

// Protein models the fields this pipeline reads or writes. All other
// keys of the protein object live in extra and are emitted unchanged.
type Protein struct {
	ID          ChainID
	Sequence    string
	UnpairedMSA string
	PairedMSA   string
	Templates   []json.RawMessage

	extra map[string]json.RawMessage
}

func (p *Protein) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	if v, ok := raw["id"]; ok {
		if err := json.Unmarshal(v, &p.ID); err != nil {
			return err
		}
	}
	if v, ok := raw["sequence"]; ok {
		if err := json.Unmarshal(v, &p.Sequence); err != nil {
			return err
		}
	}
	if v, ok := raw["unpairedMsa"]; ok {
		if err := json.Unmarshal(v, &p.UnpairedMSA); err != nil {
			return err
		}
	}
	if v, ok := raw["pairedMsa"]; ok {
		if err := json.Unmarshal(v, &p.PairedMSA); err != nil {
			return err
		}
	}
	if v, ok := raw["templates"]; ok {
		if err := json.Unmarshal(v, &p.Templates); err != nil {
			return err
		}
	}

	p.extra = raw
	return nil
}

func (p *Protein) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(p.extra)+5)
	for k, v := range p.extra {
		out[k] = v
	}

	var err error
	if out["id"], err = json.Marshal(p.ID); err != nil {
		return nil, err
	}
	if out["sequence"], err = json.Marshal(p.Sequence); err != nil {
		return nil, err
	}
	if p.UnpairedMSA != "" {
		if out["unpairedMsa"], err = json.Marshal(p.UnpairedMSA); err != nil {
			return nil, err
		}
	}
	if p.PairedMSA != "" {
		if out["pairedMsa"], err = json.Marshal(p.PairedMSA); err != nil {
			return nil, err
		}
	}
	if p.Templates != nil {
		if out["templates"], err = json.Marshal(p.Templates); err != nil {
			return nil, err
		}
	}

	return json.Marshal(out)
}

// Chain wraps one entry of the "sequences" list. Protein entries are
// parsed; rna, dna, ligand and anything else stay raw.
type Chain struct {
	Protein *Protein

	extra map[string]json.RawMessage
}

func (c *Chain) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	if v, ok := raw["protein"]; ok {
		c.Protein = &Protein{}
		if err := json.Unmarshal(v, c.Protein); err != nil {
			return err
		}
	}

	c.extra = raw
	return nil
}

func (c Chain) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(c.extra)+1)
	for k, v := range c.extra {
		out[k] = v
	}

	if c.Protein != nil {
		prot, err := json.Marshal(c.Protein)
		if err != nil {
			return nil, err
		}
		out["protein"] = prot
	}

	return json.Marshal(out)
}

type FoldInput struct {
	Name      string
	Sequences []Chain

	extra map[string]json.RawMessage
}

func (f *FoldInput) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	if v, ok := raw["name"]; ok {
		if err := json.Unmarshal(v, &f.Name); err != nil {
			return err
		}
	}
	if v, ok := raw["sequences"]; ok {
		if err := json.Unmarshal(v, &f.Sequences); err != nil {
			return err
		}
	}

	f.extra = raw
	return nil
}

func (f *FoldInput) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(f.extra)+2)
	for k, v := range f.extra {
		out[k] = v
	}

	var err error
	if out["name"], err = json.Marshal(f.Name); err != nil {
		return nil, err
	}
	if out["sequences"], err = json.Marshal(f.Sequences); err != nil {
		return nil, err
	}

	return json.Marshal(out)
}

// ReadFoldInput parses and validates a fold input file.
func ReadFoldInput(fpath string) (*FoldInput, error) {

	raw, err := os.ReadFile(fpath)
	if err != nil {
		return nil, fmt.Errorf("read fold input: %w", err)
	}

	var in FoldInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, &FormatError{Path: fpath, Msg: err.Error()}
	}

	if err := in.validate(fpath); err != nil {
		return nil, err
	}

	return &in, nil
}

func (f *FoldInput) validate(fpath string) error {

	if f.Name == "" {
		return &FormatError{Path: fpath, Msg: "missing name"}
	}

	seen := make(map[string]bool)
	num_prot := 0

	for i, chain := range f.Sequences {
		prot := chain.Protein
		if prot == nil {
			continue
		}
		num_prot++

		if len(prot.ID) == 0 {
			return &FormatError{Path: fpath, Msg: fmt.Sprintf("sequences[%d]: protein chain has no id", i)}
		}
		if prot.Sequence == "" {
			return &FormatError{Path: fpath, Msg: fmt.Sprintf("sequences[%d]: protein chain has empty sequence", i)}
		}
		if strings.ContainsAny(prot.Sequence, " \t\n") {
			return &FormatError{Path: fpath, Msg: fmt.Sprintf("sequences[%d]: sequence contains whitespace", i)}
		}
		for _, id := range prot.ID {
			if id == "" {
				return &FormatError{Path: fpath, Msg: fmt.Sprintf("sequences[%d]: empty chain id", i)}
			}
			if seen[id] {
				return &FormatError{Path: fpath, Msg: fmt.Sprintf("duplicate chain id %q", id)}
			}
			seen[id] = true
		}
	}

	if num_prot == 0 {
		return &FormatError{Path: fpath, Msg: "no protein chains found"}
	}

	return nil
}

// ProteinChains returns pointers to the protein entries, in file order.
func (f *FoldInput) ProteinChains() []*Protein {
	var prots []*Protein
	for i := range f.Sequences {
		if f.Sequences[i].Protein != nil {
			prots = append(prots, f.Sequences[i].Protein)
		}
	}
	return prots
}

// WriteFasta writes the protein chains as a FASTA query file, one record
// per chain named {fold name}_{first chain id}. Returns the record count.
func (f *FoldInput) WriteFasta(fpath string) (int, error) {

	var sb strings.Builder
	n := 0
	for _, prot := range f.ProteinChains() {
		fmt.Fprintf(&sb, ">%s_%s\n%s\n", f.Name, prot.ID[0], prot.Sequence)
		n++
	}

	if err := os.WriteFile(fpath, []byte(sb.String()), 0644); err != nil {
		return 0, fmt.Errorf("write query fasta: %w", err)
	}

	return n, nil
}

// WriteData serializes the descriptor to {dir}/{name}_data.json, the
// file the inference tool consumes with its own search step disabled.
func (f *FoldInput) WriteData(dir string) (string, error) {

	out, err := json.MarshalIndent(f, "", "    ")
	if err != nil {
		return "", fmt.Errorf("marshal fold input: %w", err)
	}

	out_path := path.Join(dir, f.Name+"_data.json")
	if err := os.WriteFile(out_path, out, 0644); err != nil {
		return "", fmt.Errorf("write fold input: %w", err)
	}

	return out_path, nil
}
