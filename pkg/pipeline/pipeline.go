// The MSA preparation pipeline: fold input in, per-chain alignments and
// an augmented fold input out. Chains are processed one at a time; a
// search failure aborts the whole run before any descriptor is written.

package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"

	"go.uber.org/zap"

	"github.com/yumyai/msaprep/internal/util"
	"github.com/yumyai/msaprep/logger"
	"github.com/yumyai/msaprep/pkg/config"
	"github.com/yumyai/msaprep/pkg/db"
	"github.com/yumyai/msaprep/pkg/descriptor"
	"github.com/yumyai/msaprep/pkg/msa"
	"github.com/yumyai/msaprep/pkg/search"
)

const (
	pairingFile    = "uniref100_hits.a3m"
	nonPairingFile = "mmseqs_other_hits.a3m"
	chainSeqFile   = "msa_chain_seq.json"
)

type Pipeline struct {
	Cfg config.Config
	// Tool overrides the search tool; nil means colabfold_search built
	// from Cfg once the taxid decision is made.
	Tool   search.Tool
	Ledger *db.RunLedger
}

func New(cfg config.Config, ledger *db.RunLedger) *Pipeline {
	return &Pipeline{Cfg: cfg, Ledger: ledger}
}

// chainMSA is the processed alignment of one distinct sequence.
type chainMSA struct {
	chain_id string
	split    *msa.Split
}

// Run executes the pipeline for one fold input and returns the path of
// the augmented descriptor.
func (p *Pipeline) Run(ctx context.Context, input_path, msa_dir, json_dir string) (string, error) {

	in, err := descriptor.ReadFoldInput(input_path)
	if err != nil {
		return "", err
	}

	prots := in.ProteinChains()
	add_taxid := p.resolveTaxid(len(prots))

	tool := p.Tool
	if tool == nil {
		search_cfg := p.Cfg.Search
		search_cfg.AddTaxid = add_taxid
		tool = search.NewColabFoldSearch(search_cfg)
	}

	if err := util.EnsureDir(msa_dir); err != nil {
		return "", err
	}
	if err := util.EnsureDir(json_dir); err != nil {
		return "", err
	}

	run_id := p.beginRun(ctx, in.Name, len(prots))

	out_path, err := p.process(ctx, tool, in, msa_dir, json_dir)
	if err != nil {
		p.finishRun(ctx, run_id, db.StatusFailed, "", err.Error())
		return "", err
	}

	p.finishRun(ctx, run_id, db.StatusDone, out_path, "")
	return out_path, nil
}

func (p *Pipeline) process(ctx context.Context, tool search.Tool, in *descriptor.FoldInput,
	msa_dir, json_dir string) (string, error) {

	// Keep the combined query FASTA next to the alignments so a search
	// can be re-run by hand with the exact same input.
	if _, err := in.WriteFasta(path.Join(msa_dir, in.Name+".fasta")); err != nil {
		return "", err
	}

	// Chains sharing a sequence share one search.
	by_seq := make(map[string]*chainMSA)
	chain_seq := make(map[string]string)

	for _, prot := range in.ProteinChains() {
		if done, ok := by_seq[prot.Sequence]; ok {
			logger.Info("reusing alignment of identical chain",
				zap.String("chain", prot.ID[0]), zap.String("from", done.chain_id))
			continue
		}

		chain_id := prot.ID[0]
		query_name := fmt.Sprintf("%s_%s", in.Name, chain_id)

		logger.Info("searching", zap.String("chain", chain_id), zap.Int("seq_len", len(prot.Sequence)))
		res, err := tool.Run(ctx, query_name, prot.Sequence)
		if err != nil {
			return "", fmt.Errorf("chain %s: %w", chain_id, err)
		}

		split, err := processAlignment(res, chain_id, msa_dir)
		if err != nil {
			return "", fmt.Errorf("chain %s: %w", chain_id, err)
		}

		by_seq[prot.Sequence] = &chainMSA{chain_id: chain_id, split: split}
		chain_seq[chain_id] = prot.Sequence
	}

	if err := writeChainSeqMap(msa_dir, chain_seq); err != nil {
		return "", err
	}

	attachMSAs(in, by_seq)

	return in.WriteData(json_dir)
}

// processAlignment persists the raw output, annotates taxonomy, splits
// pairing from non-pairing hits and writes the per-chain a3m files.
func processAlignment(res *search.Result, chain_id, msa_dir string) (*msa.Split, error) {

	raw_fpath := path.Join(msa_dir, chain_id+".a3m")
	if err := os.WriteFile(raw_fpath, res.A3M, 0644); err != nil {
		return nil, fmt.Errorf("persist raw alignment: %w", err)
	}

	aln, err := msa.ParseA3M(bytes.NewReader(res.A3M))
	if err != nil {
		return nil, err
	}

	if res.Taxids != nil {
		msa.AnnotateTaxids(aln, res.Taxids)
	}

	split, err := msa.SplitPairing(aln)
	if err != nil {
		return nil, err
	}

	matched := msa.AnnotateSpecies(split.Pairing)
	logger.Info("taxonomy extraction",
		zap.String("chain", chain_id),
		zap.Int("pairing_hits", len(split.Pairing)),
		zap.Int("with_species", matched),
		zap.Int("other_hits", len(split.NonPairing)))

	chain_dir := path.Join(msa_dir, chain_id)
	if err := util.EnsureDir(chain_dir); err != nil {
		return nil, err
	}

	if hits := split.PairingHits(); hits != nil {
		if err := writeA3MFile(path.Join(chain_dir, pairingFile), hits); err != nil {
			return nil, err
		}
	}
	if hits := split.NonPairingHits(); hits != nil {
		if err := writeA3MFile(path.Join(chain_dir, nonPairingFile), hits); err != nil {
			return nil, err
		}
	}

	return split, nil
}

// attachMSAs fills the MSA fields of every protein chain. Pairing hits
// feed pairedMsa; pairing plus the rest feed unpairedMsa. Templates are
// emptied since the downstream search step is skipped.
func attachMSAs(in *descriptor.FoldInput, by_seq map[string]*chainMSA) {

	for _, prot := range in.ProteinChains() {
		cm := by_seq[prot.Sequence]
		if cm == nil {
			continue
		}

		prot.PairedMSA = msa.Render(cm.split.PairingHits())
		prot.UnpairedMSA = msa.Render(cm.split.PairingHits()) + msa.Render(cm.split.NonPairingHits())
		prot.Templates = []json.RawMessage{}
	}
}

func writeA3MFile(fpath string, hits []msa.Hit) error {
	f, err := os.Create(fpath)
	if err != nil {
		return err
	}
	defer f.Close()
	return msa.WriteA3M(f, hits)
}

func writeChainSeqMap(msa_dir string, chain_seq map[string]string) error {
	out, err := json.MarshalIndent(chain_seq, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path.Join(msa_dir, chainSeqFile), out, 0644)
}

// resolveTaxid applies the monomer/multimer rule: pairing needs taxonomy,
// so multimer runs get taxids even when the config says otherwise.
func (p *Pipeline) resolveTaxid(num_chains int) bool {

	add_taxid := p.Cfg.Search.AddTaxid

	if num_chains == 1 && add_taxid {
		logger.Warn("monomer input with add_taxid enabled, taxids are only used for pairing")
	}
	if num_chains > 1 && !add_taxid {
		logger.Warn("multimer input without add_taxid, enabling it for chain pairing")
		add_taxid = true
	}

	return add_taxid
}

func (p *Pipeline) beginRun(ctx context.Context, input string, chains int) string {
	if p.Ledger == nil {
		return ""
	}
	run_id, err := p.Ledger.Begin(ctx, input, chains)
	if err != nil {
		logger.Warn("run ledger unavailable", zap.Error(err))
		return ""
	}
	return run_id
}

func (p *Pipeline) finishRun(ctx context.Context, run_id, status, out_path, err_msg string) {
	if p.Ledger == nil || run_id == "" {
		return
	}
	if err := p.Ledger.Finish(ctx, run_id, status, out_path, err_msg); err != nil {
		logger.Warn("run ledger update failed", zap.Error(err))
	}
}
