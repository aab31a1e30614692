package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/yumyai/msaprep/internal/util"
	"github.com/yumyai/msaprep/logger"
	"github.com/yumyai/msaprep/pkg/config"
	"github.com/yumyai/msaprep/pkg/msa"
)

// ColabFoldSearch shells out to the colabfold_search wrapper around
// mmseqs. One Run is one blocking subprocess; stdout and stderr are
// captured and surfaced on failure. No retry.
type ColabFoldSearch struct {
	cfg config.Search
}

func NewColabFoldSearch(cfg config.Search) *ColabFoldSearch {
	return &ColabFoldSearch{cfg: cfg}
}

func (s *ColabFoldSearch) Run(ctx context.Context, name, sequence string) (*Result, error) {

	work_dir, err := os.MkdirTemp("", "msaprep-search-")
	if err != nil {
		return nil, fmt.Errorf("create search work dir: %w", err)
	}
	defer os.RemoveAll(work_dir)

	query_fpath := path.Join(work_dir, "query.fasta")
	record := fmt.Sprintf(">%s\n%s\n", name, sequence)
	if err := os.WriteFile(query_fpath, []byte(record), 0644); err != nil {
		return nil, fmt.Errorf("write query fasta: %w", err)
	}

	results_dir := path.Join(work_dir, "results")
	if err := os.MkdirAll(results_dir, 0755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}

	args := s.buildArgs(query_fpath, results_dir)
	logger.Debug("running search", zap.String("query", name), zap.Strings("args", args))

	cmd := exec.CommandContext(ctx, s.cfg.ColabSearchBin, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, &ToolError{
			Tool:   path.Base(s.cfg.ColabSearchBin),
			Args:   args,
			Output: output,
			Err:    err,
		}
	}

	a3m, err := readA3MOutput(results_dir)
	if err != nil {
		return nil, &ToolError{
			Tool:   path.Base(s.cfg.ColabSearchBin),
			Args:   args,
			Output: output,
			Err:    err,
		}
	}

	res := &Result{A3M: a3m}

	if s.cfg.AddTaxid {
		m8_fpath := path.Join(results_dir, "uniref_tax.m8")
		if util.FileExists(m8_fpath) {
			res.Taxids, err = msa.ReadTaxidMap(m8_fpath)
			if err != nil {
				return nil, err
			}
		} else {
			logger.Warn("taxid table not produced by search tool", zap.String("query", name))
		}
	}

	return res, nil
}

// buildArgs assembles the search tool command line. Flag names belong to
// the tool and must not change.
func (s *ColabFoldSearch) buildArgs(query_fpath, results_dir string) []string {

	args := []string{query_fpath, s.cfg.DBDir, results_dir}

	if s.cfg.DB1 != "" {
		args = append(args, "--db1", s.cfg.DB1)
	}
	if s.cfg.DB2 != "" {
		args = append(args, "--db2", s.cfg.DB2)
	}
	if s.cfg.DB3 != "" {
		args = append(args, "--db3", s.cfg.DB3)
	}

	mmseqs := s.cfg.MMseqsBin
	if mmseqs == "" {
		mmseqs = "mmseqs"
	}
	args = append(args, "--mmseqs", mmseqs)

	if s.cfg.UseEnv != 0 {
		args = append(args, "--use-env", fmt.Sprint(s.cfg.UseEnv))
	}
	if s.cfg.Filter != 0 {
		args = append(args, "--filter", fmt.Sprint(s.cfg.Filter))
	}
	if s.cfg.DBLoadMode != 0 {
		args = append(args, "--db-load-mode", fmt.Sprint(s.cfg.DBLoadMode))
	}
	if s.cfg.AddTaxid {
		args = append(args, "--add-toxid", "1")
	}
	if s.cfg.Threads > 0 {
		args = append(args, "--threads", fmt.Sprint(s.cfg.Threads))
	}

	return args
}

// readA3MOutput picks up the alignment the tool left in its results dir.
// A single-record query yields a single a3m; take the first in name
// order if the tool produced several.
func readA3MOutput(results_dir string) ([]byte, error) {

	matches, err := filepath.Glob(path.Join(results_dir, "*.a3m"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, errors.New("search tool produced no a3m output")
	}

	sort.Strings(matches)
	return os.ReadFile(matches[0])
}
