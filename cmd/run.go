package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yumyai/msaprep/internal/util"
	"github.com/yumyai/msaprep/logger"
	"github.com/yumyai/msaprep/pkg/db"
	"github.com/yumyai/msaprep/pkg/pipeline"

	_ "modernc.org/sqlite"
)

var (
	runInputJSON string
	runMSADir    string
	runJSONDir   string
	runAddTaxid  bool
	runNoLedger  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the MSA pipeline for one fold input",
	RunE:  runPipeline,
}

func init() {
	runCmd.Flags().StringVar(&runInputJSON, "input-json", "", "fold input JSON file")
	runCmd.Flags().StringVar(&runMSADir, "output-msa-dir", "", "directory for raw and per-chain alignments")
	runCmd.Flags().StringVar(&runJSONDir, "output-json-dir", "", "directory for the augmented fold input")
	runCmd.Flags().BoolVar(&runAddTaxid, "add-taxid", false, "attach NCBI TaxIDs to UniRef hits")
	runCmd.Flags().BoolVar(&runNoLedger, "no-ledger", false, "skip the run ledger")
	runCmd.MarkFlagRequired("input-json")
	runCmd.MarkFlagRequired("output-msa-dir")
	runCmd.MarkFlagRequired("output-json-dir")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("add-taxid") {
		cfg.Search.AddTaxid = runAddTaxid
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !util.DirExists(cfg.Search.DBDir) {
		return fmt.Errorf("database directory %s does not exist", cfg.Search.DBDir)
	}

	var ledger *db.RunLedger
	if cfg.LedgerPath != "" && !runNoLedger {
		ledger, err = db.OpenLedger(cfg.LedgerPath)
		if err != nil {
			// The ledger is bookkeeping, not pipeline state.
			logger.Warn("cannot open run ledger, continuing without", zap.Error(err))
		} else {
			defer ledger.Close()
		}
	}

	p := pipeline.New(cfg, ledger)

	out_path, err := p.Run(context.Background(), runInputJSON, runMSADir, runJSONDir)
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	cmd.Printf("Wrote %s\n", out_path)
	return nil
}
