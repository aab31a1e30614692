package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/yumyai/msaprep/pkg/db"

	_ "modernc.org/sqlite"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent pipeline runs",
	RunE:  listRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum number of runs to show")
	rootCmd.AddCommand(runsCmd)
}

func listRuns(cmd *cobra.Command, args []string) error {

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.LedgerPath == "" {
		return errors.New("no ledger_path configured")
	}

	ledger, err := db.OpenLedger(cfg.LedgerPath)
	if err != nil {
		return err
	}
	defer ledger.Close()

	runs, err := ledger.Recent(context.Background(), runsLimit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	for _, r := range runs {
		cmd.Printf("%s  %-8s  %s (%d chains)\n", r.StartedAt.Format("2006-01-02 15:04:05"), r.Status, r.Input, r.Chains)
		if r.OutputPath != "" {
			cmd.Printf("    -> %s\n", r.OutputPath)
		}
		if r.ErrMsg != "" {
			cmd.Printf("    error: %s\n", r.ErrMsg)
		}
	}

	return nil
}
